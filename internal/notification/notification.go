// Package notification carries recoverable business-rule and validation
// failures from the service layer to the HTTP boundary.
package notification

import "fmt"

// Kind classifies a notification so the boundary can pick a status code.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "validation"
	}
}

type Notification struct {
	Key     string `json:"key"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
}

func (n Notification) String() string {
	return fmt.Sprintf("%s: %s", n.Key, n.Message)
}

// New builds a validation notification.
func New(key, message string) Notification {
	return Notification{Key: key, Message: message, Kind: KindValidation}
}

// List collects the notifications of a single request.
type List []Notification

func (l *List) Add(n ...Notification) {
	*l = append(*l, n...)
}

func (l List) HasAny() bool {
	return len(l) > 0
}

// Kind reports the most significant kind in the list. Authorization problems
// win over missing resources, which win over conflicts and plain validation.
func (l List) Kind() Kind {
	best := KindValidation
	rank := func(k Kind) int {
		switch k {
		case KindUnauthorized:
			return 4
		case KindForbidden:
			return 3
		case KindNotFound:
			return 2
		case KindConflict:
			return 1
		}
		return 0
	}
	for _, n := range l {
		if rank(n.Kind) > rank(best) {
			best = n.Kind
		}
	}
	return best
}

// Has reports whether a notification with key is present.
func (l List) Has(key string) bool {
	for _, n := range l {
		if n.Key == key {
			return true
		}
	}
	return false
}
