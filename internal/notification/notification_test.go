package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListKind(t *testing.T) {
	tests := []struct {
		name string
		list List
		want Kind
	}{
		{"empty list is validation", nil, KindValidation},
		{"validation only", List{New("Name", "required")}, KindValidation},
		{"not found beats validation", List{New("Name", "required"), EventNotFound}, KindNotFound},
		{"not found beats conflict", List{EventDeleteConflict, EventNotFound}, KindNotFound},
		{"unauthorized beats everything", List{OrderNotFound, InvalidCredentials, EventDeleteConflict}, KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.list.Kind())
		})
	}
}

func TestResult(t *testing.T) {
	ok := OK(42)
	assert.True(t, ok.Succeeded())
	assert.Equal(t, 42, ok.Value)

	failed := Fail[int](EventNotFound)
	assert.False(t, failed.Succeeded())
	assert.True(t, failed.Notifications.Has(EventNotFound.Key))
	assert.False(t, failed.Notifications.Has(OrderNotFound.Key))
}

func TestListAdd(t *testing.T) {
	var l List
	assert.False(t, l.HasAny())

	l.Add(New("Tickets", "must be positive"), InsufficientInventory)
	assert.Len(t, l, 2)
	assert.Equal(t, "Tickets: must be positive", l[0].String())
}
