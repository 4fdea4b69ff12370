package models

import "time"

// NATS subjects
const (
	SubjectOrderPlaced    = "order.placed"
	SubjectOrderConfirmed = "order.confirmed"
	SubjectOrderCancelled = "order.cancelled"

	SubjectEventCreated      = "event.created"
	SubjectEventUpdated      = "event.updated"
	SubjectEventApproved     = "event.approved"
	SubjectEventStateChanged = "event.state_changed"
	SubjectEventDeleted      = "event.deleted"
)

// EventSubjects lists every subject carrying an EventChangedMessage
var EventSubjects = []string{
	SubjectEventCreated,
	SubjectEventUpdated,
	SubjectEventApproved,
	SubjectEventStateChanged,
	SubjectEventDeleted,
}

// Cancellation reasons carried in OrderMessage.Reason
const (
	ReasonUserCancelled  = "cancelled by user"
	ReasonPaymentFailed  = "payment failed"
	ReasonPaymentTimeout = "payment not received in time"
)

// OrderMessage is published on every order status change
type OrderMessage struct {
	OrderID       int64         `json:"order_id"`
	EventID       int64         `json:"event_id"`
	UserID        int64         `json:"user_id"`
	Tickets       int           `json:"tickets"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Reason        string        `json:"reason,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// EventChangedMessage is published on every event mutation.
// Event is nil for deletions.
type EventChangedMessage struct {
	EventID   int64     `json:"event_id"`
	Event     *Event    `json:"event,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
