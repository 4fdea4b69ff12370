package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
	RolePromoter Role = "PROMOTER"
)

type EventCategory string

const (
	CategoryShow     EventCategory = "SHOW"
	CategoryTheater  EventCategory = "THEATER"
	CategorySports   EventCategory = "SPORTS"
	CategoryFestival EventCategory = "FESTIVAL"
	CategoryStandup  EventCategory = "STANDUP"
	CategoryOther    EventCategory = "OTHER"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentPaid       PaymentStatus = "PAID"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentDeclined   PaymentStatus = "DECLINED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
)

// IsTerminal reports whether the gateway will not move the payment any further.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentPaid, PaymentFailed, PaymentDeclined, PaymentCancelled:
		return true
	}
	return false
}

// Precedes reports whether s is an earlier stage of the payment than other.
// PENDING comes before PROCESSING, which comes before every terminal status.
func (s PaymentStatus) Precedes(other PaymentStatus) bool {
	return s.stage() < other.stage()
}

func (s PaymentStatus) stage() int {
	switch {
	case s == PaymentPending:
		return 0
	case s == PaymentProcessing:
		return 1
	case s.IsTerminal():
		return 2
	}
	return -1
}

// IsFailure reports whether the payment outcome cancels the order.
func (s PaymentStatus) IsFailure() bool {
	return s == PaymentFailed || s == PaymentDeclined || s == PaymentCancelled
}

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentPix        PaymentMethod = "PIX"
	PaymentBankSlip   PaymentMethod = "BANK_SLIP"
)

// User is the account record. Roles live in a separate association.
type User struct {
	ID                    int64      `json:"id" db:"id"`
	Username              string     `json:"username" db:"username"`
	Email                 string     `json:"email" db:"email"`
	PasswordHash          string     `json:"-" db:"password_hash"`
	FirstName             string     `json:"first_name" db:"first_name"`
	LastName              string     `json:"last_name" db:"last_name"`
	Document              string     `json:"document" db:"document"`
	DocumentType          string     `json:"document_type" db:"document_type"`
	Active                bool       `json:"active" db:"active"`
	RefreshTokenHash      *string    `json:"-" db:"refresh_token_hash"`
	RefreshTokenExpiresAt *time.Time `json:"-" db:"refresh_token_expires_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`

	Roles []Role `json:"roles" db:"-"`
}

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Event struct {
	ID              int64           `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	Address         string          `json:"address" db:"address"`
	City            string          `json:"city" db:"city"`
	State           string          `json:"state" db:"state"`
	Category        EventCategory   `json:"category" db:"category"`
	EventDate       time.Time       `json:"event_date" db:"event_date"`
	TicketPrice     decimal.Decimal `json:"ticket_price" db:"ticket_price"`
	TicketAmount    int             `json:"ticket_amount" db:"ticket_amount"`
	TicketAvailable int             `json:"ticket_available" db:"ticket_available"`
	Active          bool            `json:"active" db:"active"`
	Approved        bool            `json:"approved" db:"approved"`
	PromoterID      int64           `json:"promoter_id" db:"promoter_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// OnSale reports whether customers can buy tickets for the event.
func (e *Event) OnSale() bool {
	return e.Active && e.Approved
}

type Order struct {
	ID            int64           `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	EventID       int64           `json:"event_id" db:"event_id"`
	PaymentID     *int64          `json:"payment_id,omitempty" db:"payment_id"`
	Status        OrderStatus     `json:"status" db:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status" db:"payment_status"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	Tickets       int             `json:"tickets" db:"tickets"`
	Price         decimal.Decimal `json:"price" db:"price"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Items []OrderItem `json:"items,omitempty" db:"-"`
}

// Cancellable reports whether the order status still allows cancellation.
func (o *Order) Cancellable() bool {
	return o.Status == OrderPending || o.Status == OrderConfirmed
}

type OrderItem struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    int64           `json:"order_id" db:"order_id"`
	TicketCode string          `json:"ticket_code" db:"ticket_code"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
