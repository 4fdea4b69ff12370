package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is embedded in every list filter
type Pagination struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"pageSize" json:"page_size"`
}

// Normalize clamps the pagination values to their allowed range
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// DefaultResponse is returned by operations without a payload
type DefaultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RegisterRequest - user registration
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=100,alphanum"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,password"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Document     string `json:"document" validate:"required,max=20"`
	DocumentType string `json:"document_type" validate:"required,oneof=CPF CNPJ RG PASSPORT"`
	Promoter     bool   `json:"promoter"`
}

// LoginRequest - credentials exchange for a token pair
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse - access/refresh token pair
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RefreshTokenRequest - rotate the refresh token
type RefreshTokenRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateEventRequest - promoter creates an event
type CreateEventRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description" validate:"required"`
	Address      string          `json:"address" validate:"required,max=200"`
	City         string          `json:"city" validate:"required,max=100"`
	State        string          `json:"state" validate:"required,len=2"`
	Category     EventCategory   `json:"category" validate:"required,category"`
	EventDate    time.Time       `json:"event_date" validate:"required"`
	TicketPrice  decimal.Decimal `json:"ticket_price" validate:"gt=0"`
	TicketAmount int             `json:"ticket_amount" validate:"gt=0"`
}

// UpdateEventRequest - promoter updates an owned event
type UpdateEventRequest struct {
	ID           int64           `json:"-" validate:"gt=0"`
	PromoterID   int64           `json:"-" validate:"gt=0"`
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description" validate:"required"`
	Address      string          `json:"address" validate:"required,max=200"`
	City         string          `json:"city" validate:"required,max=100"`
	State        string          `json:"state" validate:"required,len=2"`
	Category     EventCategory   `json:"category" validate:"required,category"`
	EventDate    time.Time       `json:"event_date" validate:"required"`
	TicketPrice  decimal.Decimal `json:"ticket_price" validate:"gt=0"`
	TicketAmount int             `json:"ticket_amount" validate:"gt=0"`
}

// SetStateRequest - toggle the active flag of an event or user
type SetStateRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// EventFilter - generic event list filter
type EventFilter struct {
	Pagination
	Name     string        `form:"name" json:"name"`
	City     string        `form:"city" json:"city"`
	Category EventCategory `form:"category" json:"category"`
}

// EventSearchRequest - full-text event search
type EventSearchRequest struct {
	Query string `form:"q" validate:"required,max=200"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// PlaceOrderRequest - customer checkout
type PlaceOrderRequest struct {
	EventID       int64         `json:"event_id" validate:"gt=0"`
	Tickets       int           `json:"tickets" validate:"gt=0,max=20"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,payment_method"`
}

// OrderFilter - list filter for a customer's orders
type OrderFilter struct {
	Pagination
	Status OrderStatus `form:"status" json:"status"`
}

// PaymentNotificationRequest - webhook body sent by the payment gateway
type PaymentNotificationRequest struct {
	OrderID       int64         `json:"orderId" validate:"gt=0"`
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required,payment_status"`
	PaymentID     *int64        `json:"paymentId,omitempty"`
}

// PaymentNotificationOutcome describes what a webhook delivery changed
type PaymentNotificationOutcome string

const (
	OutcomeApplied   PaymentNotificationOutcome = "applied"
	OutcomeDuplicate PaymentNotificationOutcome = "duplicate"
	OutcomeStale     PaymentNotificationOutcome = "stale"
	OutcomeUnknown   PaymentNotificationOutcome = "unknown_order"
)

// UserFilter - admin user list filter
type UserFilter struct {
	Pagination
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Document  string `form:"document" json:"document"`
	Active    *bool  `form:"active" json:"active"`
}

// UpdateUserRequest - user updates their own profile
type UpdateUserRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=100,alphanum"`
	Email        string `json:"email" validate:"required,email,max=255"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Document     string `json:"document" validate:"required,max=20"`
	DocumentType string `json:"document_type" validate:"required,oneof=CPF CNPJ RG PASSPORT"`
}

// UpdatePasswordRequest - user changes their password
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password,nefield=CurrentPassword"`
}
