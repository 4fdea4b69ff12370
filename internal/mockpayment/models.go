package mockpayment

import (
	"time"

	"ticketnow/internal/models"

	"github.com/shopspring/decimal"
)

// Application is a merchant allowed to create payments. Deleting it removes its payments.
type Application struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	APIKey        string    `gorm:"not null;uniqueIndex" json:"-"`
	Username      string    `gorm:"not null" json:"username"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	WebhookURL    string    `gorm:"not null" json:"webhookUrl"`
	WebhookSecret string    `json:"-"`
	Payments      []Payment `gorm:"foreignKey:ApplicationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Payment struct {
	ID            int64                `gorm:"primaryKey" json:"id"`
	ApplicationID uint                 `gorm:"not null;index" json:"-"`
	OrderID       int64                `gorm:"not null;index" json:"orderId"`
	PaymentMethod models.PaymentMethod `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	PaymentStatus models.PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"paymentStatus"`
	Amount        decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"amount"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type CreatePaymentRequest struct {
	OrderID       int64                `json:"orderId" binding:"required,gt=0"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"required"`
	Amount        decimal.Decimal      `json:"amount"`
}

type UpdateStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"paymentStatus" binding:"required"`
}

// WebhookPayload is what the gateway posts to the application's webhook URL
type WebhookPayload struct {
	OrderID       int64                `json:"orderId"`
	PaymentID     int64                `json:"paymentId"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
}
