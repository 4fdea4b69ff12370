package validation

import (
	"testing"
	"time"

	"ticketnow/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validEvent() models.CreateEventRequest {
	return models.CreateEventRequest{
		Name:         "Rock in Rio",
		Description:  "Music festival",
		Address:      "Parque Olimpico",
		City:         "Rio de Janeiro",
		State:        "RJ",
		Category:     models.CategoryFestival,
		EventDate:    time.Now().Add(72 * time.Hour),
		TicketPrice:  decimal.RequireFromString("350.00"),
		TicketAmount: 100,
	}
}

func TestCreateEventValidator(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := validEvent()
		assert.Empty(t, CreateEvent.Validate(&req))
	})

	t.Run("missing fields are reported by json name", func(t *testing.T) {
		req := models.CreateEventRequest{}
		list := CreateEvent.Validate(&req)

		for _, key := range []string{"name", "description", "address", "city", "state", "category", "event_date", "ticket_price", "ticket_amount"} {
			assert.True(t, list.Has(key), "expected notification for %s", key)
		}
	})

	t.Run("state must have two upper case letters", func(t *testing.T) {
		req := validEvent()
		req.State = "SAO"
		assert.True(t, CreateEvent.Validate(&req).Has("state"))

		req.State = "sp"
		list := CreateEvent.Validate(&req)
		assert.Len(t, list, 1)
		assert.Equal(t, "must be upper case", list[0].Message)
	})

	t.Run("unknown category", func(t *testing.T) {
		req := validEvent()
		req.Category = "OPERA"
		list := CreateEvent.Validate(&req)
		assert.True(t, list.Has("category"))
	})

	t.Run("price must be positive", func(t *testing.T) {
		req := validEvent()
		req.TicketPrice = decimal.NewFromInt(-1)
		assert.True(t, CreateEvent.Validate(&req).Has("ticket_price"))
	})
}

func TestPlaceOrderValidator(t *testing.T) {
	tests := []struct {
		name    string
		req     models.PlaceOrderRequest
		wantKey string
	}{
		{"valid", models.PlaceOrderRequest{EventID: 1, Tickets: 2, PaymentMethod: models.PaymentPix}, ""},
		{"missing event", models.PlaceOrderRequest{Tickets: 2, PaymentMethod: models.PaymentPix}, "event_id"},
		{"zero tickets", models.PlaceOrderRequest{EventID: 1, PaymentMethod: models.PaymentPix}, "tickets"},
		{"unknown payment method", models.PlaceOrderRequest{EventID: 1, Tickets: 1, PaymentMethod: "CASH"}, "payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := PlaceOrder.Validate(&tt.req)
			if tt.wantKey == "" {
				assert.Empty(t, list)
				return
			}
			assert.True(t, list.Has(tt.wantKey))
		})
	}
}

func TestPaymentWebhookValidator(t *testing.T) {
	req := models.PaymentNotificationRequest{OrderID: 10, PaymentStatus: models.PaymentPaid}
	assert.Empty(t, PaymentWebhook.Validate(&req))

	req.PaymentStatus = "REFUNDED"
	assert.True(t, PaymentWebhook.Validate(&req).Has("paymentStatus"))
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Secret123"))
	assert.False(t, StrongPassword("short1A"))
	assert.False(t, StrongPassword("alllowercase1"))
	assert.False(t, StrongPassword("NoDigitsHere"))
}

func TestUpdatePasswordMustDiffer(t *testing.T) {
	req := models.UpdatePasswordRequest{CurrentPassword: "Secret123", NewPassword: "Secret123"}
	list := UpdatePassword.Validate(&req)
	assert.True(t, list.Has("new_password"))
}
