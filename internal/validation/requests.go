package validation

import (
	"strings"

	"ticketnow/internal/models"
	"ticketnow/internal/notification"
)

var (
	Register       = New[models.RegisterRequest]()
	Login          = New[models.LoginRequest]()
	RefreshToken   = New[models.RefreshTokenRequest]()
	CreateEvent    = New(upperState[models.CreateEventRequest](func(r *models.CreateEventRequest) string { return r.State }))
	UpdateEvent    = New(upperState[models.UpdateEventRequest](func(r *models.UpdateEventRequest) string { return r.State }))
	SetState       = New[models.SetStateRequest]()
	SearchEvents   = New[models.EventSearchRequest]()
	PlaceOrder     = New[models.PlaceOrderRequest]()
	PaymentWebhook = New[models.PaymentNotificationRequest]()
	UpdateUser     = New[models.UpdateUserRequest]()
	UpdatePassword = New[models.UpdatePasswordRequest]()
)

// upperState requires the two-letter state code to be upper case.
func upperState[T any](state func(*T) string) Rule[T] {
	return func(req *T) []notification.Notification {
		s := state(req)
		if s != "" && s != strings.ToUpper(s) {
			return []notification.Notification{notification.New("state", "must be upper case")}
		}
		return nil
	}
}
