// Package validation holds one statically constructed validator per request
// type. Failures are reported as notifications, never as errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"ticketnow/internal/models"
	"ticketnow/internal/notification"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const minPasswordLength = 8

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return ValidCategory(models.EventCategory(fl.Field().String()))
	})
	mustRegister(v, "payment_method", func(fl validator.FieldLevel) bool {
		return ValidPaymentMethod(models.PaymentMethod(fl.Field().String()))
	})
	mustRegister(v, "payment_status", func(fl validator.FieldLevel) bool {
		return ValidPaymentStatus(models.PaymentStatus(fl.Field().String()))
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Rule is an extra check that struct tags cannot express.
type Rule[T any] func(req *T) []notification.Notification

// Validator validates a single request type.
type Validator[T any] struct {
	rules []Rule[T]
}

func New[T any](rules ...Rule[T]) *Validator[T] {
	return &Validator[T]{rules: rules}
}

// Validate returns every field and rule failure of req.
func (v *Validator[T]) Validate(req *T) notification.List {
	var list notification.List

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			list.Add(notification.New("request", err.Error()))
			return list
		}
		for _, fe := range fieldErrs {
			list.Add(notification.New(fe.Field(), message(fe)))
		}
	}

	for _, rule := range v.rules {
		list.Add(rule(req)...)
	}

	return list
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have exactly %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "alphanum":
		return "must contain only letters and digits"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "nefield":
		return "must be different from the current password"
	case "password":
		return fmt.Sprintf("must have at least %d characters with upper case, lower case and digit", minPasswordLength)
	case "category":
		return "is not a valid event category"
	case "payment_method":
		return "is not a valid payment method"
	case "payment_status":
		return "is not a valid payment status"
	}
	return fmt.Sprintf("failed on %s", fe.Tag())
}

// StrongPassword enforces the account password policy.
func StrongPassword(p string) bool {
	if len(p) < minPasswordLength {
		return false
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func ValidCategory(c models.EventCategory) bool {
	switch c {
	case models.CategoryShow, models.CategoryTheater, models.CategorySports,
		models.CategoryFestival, models.CategoryStandup, models.CategoryOther:
		return true
	}
	return false
}

func ValidPaymentMethod(m models.PaymentMethod) bool {
	switch m {
	case models.PaymentCreditCard, models.PaymentDebitCard, models.PaymentPix, models.PaymentBankSlip:
		return true
	}
	return false
}

func ValidPaymentStatus(s models.PaymentStatus) bool {
	switch s {
	case models.PaymentPending, models.PaymentProcessing, models.PaymentPaid,
		models.PaymentFailed, models.PaymentDeclined, models.PaymentCancelled:
		return true
	}
	return false
}
