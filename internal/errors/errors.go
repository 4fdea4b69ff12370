package errors

import "errors"

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

// Storage level outcomes translated into notifications by the services.
var (
	ErrNotFound              = errors.New("record not found")
	ErrDuplicate             = errors.New("record already exists")
	ErrInsufficientInventory = errors.New("insufficient ticket inventory")
	ErrHasDependents         = errors.New("record is referenced by other records")
	ErrStateChanged          = errors.New("record state changed concurrently")
)

// ErrGatewayUnavailable is returned by external clients that are not configured.
var ErrGatewayUnavailable = errors.New("payment gateway is not available")
