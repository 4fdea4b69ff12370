package service

import (
	"context"
	"time"

	"ticketnow/internal/auth"
	"ticketnow/internal/clock"
	"ticketnow/internal/external"
	"ticketnow/internal/logger"
	"ticketnow/internal/models"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Event, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Event, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context, filter models.EventFilter, approved bool) ([]models.Event, error)
	ListByPromoter(ctx context.Context, promoterID int64, filter models.EventFilter) ([]models.Event, error)
	Search(ctx context.Context, text string, limit int) ([]models.Event, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	HasOrders(ctx context.Context, id int64) (bool, error)
	DecrementAvailable(ctx context.Context, id int64, n int) error
	RestoreAvailable(ctx context.Context, id int64, n int) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64, filter models.OrderFilter) ([]models.Order, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	SetPaymentID(ctx context.Context, id, paymentID int64) error
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, paymentStatus models.PaymentStatus) error
	Cancel(ctx context.Context, id int64, paymentStatus models.PaymentStatus) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	AddRole(ctx context.Context, userID int64, role models.Role) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetRefreshToken(ctx context.Context, id int64, hash *string, expiresAt *time.Time) error
	RotateRefreshToken(ctx context.Context, id int64, oldHash, newHash string) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
}

// Publisher sends domain messages to the message bus
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// EventListCache stores public event listings. GetEvents returns the key
// a miss should be filled under; SetEvents ignores an empty key.
type EventListCache interface {
	GetEvents(ctx context.Context, filter models.EventFilter, approved bool) ([]models.Event, string, bool)
	SetEvents(ctx context.Context, key string, events []models.Event)
	Invalidate(ctx context.Context)
}

// EventSearcher returns the ids of events on sale matching a text query
type EventSearcher interface {
	SearchEvents(ctx context.Context, text string, limit int) ([]int64, error)
}

type PaymentGateway interface {
	CreatePayment(ctx context.Context, req external.CreatePaymentRequest) (*external.PaymentResponse, error)
	CancelPayment(ctx context.Context, paymentID int64) error
}

// Dependencies wires the services. Publisher, Cache, Searcher and Payments
// are optional and left nil when the backing system is disabled.
type Dependencies struct {
	Tx     Transactor
	Events EventRepository
	Orders OrderRepository
	Users  UserRepository
	Tokens *auth.TokenManager
	Clock  clock.Clock

	Publisher Publisher
	Cache     EventListCache
	Searcher  EventSearcher
	Payments  PaymentGateway

	PaymentTimeout time.Duration
}

type Services struct {
	Events *EventService
	Orders *OrderService
	Auth   *AuthService
	Users  *UserService
}

func NewServices(deps Dependencies) *Services {
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}

	return &Services{
		Events: NewEventService(deps),
		Orders: NewOrderService(deps),
		Auth:   NewAuthService(deps),
		Users:  NewUserService(deps),
	}
}

// publish sends a domain message. Failures are logged and never fail the operation.
func publish(ctx context.Context, publisher Publisher, subject string, data interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish message",
			"error", err,
			"subject", subject)
	}
}
