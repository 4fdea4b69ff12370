package mockpayment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ticketnow/internal/models"
	"ticketnow/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidRequest = errors.New("invalid payment request")

type Store interface {
	SaveApplication(ctx context.Context, app *Application) error
	FindApplicationByAPIKey(ctx context.Context, apiKey string) (*Application, error)
	CreatePayment(ctx context.Context, payment *Payment) error
	GetPayment(ctx context.Context, appID uint, id int64) (*Payment, error)
	UpdateStatus(ctx context.Context, appID uint, id int64, status models.PaymentStatus) (*Payment, error)
}

type Notifier interface {
	Notify(ctx context.Context, app *Application, payment *Payment) error
}

// Service is the gateway: it stores payments, settles them on request or on
// a timer, and notifies the owning application in the background.
type Service struct {
	store    Store
	notifier Notifier

	autoSettle      models.PaymentStatus
	autoSettleDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	timers map[int64]*time.Timer
	wg     sync.WaitGroup
}

func NewService(store Store, notifier Notifier, cfg Config) (*Service, error) {
	status := models.PaymentStatus(cfg.AutoSettleStatus)
	if status != "" && (!validation.ValidPaymentStatus(status) || status == models.PaymentPending) {
		return nil, fmt.Errorf("invalid auto settle status %q", cfg.AutoSettleStatus)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:           store,
		notifier:        notifier,
		autoSettle:      status,
		autoSettleDelay: cfg.AutoSettleDelay,
		ctx:             ctx,
		cancel:          cancel,
		timers:          make(map[int64]*time.Timer),
	}, nil
}

// SeedApplication registers the configured client application
func (s *Service) SeedApplication(ctx context.Context, seed ApplicationSeed) (*Application, error) {
	if seed.APIKey == "" || seed.Password == "" {
		return nil, fmt.Errorf("%w: application api key and password are required", ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	app := &Application{
		Name:          seed.Name,
		APIKey:        seed.APIKey,
		Username:      seed.Username,
		PasswordHash:  string(hash),
		WebhookURL:    seed.WebhookURL,
		WebhookSecret: seed.WebhookSecret,
	}
	if err := s.store.SaveApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}

	slog.Info("Application registered", "name", app.Name, "webhook_url", app.WebhookURL)
	return app, nil
}

// Authenticate returns the application matching the API key and basic auth
// credentials, or nil when they do not match.
func (s *Service) Authenticate(ctx context.Context, apiKey, username, password string) (*Application, error) {
	if apiKey == "" {
		return nil, nil
	}

	app, err := s.store.FindApplicationByAPIKey(ctx, apiKey)
	if err != nil || app == nil {
		return nil, err
	}
	if app.Username != username {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(app.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return app, nil
}

func (s *Service) CreatePayment(ctx context.Context, app *Application, req *CreatePaymentRequest) (*Payment, error) {
	if !validation.ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidRequest, req.PaymentMethod)
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidRequest)
	}

	payment := &Payment{
		ApplicationID: app.ID,
		OrderID:       req.OrderID,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentPending,
		Amount:        req.Amount,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	slog.Info("Payment created", "payment_id", payment.ID, "order_id", payment.OrderID, "amount", payment.Amount.String())

	if s.autoSettle != "" {
		s.scheduleSettlement(app, payment.ID)
	}
	return payment, nil
}

func (s *Service) GetPayment(ctx context.Context, app *Application, id int64) (*Payment, error) {
	return s.store.GetPayment(ctx, app.ID, id)
}

// UpdateStatus simulates the processor outcome and notifies the application
func (s *Service) UpdateStatus(ctx context.Context, app *Application, id int64, status models.PaymentStatus) (*Payment, error) {
	if !validation.ValidPaymentStatus(status) {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalidRequest, status)
	}

	payment, err := s.store.UpdateStatus(ctx, app.ID, id, status)
	if err != nil {
		return nil, err
	}

	slog.Info("Payment status updated", "payment_id", payment.ID, "status", payment.PaymentStatus)
	s.deliver(app, payment)
	return payment, nil
}

func (s *Service) scheduleSettlement(app *Application, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.timers[id] = time.AfterFunc(s.autoSettleDelay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()

		payment, err := s.store.UpdateStatus(s.ctx, app.ID, id, s.autoSettle)
		if errors.Is(err, ErrInvalidTransition) {
			slog.Debug("Payment already settled, skipping auto settlement", "payment_id", id)
			return
		}
		if err != nil {
			slog.Error("Failed to auto settle payment", "payment_id", id, "error", err)
			return
		}

		slog.Info("Payment auto settled", "payment_id", id, "status", payment.PaymentStatus)
		s.deliver(app, payment)
	})
}

func (s *Service) deliver(app *Application, payment *Payment) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		slog.Warn("Gateway shutting down, webhook not sent", "payment_id", payment.ID)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if err := s.notifier.Notify(s.ctx, app, payment); err != nil {
			slog.Error("Failed to notify application", "payment_id", payment.ID, "error", err)
		}
	}()
}

// Close stops pending settlements and waits for running settlements and
// in-flight webhooks until ctx expires
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}
