package consumers

import (
	"context"
	"fmt"
	"log/slog"

	"ticketnow/internal/auth"
	"ticketnow/internal/clock"
	"ticketnow/internal/config"
	"ticketnow/internal/database"
	"ticketnow/internal/external"
	"ticketnow/internal/messaging"
	"ticketnow/internal/models"
	"ticketnow/internal/repository"
	"ticketnow/internal/search"
	"ticketnow/internal/service"
)

const queueGroup = "ticketnow-workers"

// ConsumerService runs the NATS subscriptions of the worker process and owns
// the connections the background jobs share.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	handlers *Handlers
	orders   *service.OrderService
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, err
	}

	repos := repository.NewRepositories(db)

	deps := service.Dependencies{
		Tx:             db,
		Events:         repos.Events,
		Orders:         repos.Orders,
		Users:          repos.Users,
		Tokens:         auth.NewTokenManager(cfg.Auth),
		Clock:          clock.NewSystem(),
		Publisher:      natsClient,
		PaymentTimeout: cfg.Orders.PaymentTimeout,
	}
	if cfg.Payment.Enabled {
		deps.Payments = external.NewPaymentClient(cfg.Payment)
	}

	cs := &ConsumerService{
		db:     db,
		nats:   natsClient,
		orders: service.NewOrderService(deps),
	}

	if cfg.Elasticsearch.Enabled {
		es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			cs.Shutdown(context.Background())
			return nil, err
		}
		if err := es.EnsureIndex(context.Background()); err != nil {
			cs.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to ensure search index: %w", err)
		}
		cs.handlers = NewHandlers(repos.Events, es)
	}

	return cs, nil
}

// Orders exposes the order service for the expiration job
func (cs *ConsumerService) Orders() *service.OrderService {
	return cs.orders
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if cs.handlers != nil {
		for _, subject := range models.EventSubjects {
			if _, err := cs.nats.SubscribeQueue(subject, queueGroup, cs.handlers.HandleEventChanged); err != nil {
				return err
			}
		}
	} else {
		slog.Warn("Elasticsearch disabled, event index consumers not started")
	}

	logOnly := NewHandlers(nil, nil)
	for _, subject := range []string{models.SubjectOrderPlaced, models.SubjectOrderConfirmed, models.SubjectOrderCancelled} {
		if _, err := cs.nats.SubscribeQueue(subject, queueGroup, logOnly.HandleOrderMessage); err != nil {
			return err
		}
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
