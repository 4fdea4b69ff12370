package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ticketnow/internal/auth"
	"ticketnow/internal/cache"
	"ticketnow/internal/clock"
	"ticketnow/internal/config"
	"ticketnow/internal/database"
	"ticketnow/internal/external"
	"ticketnow/internal/handlers"
	"ticketnow/internal/logger"
	"ticketnow/internal/messaging"
	"ticketnow/internal/metrics"
	"ticketnow/internal/middleware"
	"ticketnow/internal/repository"
	"ticketnow/internal/search"
	"ticketnow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const poolStatsInterval = 15 * time.Second

// Server is the TicketNow HTTP API with its connections
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	redis    *redis.Client
	services *service.Services
	stop     context.CancelFunc
}

// NewServer connects the backing services and builds the router. NATS,
// Redis, Elasticsearch and the payment gateway are optional; a disabled or
// unreachable one is left out and the API keeps working without it.
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	if err := db.RunMigrations(ctx); err != nil {
		stop()
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repos := repository.NewRepositories(db)
	tokens := auth.NewTokenManager(cfg.Auth)

	deps := service.Dependencies{
		Tx:             db,
		Events:         repos.Events,
		Orders:         repos.Orders,
		Users:          repos.Users,
		Tokens:         tokens,
		Clock:          clock.NewSystem(),
		PaymentTimeout: cfg.Orders.PaymentTimeout,
	}

	server := &Server{config: cfg, db: db, stop: stop}

	if cfg.NATS.Enabled {
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			log.Warn("NATS unavailable, domain events disabled", "error", err)
		} else {
			server.nats = natsClient
			deps.Publisher = natsClient
		}
	}

	if cfg.Cache.Enabled {
		rdb, err := cache.NewRedisClient(cfg.Cache)
		if err != nil {
			log.Warn("Redis unavailable, event listing cache disabled", "error", err)
		} else {
			server.redis = rdb
			deps.Cache = cache.NewEventCache(rdb, cfg.Cache.EventsTTL)
		}
	}

	if cfg.Elasticsearch.Enabled {
		es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			log.Warn("Elasticsearch client not created, search falls back to the database", "error", err)
		} else {
			if err := es.EnsureIndex(ctx); err != nil {
				log.Warn("Failed to ensure search index", "error", err)
			}
			deps.Searcher = es
		}
	}

	if cfg.Payment.Enabled {
		deps.Payments = external.NewPaymentClient(cfg.Payment)
	}

	server.services = service.NewServices(deps)

	if cfg.Admin.Password != "" {
		if err := server.services.Auth.SeedAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			server.Cleanup()
			return nil, fmt.Errorf("failed to seed admin user: %w", err)
		}
	}

	go metrics.CollectPoolStats(ctx, db, poolStatsInterval)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.NewHandlers(server.services, db, cfg.Orders.WebhookSecret).RegisterRoutes(router, tokens)

	server.router = router
	return server, nil
}

// GetRouter returns the router for http.Server and tests
func (s *Server) GetRouter() http.Handler {
	return s.router
}

// Cleanup closes the connections
func (s *Server) Cleanup() error {
	log := logger.Get()
	if s.stop != nil {
		s.stop()
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error("Error closing Redis connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
