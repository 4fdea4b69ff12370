package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ticketnow/internal/auth"
	"ticketnow/internal/cache"
	"ticketnow/internal/database"
	"ticketnow/internal/external"
	"ticketnow/internal/messaging"
)

// Config holds the API configuration
type Config struct {
	Port            string
	GinMode         string
	LogLevel        string
	LogFormat       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	Database      database.Config
	NATS          messaging.Config
	Payment       external.PaymentConfig
	Auth          auth.Config
	Cache         cache.Config
	Elasticsearch ElasticsearchConfig
	Admin         AdminConfig
	Orders        OrdersConfig
}

// AdminConfig describes the administrator account seeded at startup.
// Seeding is skipped when Password is empty.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

type OrdersConfig struct {
	// PaymentTimeout is how long an order may stay PENDING before the worker cancels it
	PaymentTimeout     time.Duration
	ExpirationInterval time.Duration
	// WebhookSecret enables X-Signature verification on the payment webhook when set
	WebhookSecret string
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "ticketnow"),
			Password:           getEnv("DB_PASSWORD", "ticketnow"),
			DBName:             getEnv("DB_NAME", "ticketnow"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			Enabled:   getEnvAsBool("NATS_ENABLED", false),
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "ticketnow"),
			ClientID:  getEnv("NATS_CLIENT_ID", "ticketnow-api"),
		},

		Payment: external.PaymentConfig{
			Enabled:  getEnvAsBool("PAYMENT_ENABLED", true),
			BaseURL:  getEnv("PAYMENT_GATEWAY_URL", "http://localhost:8090"),
			APIKey:   getEnv("PAYMENT_API_KEY", ""),
			Username: getEnv("PAYMENT_USERNAME", ""),
			Password: getEnv("PAYMENT_PASSWORD", ""),
			Timeout:  getEnvAsDuration("PAYMENT_TIMEOUT", 10*time.Second),
		},

		Auth: auth.Config{
			Secret:          getEnv("JWT_SECRET", "change-me"),
			Issuer:          getEnv("JWT_ISSUER", "ticketnow"),
			Audience:        getEnv("JWT_AUDIENCE", "ticketnow-api"),
			AccessTokenTTL:  getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", time.Hour),
			RefreshTokenTTL: getEnvAsDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},

		Cache: cache.Config{
			Enabled:   getEnvAsBool("REDIS_ENABLED", false),
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			EventsTTL: getEnvAsDuration("REDIS_EVENTS_TTL", 30*time.Second),
		},

		Elasticsearch: LoadElasticsearchConfig(),

		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Email:    getEnv("ADMIN_EMAIL", "admin@ticketnow.local"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},

		Orders: OrdersConfig{
			PaymentTimeout:     getEnvAsDuration("ORDER_PAYMENT_TIMEOUT", 30*time.Minute),
			ExpirationInterval: getEnvAsDuration("ORDER_EXPIRATION_INTERVAL", time.Minute),
			WebhookSecret:      getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
