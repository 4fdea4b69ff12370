package config

import (
	"time"

	"ticketnow/internal/mockpayment"
)

// MockPaymentConfig holds the configuration of the mock payment gateway service
type MockPaymentConfig struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	Gateway mockpayment.Config
}

// LoadMockPayment reads the mock gateway configuration from environment variables
func LoadMockPayment() *MockPaymentConfig {
	return &MockPaymentConfig{
		Port:      getEnv("MOCKPAY_PORT", "8090"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Gateway: mockpayment.Config{
			DSN: getEnv("MOCKPAY_DATABASE_DSN",
				"host=localhost port=5432 user=ticketnow password=ticketnow dbname=mockpayment sslmode=disable"),
			Application: mockpayment.ApplicationSeed{
				Name:       getEnv("MOCKPAY_APP_NAME", "ticketnow"),
				APIKey:     getEnv("MOCKPAY_APP_API_KEY", ""),
				Username:   getEnv("MOCKPAY_APP_USERNAME", "ticketnow"),
				Password:   getEnv("MOCKPAY_APP_PASSWORD", ""),
				WebhookURL: getEnv("MOCKPAY_APP_WEBHOOK_URL", "http://localhost:8080/orders/webhook/payments"),
				// shared with the API so it can verify X-Signature
				WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			},
			AutoSettleStatus: getEnv("MOCKPAY_AUTO_SETTLE_STATUS", ""),
			AutoSettleDelay:  getEnvAsDuration("MOCKPAY_AUTO_SETTLE_DELAY", 5*time.Second),
			WebhookRetries:   getEnvInt("MOCKPAY_WEBHOOK_RETRIES", 3),
			WebhookTimeout:   getEnvAsDuration("MOCKPAY_WEBHOOK_TIMEOUT", 5*time.Second),
		},
	}
}
