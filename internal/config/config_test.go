package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.False(t, cfg.NATS.Enabled)
	assert.False(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Payment.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Orders.PaymentTimeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("ORDER_PAYMENT_TIMEOUT", "2h")
	t.Setenv("REDIS_ENABLED", "1")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.NATS.Enabled)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 2*time.Hour, cfg.Orders.PaymentTimeout)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("NATS_ENABLED", "maybe")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.NATS.Enabled)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadMockPayment(t *testing.T) {
	t.Setenv("MOCKPAY_AUTO_SETTLE_STATUS", "PAID")
	t.Setenv("MOCKPAY_APP_API_KEY", "key-123")

	cfg := LoadMockPayment()

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "PAID", cfg.Gateway.AutoSettleStatus)
	assert.Equal(t, "key-123", cfg.Gateway.Application.APIKey)
	assert.Equal(t, 3, cfg.Gateway.WebhookRetries)
}
