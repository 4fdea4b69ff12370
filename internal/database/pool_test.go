package database_test

import (
	"context"
	"testing"

	"ticketnow/internal/database"
	"ticketnow/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck(t *testing.T) {
	db := testutil.NewTestDB(t)

	health := db.HealthCheck(context.Background())
	assert.True(t, health.Healthy())
	assert.Equal(t, database.StatusHealthy, health.Status)
	assert.Empty(t, health.Error)
	assert.Equal(t, 16, health.Pool.MaxOpen)
	assert.False(t, health.CheckedAt.IsZero())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	down := db.HealthCheck(ctx)
	assert.False(t, down.Healthy())
	assert.Equal(t, database.StatusUnhealthy, down.Status)
	assert.NotEmpty(t, down.Error)
}
