package database

import (
	"context"
	"time"

	"ticketnow/internal/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	healthPingTimeout = 3 * time.Second
)

// PoolStats is the slice of sql.DBStats reported on /health and as gauges
type PoolStats struct {
	MaxOpen    int   `json:"max_open"`
	Open       int   `json:"open"`
	InUse      int   `json:"in_use"`
	Idle       int   `json:"idle"`
	WaitCount  int64 `json:"wait_count"`
	WaitMillis int64 `json:"wait_ms"`
}

// Health is the result of one database ping
type Health struct {
	Status        string    `json:"status"`
	LatencyMillis int64     `json:"latency_ms"`
	Error         string    `json:"error,omitempty"`
	Pool          PoolStats `json:"pool"`
	CheckedAt     time.Time `json:"checked_at"`
}

func (h Health) Healthy() bool {
	return h.Status == StatusHealthy
}

func (db *DB) Pool() PoolStats {
	s := db.Stats()
	return PoolStats{
		MaxOpen:    s.MaxOpenConnections,
		Open:       s.OpenConnections,
		InUse:      s.InUse,
		Idle:       s.Idle,
		WaitCount:  s.WaitCount,
		WaitMillis: s.WaitDuration.Milliseconds(),
	}
}

// HealthCheck pings the database, bounded by a short timeout of its own
func (db *DB) HealthCheck(ctx context.Context) Health {
	checkedAt := time.Now()

	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	err := db.PingContext(pingCtx)

	health := Health{
		Status:        StatusHealthy,
		LatencyMillis: time.Since(checkedAt).Milliseconds(),
		Pool:          db.Pool(),
		CheckedAt:     checkedAt.UTC(),
	}
	if err != nil {
		health.Status = StatusUnhealthy
		health.Error = err.Error()
		logger.WithContext(ctx).Error("Database ping failed",
			"error", err,
			"latency_ms", health.LatencyMillis,
			"open_connections", health.Pool.Open)
	}
	return health
}
