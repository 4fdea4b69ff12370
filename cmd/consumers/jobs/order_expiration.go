package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const expirationBatchSize = 100

// OrderExpirer cancels orders whose payment never arrived
type OrderExpirer interface {
	ExpirePendingOrders(ctx context.Context, limit int) (int, error)
}

// OrderExpirationJob periodically gives the tickets of unpaid orders back
type OrderExpirationJob struct {
	orders   OrderExpirer
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewOrderExpirationJob(orders OrderExpirer, interval time.Duration) *OrderExpirationJob {
	if interval <= 0 {
		interval = time.Minute
	}

	return &OrderExpirationJob{
		orders:   orders,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs a first pass immediately and then one per interval until Stop
// is called or ctx is cancelled.
func (j *OrderExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting order expiration job", "check_interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		j.RunOnce(ctx)
		for {
			select {
			case <-j.ticker.C:
				j.RunOnce(ctx)
			case <-ctx.Done():
				slog.Info("Order expiration job stopped")
				return
			case <-j.done:
				slog.Info("Order expiration job stopped")
				return
			}
		}
	}()
}

// Stop halts the ticker and waits for an in-flight pass to finish
func (j *OrderExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
	j.wg.Wait()
}

// RunOnce expires batches until a batch comes back short
func (j *OrderExpirationJob) RunOnce(ctx context.Context) int {
	total := 0
	for {
		expired, err := j.orders.ExpirePendingOrders(ctx, expirationBatchSize)
		total += expired
		if err != nil {
			slog.Error("Failed to expire pending orders", "error", err, "expired", total)
			return total
		}
		if expired < expirationBatchSize {
			break
		}
	}

	if total > 0 {
		slog.Info("Expired pending orders", "count", total)
	} else {
		slog.Debug("No pending orders to expire")
	}
	return total
}
