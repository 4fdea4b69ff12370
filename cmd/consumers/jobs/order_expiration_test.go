package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeExpirer struct {
	mu      sync.Mutex
	batches []int
	err     error
	calls   int
	limits  []int
}

func (f *fakeExpirer) ExpirePendingOrders(_ context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.limits = append(f.limits, limit)
	f.calls++
	if len(f.batches) == 0 {
		return 0, f.err
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOnceDrainsFullBatches(t *testing.T) {
	expirer := &fakeExpirer{batches: []int{expirationBatchSize, expirationBatchSize, 7}}
	job := NewOrderExpirationJob(expirer, time.Minute)

	total := job.RunOnce(context.Background())

	assert.Equal(t, 2*expirationBatchSize+7, total)
	assert.Equal(t, 3, expirer.calls)
	assert.Equal(t, []int{expirationBatchSize, expirationBatchSize, expirationBatchSize}, expirer.limits)
}

func TestRunOnceStopsOnError(t *testing.T) {
	expirer := &fakeExpirer{batches: []int{expirationBatchSize}, err: errors.New("db down")}
	job := NewOrderExpirationJob(expirer, time.Minute)

	assert.Equal(t, expirationBatchSize, job.RunOnce(context.Background()))
	assert.Equal(t, 2, expirer.calls)
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	expirer := &fakeExpirer{}
	job := NewOrderExpirationJob(expirer, time.Hour)

	job.Start(context.Background())
	assert.Eventually(t, func() bool { return expirer.callCount() >= 1 }, time.Second, 10*time.Millisecond)

	job.Stop()
	assert.Equal(t, 1, expirer.callCount())
}

func TestStartTicks(t *testing.T) {
	expirer := &fakeExpirer{}
	job := NewOrderExpirationJob(expirer, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	job.Start(ctx)
	assert.Eventually(t, func() bool { return expirer.callCount() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	job.Stop()
}
