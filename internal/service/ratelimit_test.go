package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/config"
	"github.com/apnisec/backend/internal/model"
)

type fakeCounterStore struct {
	mu       sync.Mutex
	counters map[string]*model.RateLimitCounter
	failAll  bool
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counters: make(map[string]*model.RateLimitCounter)}
}

var errStoreDown = errors.New("store down")

func (f *fakeCounterStore) GetRateLimit(_ context.Context, identifier string) (*model.RateLimitCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errStoreDown
	}
	if counter, ok := f.counters[identifier]; ok {
		copied := *counter
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCounterStore) ResetRateLimit(_ context.Context, identifier string, windowStart time.Time, userID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errStoreDown
	}
	f.counters[identifier] = &model.RateLimitCounter{
		Identifier:  identifier,
		Count:       1,
		WindowStart: windowStart,
		UserID:      userID,
	}
	return nil
}

func (f *fakeCounterStore) IncrementRateLimit(_ context.Context, identifier string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, errStoreDown
	}
	counter, ok := f.counters[identifier]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	counter.Count++
	return counter.Count, nil
}

func (f *fakeCounterStore) DeleteRateLimit(_ context.Context, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counters, identifier)
	return nil
}

func (f *fakeCounterStore) PurgeExpiredRateLimits(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	for identifier, counter := range f.counters {
		if counter.WindowStart.Before(cutoff) {
			delete(f.counters, identifier)
			purged++
		}
	}
	return purged, nil
}

func newTestLimiter(store CounterStore, max int, window time.Duration) *RateLimiter {
	return NewRateLimiter(store, config.RateLimitConfig{Window: window, MaxRequests: max}, zap.NewNop())
}

func TestFixedWindowExhaustion(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := limiter.CheckLimit(ctx, "ip:1.2.3.4", nil)
		require.True(t, result.Allowed, "request %d within the window must pass", i+1)
		require.Equal(t, 3, result.Limit)
		require.Equal(t, 3-(i+1), result.Remaining)
	}

	rejected := limiter.CheckLimit(ctx, "ip:1.2.3.4", nil)
	require.False(t, rejected.Allowed)
	require.Equal(t, 0, rejected.Remaining)
	require.Greater(t, rejected.RetryAfter, 0)

	// Rejection must not count the request; the counter stays at the limit.
	require.Equal(t, 3, store.counters["ip:1.2.3.4"].Count)
}

func TestWindowReset(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, 2, time.Minute)
	ctx := context.Background()

	now := time.Now()
	limiter.now = func() time.Time { return now }

	limiter.CheckLimit(ctx, "ip:1.2.3.4", nil)
	limiter.CheckLimit(ctx, "ip:1.2.3.4", nil)
	require.False(t, limiter.CheckLimit(ctx, "ip:1.2.3.4", nil).Allowed)

	limiter.now = func() time.Time { return now.Add(time.Minute + time.Second) }

	result := limiter.CheckLimit(ctx, "ip:1.2.3.4", nil)
	require.True(t, result.Allowed, "a new window must start once the old one ends")
	require.Equal(t, 1, result.Remaining)
}

func TestFailOpenOnStoreOutage(t *testing.T) {
	store := newFakeCounterStore()
	store.failAll = true
	limiter := newTestLimiter(store, 1, time.Minute)

	result := limiter.CheckLimit(context.Background(), "ip:1.2.3.4", nil)
	require.True(t, result.Allowed, "storage outage must not block traffic")
	require.Equal(t, 1, result.Remaining)
}

func TestResetLimitClearsCounter(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, 2, time.Minute)
	ctx := context.Background()

	limiter.CheckLimit(ctx, "user:u1", nil)
	limiter.CheckLimit(ctx, "user:u1", nil)
	require.False(t, limiter.CheckLimit(ctx, "user:u1", nil).Allowed)

	limiter.ResetLimit(ctx, "user:u1")

	result := limiter.CheckLimit(ctx, "user:u1", nil)
	require.True(t, result.Allowed)
	require.Equal(t, 1, result.Remaining)

	// Resetting an identity that has no counter is fine.
	limiter.ResetLimit(ctx, "user:never-seen")
}

func TestCleanupPurgesExpiredWindows(t *testing.T) {
	store := newFakeCounterStore()
	limiter := newTestLimiter(store, 5, time.Minute)
	ctx := context.Background()

	now := time.Now()
	limiter.now = func() time.Time { return now }
	limiter.CheckLimit(ctx, "ip:old", nil)

	limiter.now = func() time.Time { return now.Add(2 * time.Minute) }
	limiter.CheckLimit(ctx, "ip:fresh", nil)
	limiter.Cleanup(ctx)

	require.NotContains(t, store.counters, "ip:old")
	require.Contains(t, store.counters, "ip:fresh")
}
