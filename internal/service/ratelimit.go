package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/config"
	"github.com/apnisec/backend/internal/model"
)

// CounterStore persists fixed-window request counters.
type CounterStore interface {
	GetRateLimit(ctx context.Context, identifier string) (*model.RateLimitCounter, error)
	ResetRateLimit(ctx context.Context, identifier string, windowStart time.Time, userID *string) error
	IncrementRateLimit(ctx context.Context, identifier string) (int, error)
	DeleteRateLimit(ctx context.Context, identifier string) error
	PurgeExpiredRateLimits(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimiter implements a fixed-window counter per caller identity. Storage
// failures fail open: a counter outage must never block real traffic.
type RateLimiter struct {
	store  CounterStore
	window time.Duration
	max    int
	logger *zap.Logger
	now    func() time.Time
}

func NewRateLimiter(store CounterStore, cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		store:  store,
		window: cfg.Window,
		max:    cfg.MaxRequests,
		logger: logger,
		now:    time.Now,
	}
}

func (r *RateLimiter) Max() int { return r.max }

func (r *RateLimiter) CheckLimit(ctx context.Context, identifier string, userID *string) model.RateLimitResult {
	now := r.now()

	counter, err := r.store.GetRateLimit(ctx, identifier)
	if err != nil && !isNoRows(err) {
		return r.failOpen(identifier, now, err)
	}

	// First observation, or the previous window has ended: start a fresh
	// window with this request counted.
	if counter == nil || err != nil || !now.Before(counter.WindowStart.Add(r.window)) {
		if err := r.store.ResetRateLimit(ctx, identifier, now, userID); err != nil {
			return r.failOpen(identifier, now, err)
		}
		return model.RateLimitResult{
			Allowed:   true,
			Limit:     r.max,
			Remaining: r.max - 1,
			ResetTime: now.Add(r.window).UnixMilli(),
		}
	}

	resetTime := counter.WindowStart.Add(r.window)

	// At or over the limit: reject without counting the request again.
	if counter.Count >= r.max {
		retryAfter := int((resetTime.Sub(now) + time.Second - 1) / time.Second)
		if retryAfter < 1 {
			retryAfter = 1
		}
		return model.RateLimitResult{
			Allowed:    false,
			Limit:      r.max,
			Remaining:  0,
			ResetTime:  resetTime.UnixMilli(),
			RetryAfter: retryAfter,
		}
	}

	count, err := r.store.IncrementRateLimit(ctx, identifier)
	if err != nil {
		return r.failOpen(identifier, now, err)
	}

	remaining := r.max - count
	if remaining < 0 {
		remaining = 0
	}
	return model.RateLimitResult{
		Allowed:   true,
		Limit:     r.max,
		Remaining: remaining,
		ResetTime: resetTime.UnixMilli(),
	}
}

// ResetLimit clears a counter immediately. A missing record is not an error.
func (r *RateLimiter) ResetLimit(ctx context.Context, identifier string) {
	if err := r.store.DeleteRateLimit(ctx, identifier); err != nil && !isNoRows(err) {
		r.logger.Warn("failed to reset rate limit", zap.String("identifier", identifier), zap.Error(err))
	}
}

// Cleanup purges counters whose window has fully expired. Pure hygiene; it
// has no correctness dependency and may run on any schedule.
func (r *RateLimiter) Cleanup(ctx context.Context) {
	cutoff := r.now().Add(-r.window)
	purged, err := r.store.PurgeExpiredRateLimits(ctx, cutoff)
	if err != nil {
		r.logger.Warn("rate limit cleanup failed", zap.Error(err))
		return
	}
	if purged > 0 {
		r.logger.Info("purged expired rate limit counters", zap.Int64("count", purged))
	}
}

func (r *RateLimiter) failOpen(identifier string, now time.Time, err error) model.RateLimitResult {
	r.logger.Warn("rate limit check failed, allowing request",
		zap.String("identifier", identifier), zap.Error(err))
	return model.RateLimitResult{
		Allowed:   true,
		Limit:     r.max,
		Remaining: r.max,
		ResetTime: now.Add(r.window).UnixMilli(),
	}
}
