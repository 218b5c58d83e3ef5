package db

import (
	"context"
	"time"

	"github.com/apnisec/backend/internal/model"
)

func (db *Postgres) GetRateLimit(ctx context.Context, identifier string) (*model.RateLimitCounter, error) {
	query := `
		SELECT identifier, count, window_start, user_id
		FROM rate_limits
		WHERE identifier = $1
	`
	var counter model.RateLimitCounter
	err := db.Pool.QueryRow(ctx, query, identifier).Scan(
		&counter.Identifier,
		&counter.Count,
		&counter.WindowStart,
		&counter.UserID,
	)
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// ResetRateLimit starts a fresh window with count=1, creating the row when the
// identifier has not been seen before.
func (db *Postgres) ResetRateLimit(ctx context.Context, identifier string, windowStart time.Time, userID *string) error {
	query := `
		INSERT INTO rate_limits (identifier, count, window_start, user_id)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (identifier)
		DO UPDATE SET count = 1, window_start = $2, user_id = $3
	`
	_, err := db.Pool.Exec(ctx, query, identifier, windowStart, userID)
	return err
}

func (db *Postgres) IncrementRateLimit(ctx context.Context, identifier string) (int, error) {
	query := `
		UPDATE rate_limits
		SET count = count + 1
		WHERE identifier = $1
		RETURNING count
	`
	var count int
	if err := db.Pool.QueryRow(ctx, query, identifier).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (db *Postgres) DeleteRateLimit(ctx context.Context, identifier string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM rate_limits WHERE identifier = $1`, identifier)
	return err
}

// PurgeExpiredRateLimits removes counters whose window ended before cutoff.
func (db *Postgres) PurgeExpiredRateLimits(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
