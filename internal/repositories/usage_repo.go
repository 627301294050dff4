package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mquintana/divscope/internal/database"
)

// UsageRepository tracks per-user, per-day counters for metered actions.
// A missing row reads as zero; the day-boundary reset is implicit in the
// (user_id, day) key.
type UsageRepository struct {
	db *database.DB
}

func NewUsageRepository(db *database.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) GetCount(ctx context.Context, userID, day string) (int, error) {
	query := `SELECT count FROM search_usage WHERE user_id = ? AND day = ?`

	var count int
	err := r.db.SQL.QueryRowContext(ctx, query, userID, day).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage counter: %w", err)
	}
	return count, nil
}

func (r *UsageRepository) Increment(ctx context.Context, userID, day string, cost int) error {
	query := `
		INSERT INTO search_usage (user_id, day, count)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET count = count + excluded.count
	`

	if _, err := r.db.SQL.ExecContext(ctx, query, userID, day, cost); err != nil {
		return fmt.Errorf("failed to increment usage counter: %w", err)
	}
	return nil
}

// DeleteBefore drops counters for days lexicographically before the given
// day (days are YYYY-MM-DD, so string order is date order).
func (r *UsageRepository) DeleteBefore(ctx context.Context, day string) (int64, error) {
	result, err := r.db.SQL.ExecContext(ctx, `DELETE FROM search_usage WHERE day < ?`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale usage counters: %w", err)
	}
	return result.RowsAffected()
}
