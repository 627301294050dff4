package repositories

import (
	"context"
	"fmt"

	"github.com/mquintana/divscope/internal/database"
)

// CacheEntry is a raw row of the cache_entries table. TTL interpretation
// lives in the cache service; the repository only moves rows.
type CacheEntry struct {
	Key        string
	Value      []byte
	CreatedAt  int64  // unix seconds
	TTLSeconds *int64 // nil means no expiry
}

type CacheRepository struct {
	db *database.DB
}

func NewCacheRepository(db *database.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

func (r *CacheRepository) Get(ctx context.Context, key string) (*CacheEntry, error) {
	query := `SELECT key, value, created_at, ttl_seconds FROM cache_entries WHERE key = ?`

	var entry CacheEntry
	err := r.db.SQL.QueryRowContext(ctx, query, key).Scan(
		&entry.Key, &entry.Value, &entry.CreatedAt, &entry.TTLSeconds,
	)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}

	return &entry, nil
}

// Set overwrites any existing entry for the key unconditionally.
func (r *CacheRepository) Set(ctx context.Context, entry *CacheEntry) error {
	query := `
		INSERT INTO cache_entries (key, value, created_at, ttl_seconds)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			created_at = excluded.created_at,
			ttl_seconds = excluded.ttl_seconds
	`

	if _, err := r.db.SQL.ExecContext(ctx, query, entry.Key, entry.Value, entry.CreatedAt, entry.TTLSeconds); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// DeleteAll empties the cache. Irreversible.
func (r *CacheRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.SQL.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// DeleteExpired removes entries whose TTL has elapsed as of now (unix
// seconds). Entries with NULL ttl_seconds never expire.
func (r *CacheRepository) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	query := `DELETE FROM cache_entries WHERE ttl_seconds IS NOT NULL AND created_at + ttl_seconds <= ?`

	result, err := r.db.SQL.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	return result.RowsAffected()
}

// Count returns the number of stored entries, expired or not.
func (r *CacheRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}
