package repositories_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/mquintana/divscope/internal/config"
	"github.com/mquintana/divscope/internal/database"
	"github.com/mquintana/divscope/internal/models"
	"github.com/mquintana/divscope/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.DataConfig{
		Dir:     dir,
		CacheDB: filepath.Join(dir, "test.sqlite3"),
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	db, err := database.NewConnection(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestCacheRepo_SetGet(t *testing.T) {
	repo := repositories.NewCacheRepository(newTestDB(t))
	ctx := context.Background()

	ttl := int64(300)
	entry := &repositories.CacheEntry{
		Key:        "yf:quote:KO",
		Value:      []byte(`{"price":62.5}`),
		CreatedAt:  time.Now().Unix(),
		TTLSeconds: &ttl,
	}
	require.NoError(t, repo.Set(ctx, entry))

	got, err := repo.Get(ctx, "yf:quote:KO")
	require.NoError(t, err)
	assert.Equal(t, entry.Value, got.Value)
	require.NotNil(t, got.TTLSeconds)
	assert.Equal(t, int64(300), *got.TTLSeconds)
}

func TestCacheRepo_GetMissing(t *testing.T) {
	repo := repositories.NewCacheRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCacheRepo_SetOverwrites(t *testing.T) {
	repo := repositories.NewCacheRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, &repositories.CacheEntry{
		Key: "k", Value: []byte(`old`), CreatedAt: 100,
	}))
	require.NoError(t, repo.Set(ctx, &repositories.CacheEntry{
		Key: "k", Value: []byte(`new`), CreatedAt: 200,
	}))

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`new`), got.Value)
	assert.Equal(t, int64(200), got.CreatedAt)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCacheRepo_DeleteExpired(t *testing.T) {
	repo := repositories.NewCacheRepository(newTestDB(t))
	ctx := context.Background()

	ttl := int64(60)
	require.NoError(t, repo.Set(ctx, &repositories.CacheEntry{
		Key: "expired", Value: []byte(`1`), CreatedAt: 100, TTLSeconds: &ttl,
	}))
	require.NoError(t, repo.Set(ctx, &repositories.CacheEntry{
		Key: "fresh", Value: []byte(`2`), CreatedAt: 200, TTLSeconds: &ttl,
	}))
	require.NoError(t, repo.Set(ctx, &repositories.CacheEntry{
		Key: "forever", Value: []byte(`3`), CreatedAt: 100,
	}))

	deleted, err := repo.DeleteExpired(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, "expired")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = repo.Get(ctx, "fresh")
	assert.NoError(t, err)
	_, err = repo.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestCacheRepo_DeleteAll(t *testing.T) {
	repo := repositories.NewCacheRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, &repositories.CacheEntry{Key: "a", Value: []byte(`1`), CreatedAt: 1}))
	require.NoError(t, repo.Set(ctx, &repositories.CacheEntry{Key: "b", Value: []byte(`2`), CreatedAt: 1}))

	require.NoError(t, repo.DeleteAll(ctx))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUsageRepo_MissingRowReadsZero(t *testing.T) {
	repo := repositories.NewUsageRepository(newTestDB(t))

	count, err := repo.GetCount(context.Background(), "alice@example.com", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUsageRepo_IncrementAccumulates(t *testing.T) {
	repo := repositories.NewUsageRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Increment(ctx, "alice@example.com", "2026-03-14", 1))
	}

	count, err := repo.GetCount(ctx, "alice@example.com", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// A different day and a different user start at zero.
	count, err = repo.GetCount(ctx, "alice@example.com", "2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = repo.GetCount(ctx, "bob@example.com", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUsageRepo_DeleteBefore(t *testing.T) {
	repo := repositories.NewUsageRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Increment(ctx, "alice@example.com", "2026-01-01", 3))
	require.NoError(t, repo.Increment(ctx, "alice@example.com", "2026-03-14", 1))

	deleted, err := repo.DeleteBefore(ctx, "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := repo.GetCount(ctx, "alice@example.com", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
