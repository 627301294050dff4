package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/mquintana/divscope/internal/models"
	"github.com/mquintana/divscope/internal/repositories"
)

// CacheStore defines the interface for raw cache row operations
type CacheStore interface {
	Get(ctx context.Context, key string) (*repositories.CacheEntry, error)
	Set(ctx context.Context, entry *repositories.CacheEntry) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// CacheService implements the TTL interpretation on top of the raw row
// store. Freshness is decided at read time: an entry older than its TTL is
// a miss even if the cleanup job has not swept it yet. A zero or negative
// TTL stores the entry without expiry.
type CacheService struct {
	store      CacheStore
	logger     *slog.Logger
	failClosed bool
	now        func() time.Time
}

func NewCacheService(store CacheStore, logger *slog.Logger, failClosed bool) *CacheService {
	return &CacheService{
		store:      store,
		logger:     logger,
		failClosed: failClosed,
		now:        time.Now,
	}
}

// Get returns the cached value for key if present and fresh. Storage errors
// degrade to a miss unless the service is configured to fail closed.
func (s *CacheService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, false, nil
		}
		if s.failClosed {
			return nil, false, err
		}
		s.logger.Warn("cache read failed, treating as miss",
			slog.String("key", key), slog.Any("error", err))
		return nil, false, nil
	}

	if s.expired(entry) {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// GetJSON unmarshals a fresh cached value into out. A value that no longer
// unmarshals is treated as a miss, not an error.
func (s *CacheService) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("cache entry is malformed, treating as miss",
			slog.String("key", key), slog.Any("error", err))
		return false, nil
	}
	return true, nil
}

// Set stores value under key with the given TTL, overwriting any previous
// entry. ttl <= 0 means the entry never expires.
func (s *CacheService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := &repositories.CacheEntry{
		Key:       key,
		Value:     value,
		CreatedAt: s.now().Unix(),
	}
	if ttl > 0 {
		seconds := int64(ttl.Seconds())
		entry.TTLSeconds = &seconds
	}
	return s.store.Set(ctx, entry)
}

// SetJSON marshals value and stores it under key.
func (s *CacheService) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, ttl)
}

// ClearAll drops every cache entry.
func (s *CacheService) ClearAll(ctx context.Context) error {
	return s.store.DeleteAll(ctx)
}

// Count reports the number of stored rows, fresh or not.
func (s *CacheService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *CacheService) expired(entry *repositories.CacheEntry) bool {
	if entry.TTLSeconds == nil {
		return false
	}
	age := s.now().Unix() - entry.CreatedAt
	return age >= *entry.TTLSeconds
}
