package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mquintana/divscope/internal/models"
	"github.com/mquintana/divscope/internal/repositories"
	pkgauth "github.com/mquintana/divscope/pkg/auth"
	pkglogger "github.com/mquintana/divscope/pkg/logger"
)

// MockCredentialStore implements CredentialStore for testing
type MockCredentialStore struct {
	GetByEmailFunc func(email string) (*models.User, error)
	UpsertFunc     func(user *models.User) error
	HasAnyFunc     func() (bool, error)
	ListFunc       func() ([]*models.User, error)
}

func (m *MockCredentialStore) GetByEmail(email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(email)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialStore) Upsert(user *models.User) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(user)
	}
	return nil
}

func (m *MockCredentialStore) HasAny() (bool, error) {
	if m.HasAnyFunc != nil {
		return m.HasAnyFunc()
	}
	return false, nil
}

func (m *MockCredentialStore) List() ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	return []*models.User{}, nil
}

// MockUsageStore implements UsageStore for testing
type MockUsageStore struct {
	GetCountFunc  func(ctx context.Context, userID, day string) (int, error)
	IncrementFunc func(ctx context.Context, userID, day string, cost int) error
}

func (m *MockUsageStore) GetCount(ctx context.Context, userID, day string) (int, error) {
	if m.GetCountFunc != nil {
		return m.GetCountFunc(ctx, userID, day)
	}
	return 0, nil
}

func (m *MockUsageStore) Increment(ctx context.Context, userID, day string, cost int) error {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, userID, day, cost)
	}
	return nil
}

// MemUsageStore is an in-memory counter store for behavior tests.
type MemUsageStore struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemUsageStore() *MemUsageStore {
	return &MemUsageStore{counts: make(map[string]int)}
}

func (m *MemUsageStore) GetCount(ctx context.Context, userID, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[userID+"|"+day], nil
}

func (m *MemUsageStore) Increment(ctx context.Context, userID, day string, cost int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[userID+"|"+day] += cost
	return nil
}

// MemCacheStore is an in-memory row store for behavior tests.
type MemCacheStore struct {
	mu      sync.Mutex
	entries map[string]repositories.CacheEntry
}

func NewMemCacheStore() *MemCacheStore {
	return &MemCacheStore{entries: make(map[string]repositories.CacheEntry)}
}

func (m *MemCacheStore) Get(ctx context.Context, key string) (*repositories.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &entry, nil
}

func (m *MemCacheStore) Set(ctx context.Context, entry *repositories.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = *entry
	return nil
}

func (m *MemCacheStore) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]repositories.CacheEntry)
	return nil
}

func (m *MemCacheStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

// MockMarketClient implements marketdata.Client for testing
type MockMarketClient struct {
	FetchQuoteFunc     func(ctx context.Context, symbol string) (*models.Quote, error)
	FetchProfileFunc   func(ctx context.Context, symbol string) (*models.Profile, error)
	FetchHistoryFunc   func(ctx context.Context, symbol string, years int) ([]models.PricePoint, error)
	FetchDividendsFunc func(ctx context.Context, symbol string, years int) ([]models.DividendEvent, error)
	FetchCashflowFunc  func(ctx context.Context, symbol string) ([]models.CashflowYear, error)
}

func (m *MockMarketClient) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if m.FetchQuoteFunc != nil {
		return m.FetchQuoteFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketClient) FetchProfile(ctx context.Context, symbol string) (*models.Profile, error) {
	if m.FetchProfileFunc != nil {
		return m.FetchProfileFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketClient) FetchHistory(ctx context.Context, symbol string, years int) ([]models.PricePoint, error) {
	if m.FetchHistoryFunc != nil {
		return m.FetchHistoryFunc(ctx, symbol, years)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketClient) FetchDividends(ctx context.Context, symbol string, years int) ([]models.DividendEvent, error) {
	if m.FetchDividendsFunc != nil {
		return m.FetchDividendsFunc(ctx, symbol, years)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketClient) FetchCashflow(ctx context.Context, symbol string) ([]models.CashflowYear, error) {
	if m.FetchCashflowFunc != nil {
		return m.FetchCashflowFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

// NewTestUser creates a credential record with a real derived hash.
func NewTestUser(email, password, role string) *models.User {
	ph, err := pkgauth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return &models.User{
		Email:      models.NormalizeEmail(email),
		Role:       role,
		CreatedAt:  time.Now().UTC(),
		Algorithm:  ph.Algorithm,
		Iterations: ph.Iterations,
		SaltB64:    ph.SaltB64,
		HashB64:    ph.HashB64,
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}
