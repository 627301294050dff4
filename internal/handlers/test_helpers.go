package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/mquintana/divscope/internal/auth"
	"github.com/mquintana/divscope/internal/models"
	"github.com/mquintana/divscope/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc          func(email, password string) (*services.AuthResponse, error)
	SetupFunc          func(email, password string) (*services.AuthResponse, error)
	SetupAvailableFunc func() (bool, error)
	GetUserFunc        func(email string) (*models.User, error)
}

func (m *MockAuthService) Login(email, password string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(email, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Setup(email, password string) (*services.AuthResponse, error) {
	if m.SetupFunc != nil {
		return m.SetupFunc(email, password)
	}
	return nil, models.ErrSetupComplete
}

func (m *MockAuthService) SetupAvailable() (bool, error) {
	if m.SetupAvailableFunc != nil {
		return m.SetupAvailableFunc()
	}
	return false, nil
}

func (m *MockAuthService) GetUser(email string) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(email)
	}
	return nil, models.ErrNotFound
}

// MockMarketService implements MarketServiceInterface for testing
type MockMarketService struct {
	OverviewFunc        func(ctx context.Context, symbol string) (*services.TickerOverview, error)
	QuoteFunc           func(ctx context.Context, symbol string) (*models.Quote, error)
	ProfileFunc         func(ctx context.Context, symbol string) (*models.Profile, error)
	KeyStatsFunc        func(ctx context.Context, symbol string) (*models.KeyStats, error)
	DividendKPIsFunc    func(ctx context.Context, symbol string) (*models.DividendKPIs, error)
	DividendHistoryFunc func(ctx context.Context, symbol string) (*services.DividendHistory, error)
	DividendSafetyFunc  func(ctx context.Context, symbol string) ([]services.SafetyYear, error)
	YieldBandsFunc      func(ctx context.Context, symbol string) ([]services.YieldBandPoint, error)
}

func (m *MockMarketService) Overview(ctx context.Context, symbol string) (*services.TickerOverview, error) {
	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketService) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketService) Profile(ctx context.Context, symbol string) (*models.Profile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketService) KeyStats(ctx context.Context, symbol string) (*models.KeyStats, error) {
	if m.KeyStatsFunc != nil {
		return m.KeyStatsFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketService) DividendKPIs(ctx context.Context, symbol string) (*models.DividendKPIs, error) {
	if m.DividendKPIsFunc != nil {
		return m.DividendKPIsFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketService) DividendHistory(ctx context.Context, symbol string) (*services.DividendHistory, error) {
	if m.DividendHistoryFunc != nil {
		return m.DividendHistoryFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketService) DividendSafety(ctx context.Context, symbol string) ([]services.SafetyYear, error) {
	if m.DividendSafetyFunc != nil {
		return m.DividendSafetyFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

func (m *MockMarketService) YieldBands(ctx context.Context, symbol string) ([]services.YieldBandPoint, error) {
	if m.YieldBandsFunc != nil {
		return m.YieldBandsFunc(ctx, symbol)
	}
	return nil, models.ErrNoData
}

// MockUsageService implements UsageServiceInterface for testing
type MockUsageService struct {
	StatusFunc  func(ctx context.Context, user *models.User) (*services.UsageStatus, error)
	ConsumeFunc func(ctx context.Context, user *models.User, cost int) error
}

func (m *MockUsageService) Status(ctx context.Context, user *models.User) (*services.UsageStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, user)
	}
	return &services.UsageStatus{Limit: 3, Remaining: 3}, nil
}

func (m *MockUsageService) Consume(ctx context.Context, user *models.User, cost int) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, user, cost)
	}
	return nil
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	UpsertUserFunc func(actorEmail, email, password, role string) (*services.UserResponse, error)
	ListUsersFunc  func() ([]*services.UserResponse, error)
}

func (m *MockUserService) UpsertUser(actorEmail, email, password, role string) (*services.UserResponse, error) {
	if m.UpsertUserFunc != nil {
		return m.UpsertUserFunc(actorEmail, email, password, role)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserService) ListUsers() ([]*services.UserResponse, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc()
	}
	return []*services.UserResponse{}, nil
}

// MockCacheAdmin implements CacheAdminInterface for testing
type MockCacheAdmin struct {
	ClearAllFunc func(ctx context.Context) error
	CountFunc    func(ctx context.Context) (int, error)
}

func (m *MockCacheAdmin) ClearAll(ctx context.Context) error {
	if m.ClearAllFunc != nil {
		return m.ClearAllFunc(ctx)
	}
	return nil
}

func (m *MockCacheAdmin) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

// NewTestUser creates a credential record for handler tests. The hash
// fields are filled with plausible values but never verified here.
func NewTestUser(email, role string) *models.User {
	return &models.User{
		Email:      models.NormalizeEmail(email),
		Role:       role,
		CreatedAt:  time.Now().UTC(),
		Algorithm:  "pbkdf2_sha256",
		Iterations: 200_000,
		SaltB64:    "c2FsdHNhbHRzYWx0c2FsdA==",
		HashB64:    "aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g=",
	}
}

// WithSession attaches session claims to a request, standing in for the
// auth middleware.
func WithSession(r *http.Request, email, role string) *http.Request {
	claims := &models.SessionClaims{Email: email, Role: role}
	ctx := context.WithValue(r.Context(), auth.SessionContextKey, claims)
	return r.WithContext(ctx)
}
