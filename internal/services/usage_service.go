package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/mquintana/divscope/internal/models"
	pkglogger "github.com/mquintana/divscope/pkg/logger"
)

// UsageStore defines the interface for usage counter persistence
type UsageStore interface {
	GetCount(ctx context.Context, userID, day string) (int, error)
	Increment(ctx context.Context, userID, day string, cost int) error
}

// UsageService enforces the per-user daily search quota. Days are UTC
// calendar days; the quota resets implicitly when the day key changes.
// Admins are exempt and their usage is not recorded.
type UsageService struct {
	store       UsageStore
	dailyLimit  int
	failClosed  bool
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewUsageService(store UsageStore, dailyLimit int, failClosed bool, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UsageService {
	return &UsageService{
		store:       store,
		dailyLimit:  dailyLimit,
		failClosed:  failClosed,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// UsageStatus reports a user's quota standing for the current day.
type UsageStatus struct {
	Day       string `json:"day"`
	Limit     int    `json:"limit"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// DayKey returns the UTC calendar day the limiter is counting against.
func (s *UsageService) DayKey() string {
	return s.now().UTC().Format("2006-01-02")
}

// Status returns the current quota standing for a user. Admin users are
// reported as unlimited with the full quota remaining.
func (s *UsageService) Status(ctx context.Context, user *models.User) (*UsageStatus, error) {
	status := &UsageStatus{
		Day:   s.DayKey(),
		Limit: s.dailyLimit,
	}

	if user.IsAdmin() {
		status.Remaining = s.dailyLimit
		status.Unlimited = true
		return status, nil
	}

	used, err := s.count(ctx, user.Email, status.Day)
	if err != nil {
		return nil, err
	}

	status.Used = used
	status.Remaining = s.dailyLimit - used
	if status.Remaining < 0 {
		status.Remaining = 0
	}
	return status, nil
}

// Consume spends cost searches from the user's daily quota. It returns
// ErrQuotaExceeded when the remaining quota cannot cover the cost; the
// counter is only incremented on success. Admin users always pass without
// consuming.
func (s *UsageService) Consume(ctx context.Context, user *models.User, cost int) error {
	if user.IsAdmin() {
		return nil
	}

	day := s.DayKey()
	used, err := s.count(ctx, user.Email, day)
	if err != nil {
		return err
	}

	if used+cost > s.dailyLimit {
		s.auditLogger.LogQuotaDenied(user.Email, s.dailyLimit)
		return models.ErrQuotaExceeded
	}

	if err := s.store.Increment(ctx, user.Email, day, cost); err != nil {
		if s.failClosed {
			return err
		}
		// The search proceeds uncounted rather than failing the request.
		s.logger.Error("failed to record usage", slog.Any("error", err))
	}
	return nil
}

func (s *UsageService) count(ctx context.Context, userID, day string) (int, error) {
	used, err := s.store.GetCount(ctx, userID, day)
	if err != nil {
		if s.failClosed {
			return 0, err
		}
		s.logger.Warn("failed to read usage counter, treating as unused quota",
			slog.Any("error", err))
		return 0, nil
	}
	return used, nil
}
