package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/mquintana/divscope/internal/repositories"
)

// usageRetentionDays is how long spent usage counters are kept. The quota
// only ever reads the current day; older rows are audit leftovers.
const usageRetentionDays = 30

// CleanupManager periodically sweeps expired cache entries and stale usage
// counters. Freshness is enforced at read time, so the sweep only reclaims
// disk space and can run on a relaxed schedule.
type CleanupManager struct {
	cacheRepo *repositories.CacheRepository
	usageRepo *repositories.UsageRepository
	logger    *slog.Logger
	interval  time.Duration
	stopCh    chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	cacheRepo *repositories.CacheRepository,
	usageRepo *repositories.UsageRepository,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		cacheRepo: cacheRepo,
		usageRepo: usageRepo,
		logger:    logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	expired, err := cm.cacheRepo.DeleteExpired(cleanupCtx, time.Now().Unix())
	if err != nil {
		cm.logger.Error("failed to sweep expired cache entries", slog.Any("error", err))
	} else if expired > 0 {
		cm.logger.Info("swept expired cache entries", slog.Int64("rows_deleted", expired))
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -usageRetentionDays).Format("2006-01-02")
	stale, err := cm.usageRepo.DeleteBefore(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to sweep stale usage counters", slog.Any("error", err))
	} else if stale > 0 {
		cm.logger.Info("swept stale usage counters", slog.Int64("rows_deleted", stale))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
