package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/config"
	"github.com/mrlokans/matjip/internal/logging"
	"github.com/mrlokans/matjip/internal/services"
)

// runTimeout bounds one scheduled sync.
const runTimeout = 30 * time.Minute

// Syncer is implemented by *services.SyncService.
type Syncer interface {
	SyncIfNeeded(ctx context.Context) (services.SyncOutcome, error)
	SyncAll(ctx context.Context) (services.SyncResult, error)
}

// RestaurantSyncScheduler checks the restaurant cache on a cron schedule and
// refreshes it when stale.
type RestaurantSyncScheduler struct {
	syncer Syncer
	cfg    config.RestaurantSync
	logger *zap.Logger

	cron        *cron.Cron
	entryID     cron.EntryID
	mu          sync.RWMutex
	isRunning   bool
	isSyncing   bool
	cancelFunc  context.CancelFunc
	startupDone atomic.Bool
}

// NewRestaurantSyncScheduler creates a new scheduler instance
func NewRestaurantSyncScheduler(syncer Syncer, cfg config.RestaurantSync, logger *zap.Logger) *RestaurantSyncScheduler {
	return &RestaurantSyncScheduler{
		syncer: syncer,
		cfg:    cfg,
		logger: logger.Named("scheduler"),
		cron:   cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler if sync is enabled
func (s *RestaurantSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.cfg.Enabled {
		s.logger.Info("restaurant sync scheduler disabled")
		return nil
	}
	if err := ValidateCronSchedule(s.cfg.Schedule); err != nil {
		return errors.Wrapf(err, "invalid cron schedule '%s'", s.cfg.Schedule)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runSync(context.Background(), false)
	})
	if err != nil {
		return errors.Wrap(err, "failed to schedule sync job")
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := GetNextRunTime(s.cfg.Schedule, time.Now())
	s.logger.Info("restaurant sync scheduler started",
		zap.String("schedule", s.cfg.Schedule),
		zap.String("description", GetCronDescription(s.cfg.Schedule)),
		zap.Timep("next_run", nextRun))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler
func (s *RestaurantSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// the job takes s.mu itself, so wait without holding it
	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}
	s.logger.Info("restaurant sync scheduler stopped")
}

// RunStartupSync runs SyncIfNeeded once per process. Later calls return
// false without doing anything.
func (s *RestaurantSyncScheduler) RunStartupSync(ctx context.Context) bool {
	if !s.startupDone.CompareAndSwap(false, true) {
		s.logger.Debug("startup sync already ran")
		return false
	}
	s.runSync(ctx, false)
	return true
}

// RunNow triggers an immediate sync in the background. force skips the
// staleness check.
func (s *RestaurantSyncScheduler) RunNow(force bool) {
	go s.runSync(context.Background(), force)
}

// IsRunning returns whether the scheduler is active
func (s *RestaurantSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a sync started by the scheduler is in progress
func (s *RestaurantSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next check will occur
func (s *RestaurantSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *RestaurantSyncScheduler) runSync(parent context.Context, force bool) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.logger.Info("sync skipped, already syncing")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(parent, runTimeout)
	defer cancel()

	start := time.Now()
	if force {
		result, err := s.syncer.SyncAll(ctx)
		if err != nil {
			s.logger.Error("forced sync failed", zap.Error(err))
			return
		}
		s.logger.Info("forced sync done",
			zap.Int(logging.FieldTotal, result.Total),
			zap.Int(logging.FieldNew, result.New),
			zap.Duration(logging.FieldDuration, time.Since(start)))
		return
	}

	outcome, err := s.syncer.SyncIfNeeded(ctx)
	if err != nil {
		s.logger.Error("sync failed", zap.Error(err))
		return
	}
	if !outcome.Synced {
		s.logger.Info("restaurant cache is fresh")
		return
	}
	s.logger.Info("sync done",
		zap.Int(logging.FieldTotal, outcome.Result.Total),
		zap.Int(logging.FieldNew, outcome.Result.New),
		zap.Duration(logging.FieldDuration, time.Since(start)))
}
