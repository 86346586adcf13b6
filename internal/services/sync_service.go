package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mrlokans/matjip/internal/daegufood"
	"github.com/mrlokans/matjip/internal/entities"
	"github.com/mrlokans/matjip/internal/logging"
)

// StaleAfter is how old the last sync may get before the cache is refreshed.
const StaleAfter = 7 * 24 * time.Hour

// SyncService keeps the restaurant cache fresh. Regions are fetched one after
// another; a failed region is logged and contributes nothing. A failed cache
// write aborts the run without recording it, so the next staleness check
// still asks for a sync.
type SyncService struct {
	fetcher RegionFetcher
	cache   RestaurantCache
	log     SyncLog
	regions []string
	metrics *SyncMetrics
	logger  *zap.Logger
	now     func() time.Time

	group singleflight.Group
}

type SyncServiceOption func(*SyncService)

// WithRegions overrides daegufood.Regions.
func WithRegions(regions ...string) SyncServiceOption {
	return func(s *SyncService) { s.regions = regions }
}

func WithSyncMetrics(m *SyncMetrics) SyncServiceOption {
	return func(s *SyncService) { s.metrics = m }
}

func WithClock(now func() time.Time) SyncServiceOption {
	return func(s *SyncService) { s.now = now }
}

func NewSyncService(fetcher RegionFetcher, cache RestaurantCache, syncLog SyncLog, logger *zap.Logger, opts ...SyncServiceOption) *SyncService {
	s := &SyncService{
		fetcher: fetcher,
		cache:   cache,
		log:     syncLog,
		regions: daegufood.Regions,
		logger:  logger.Named("sync"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewSyncMetrics(nil)
	}
	return s
}

// IsStale reports whether the last sync is older than StaleAfter. With no
// sync on record the cache is always stale.
func (s *SyncService) IsStale(ctx context.Context) (bool, error) {
	last, ok, err := s.log.LastSyncTime(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to read last sync time")
	}
	return isStale(last, ok, s.now()), nil
}

func isStale(last time.Time, ok bool, now time.Time) bool {
	if !ok {
		return true
	}
	return now.Sub(last) > StaleAfter
}

// SyncIfNeeded runs SyncAll only when the cache is stale. Concurrent calls in
// this process share one run. The shared run ignores the callers'
// cancellation; a cancelled caller stops waiting and gets ctx.Err() while
// the run goes on for the others.
func (s *SyncService) SyncIfNeeded(ctx context.Context) (SyncOutcome, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan("sync-if-needed", func() (interface{}, error) {
		stale, err := s.IsStale(shared)
		if err != nil {
			return SyncOutcome{}, err
		}
		if !stale {
			s.logger.Debug("cache is fresh, skipping sync")
			return SyncOutcome{Synced: false}, nil
		}
		result, err := s.SyncAll(shared)
		if err != nil {
			return SyncOutcome{}, err
		}
		return SyncOutcome{Synced: true, Result: &result}, nil
	})
	select {
	case <-ctx.Done():
		return SyncOutcome{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return SyncOutcome{}, res.Err
		}
		return res.Val.(SyncOutcome), nil
	}
}

// SyncAll fetches every region, writes the restaurants not cached yet and
// appends one entry to the sync log.
func (s *SyncService) SyncAll(ctx context.Context) (SyncResult, error) {
	start := s.now()
	s.logger.Info("starting restaurant sync", zap.Int("regions", len(s.regions)))

	var candidates []entities.Restaurant
	for _, region := range s.regions {
		if err := ctx.Err(); err != nil {
			s.metrics.runs.WithLabelValues("failed").Inc()
			return SyncResult{}, err
		}
		items, err := s.fetcher.SearchByRegion(ctx, region)
		if err != nil {
			s.metrics.regionErrors.WithLabelValues(region).Inc()
			s.logger.Warn("region fetch failed, skipping",
				zap.String(logging.FieldRegion, region), zap.Error(err))
			continue
		}
		s.logger.Debug("region fetched",
			zap.String(logging.FieldRegion, region), zap.Int(logging.FieldTotal, len(items)))
		for _, it := range items {
			candidates = append(candidates, daegufood.ConvertToRestaurant(it))
		}
	}
	s.metrics.fetched.Add(float64(len(candidates)))

	created, err := s.cache.BulkCache(ctx, candidates)
	if err != nil {
		s.metrics.runs.WithLabelValues("failed").Inc()
		return SyncResult{}, errors.Wrap(err, "failed to cache restaurants")
	}
	s.metrics.inserted.Add(float64(created))

	syncedAt := s.now()
	if _, err := s.log.Record(ctx, syncedAt, len(candidates), created); err != nil {
		s.metrics.runs.WithLabelValues("failed").Inc()
		return SyncResult{}, errors.Wrap(err, "failed to record sync")
	}

	elapsed := syncedAt.Sub(start)
	s.metrics.runs.WithLabelValues("success").Inc()
	s.metrics.duration.Observe(elapsed.Seconds())
	s.metrics.lastSuccess.Set(float64(syncedAt.Unix()))
	s.logger.Info("restaurant sync finished",
		zap.Int(logging.FieldTotal, len(candidates)),
		zap.Int(logging.FieldNew, created),
		zap.Duration(logging.FieldDuration, elapsed))

	return SyncResult{Total: len(candidates), New: created}, nil
}

// Refresh runs SyncAll when forceSync is set and SyncIfNeeded otherwise.
func (s *SyncService) Refresh(ctx context.Context, forceSync bool) error {
	if forceSync {
		_, err := s.SyncAll(ctx)
		return err
	}
	_, err := s.SyncIfNeeded(ctx)
	return err
}

// GetRestaurantsByRegion refreshes the cache (always when forceSync is set,
// otherwise only if stale) and returns the cached restaurants of one region.
func (s *SyncService) GetRestaurantsByRegion(ctx context.Context, region string, forceSync bool) ([]entities.Restaurant, error) {
	if err := s.Refresh(ctx, forceSync); err != nil {
		return nil, err
	}
	return s.cache.ListByRegion(ctx, region)
}

// GetAllCachedRestaurants is GetRestaurantsByRegion for every region.
func (s *SyncService) GetAllCachedRestaurants(ctx context.Context, forceSync bool) ([]entities.Restaurant, error) {
	if err := s.Refresh(ctx, forceSync); err != nil {
		return nil, err
	}
	return s.cache.ListAll(ctx)
}

// Status summarizes the sync log for status endpoints and the CLI.
type Status struct {
	LastSyncedAt *time.Time             `json:"last_synced_at"`
	Stale        bool                   `json:"stale"`
	Recent       []entities.SyncMetadata `json:"recent"`
}

// Status returns the last sync time, staleness and up to limit recent entries.
func (s *SyncService) Status(ctx context.Context, limit int) (Status, error) {
	entries, err := s.log.List(ctx, limit)
	if err != nil {
		return Status{}, errors.Wrap(err, "failed to list sync log")
	}
	st := Status{Recent: entries, Stale: true}
	if len(entries) > 0 {
		last := entries[0].SyncedAt
		st.LastSyncedAt = &last
		st.Stale = isStale(last, true, s.now())
	}
	return st, nil
}
