package tasks

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/logging"
	"github.com/mrlokans/matjip/internal/services"
)

const SyncRestaurantsQueue = "sync_restaurants"

// RestaurantSyncer is implemented by *services.SyncService.
type RestaurantSyncer interface {
	SyncIfNeeded(ctx context.Context) (services.SyncOutcome, error)
	SyncAll(ctx context.Context) (services.SyncResult, error)
}

// SyncRestaurantsTask refreshes the restaurant cache. Without Force it is a
// no-op while the cache is fresh.
type SyncRestaurantsTask struct {
	Force       bool   `json:"force"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// Config returns the queue configuration for sync tasks.
func (t SyncRestaurantsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        SyncRestaurantsQueue,
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     15 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SyncRestaurantsProcessor creates a processor function for SyncRestaurantsTask.
func SyncRestaurantsProcessor(syncer RestaurantSyncer, logger *zap.Logger) backlite.QueueProcessor[SyncRestaurantsTask] {
	return func(ctx context.Context, task SyncRestaurantsTask) error {
		if syncer == nil {
			return errors.New("restaurant syncer not configured")
		}
		log := logger.With(zap.Bool("force", task.Force), zap.String(logging.FieldUserID, task.RequestedBy))

		if task.Force {
			result, err := syncer.SyncAll(ctx)
			if err != nil {
				return errors.Wrap(err, "sync restaurants")
			}
			log.Info("restaurant sync task done",
				zap.Int(logging.FieldTotal, result.Total), zap.Int(logging.FieldNew, result.New))
			return nil
		}

		outcome, err := syncer.SyncIfNeeded(ctx)
		if err != nil {
			return errors.Wrap(err, "sync restaurants")
		}
		if !outcome.Synced {
			log.Info("restaurant sync task skipped, cache is fresh")
			return nil
		}
		log.Info("restaurant sync task done",
			zap.Int(logging.FieldTotal, outcome.Result.Total), zap.Int(logging.FieldNew, outcome.Result.New))
		return nil
	}
}

// NewSyncRestaurantsQueue creates a backlite queue for sync tasks.
func NewSyncRestaurantsQueue(syncer RestaurantSyncer, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(SyncRestaurantsProcessor(syncer, logger))
}
