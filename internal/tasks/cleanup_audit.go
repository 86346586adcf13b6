package tasks

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	CleanupAuditEventsQueue = "cleanup_audit_events"
	defaultAuditRetention   = 90 * 24 * time.Hour
)

// AuditEventCleaner is implemented by *audit.Service.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupAuditEventsTask removes audit events older than Retention.
type CleanupAuditEventsTask struct {
	Retention time.Duration `json:"retention"`
}

// Config returns the queue configuration for audit cleanup tasks.
func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        CleanupAuditEventsQueue,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupAuditEventsProcessor creates a processor function for CleanupAuditEventsTask.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner, logger *zap.Logger) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errors.New("audit event cleaner not configured")
		}

		retention := task.Retention
		if retention <= 0 {
			retention = defaultAuditRetention
		}

		deleted, err := cleaner.DeleteOldEvents(retention)
		if err != nil {
			return errors.Wrap(err, "cleanup audit events")
		}

		logger.Info("cleaned up audit events", zap.Int64("deleted", deleted), zap.Duration("retention", retention))
		return nil
	}
}

// NewCleanupAuditEventsQueue creates a backlite queue for audit cleanup tasks.
func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner, logger))
}
