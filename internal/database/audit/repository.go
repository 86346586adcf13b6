package audit

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mrlokans/matjip/internal/entities"
)

const defaultLimit = 50

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	UserID    string
	EventType entities.AuditEventType
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now().UTC()
	}
	return errors.Wrap(r.db.Create(event).Error, "failed to save audit event")
}

// List returns a page of events, most recent first, and the total number
// of events matching f.
func (r *Repository) List(f Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	query := r.db.Model(&entities.AuditEvent{})
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count audit events")
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	var events []entities.AuditEvent
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, errors.Wrap(err, "failed to list audit events")
}

// DeleteOlderThan removes events created before cutoff and returns how many
// were deleted.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff.UTC()).Delete(&entities.AuditEvent{})
	return result.RowsAffected, errors.Wrap(result.Error, "failed to delete old audit events")
}
