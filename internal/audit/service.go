package audit

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/mrlokans/matjip/internal/auth"
	auditRepo "github.com/mrlokans/matjip/internal/database/audit"
	"github.com/mrlokans/matjip/internal/entities"
)

// Service records audit events in the background. Close waits for pending
// writes.
type Service struct {
	repo   *auditRepo.Repository
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *auditRepo.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("audit")}
}

// Log records an event synchronously.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event without blocking the caller.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			s.logger.Warn("failed to log audit event",
				zap.String("action", event.Action), zap.Error(err))
		}
	}()
}

// Close waits for in-flight LogAsync writes.
func (s *Service) Close() {
	s.wg.Wait()
}

// OnSessionChange records sign-ins, sign-outs and registrations. It makes
// the service an auth.SessionObserver.
func (s *Service) OnSessionChange(ev auth.SessionEvent) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      ev.Session.UserID,
		EventType:   entities.AuditEventAuth,
		Action:      string(ev.Type),
		Description: describeSession(ev),
		Metadata:    datatypes.JSONMap{"auth_type": string(ev.Session.AuthType)},
		Status:      entities.AuditStatusSuccess,
	})
}

func describeSession(ev auth.SessionEvent) string {
	name := ev.Session.Username
	if name == "" {
		name = ev.Session.UserID
	}
	switch ev.Type {
	case auth.EventRegistered:
		return "Registered " + name
	case auth.EventSignedIn:
		return name + " signed in"
	case auth.EventSignedOut:
		return name + " signed out"
	}
	return name
}

// LogSync records a manual sync request. taskID is empty when the sync ran
// inline.
func (s *Service) LogSync(userID, ipAddr string, force bool, taskID string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventSync,
		Action:      "sync_trigger",
		Description: "Requested restaurant sync",
		IPAddress:   ipAddr,
		Metadata:    datatypes.JSONMap{"force": force},
		Status:      entities.AuditStatusSuccess,
	}
	if taskID != "" {
		event.Metadata["task_id"] = taskID
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogDelete records the deletion of a visit, bookmark or bookmark group.
func (s *Service) LogDelete(userID, ipAddr, entityType, entityID, entityName string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: truncate("Deleted "+entityType+": "+entityName, 500),
		EntityType:  entityType,
		EntityID:    entityID,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	})
}

// GetEvents retrieves a page of events, most recent first.
func (s *Service) GetEvents(f auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.List(f, limit, offset)
}

// DeleteOldEvents removes events older than retention.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	n, err := s.repo.DeleteOlderThan(time.Now().Add(-retention))
	if err == nil && n > 0 {
		s.logger.Info("pruned audit events", zap.Int64("deleted", n), zap.Duration("retention", retention))
	}
	return n, err
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
