package entities

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEventType string

const (
	AuditEventAuth   AuditEventType = "auth"
	AuditEventSync   AuditEventType = "sync"
	AuditEventDelete AuditEventType = "delete"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is one row of the audit trail kept in the local SQLite database.
type AuditEvent struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      string            `gorm:"index;size:128" json:"user_id"`
	EventType   AuditEventType    `gorm:"index;size:50" json:"event_type"`
	Action      string            `gorm:"size:100" json:"action"`      // e.g. "signed_in", "visit_delete"
	Description string            `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string            `gorm:"size:50" json:"entity_type,omitempty"`
	EntityID    string            `gorm:"index;size:128" json:"entity_id,omitempty"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	IPAddress   string            `gorm:"size:45" json:"ip_address,omitempty"`
	Status      AuditStatus       `gorm:"size:20" json:"status"`
	ErrorMsg    string            `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
