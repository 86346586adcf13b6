package entities

import (
	"time"
)

type SyncType string

const (
	SyncTypeDaeguFood SyncType = "daegu_food_api"
)

// SyncMetadata is one entry of the append-only sync log.
type SyncMetadata struct {
	ID       string    `json:"id"`
	Type     SyncType  `json:"type"`
	SyncedAt time.Time `json:"synced_at"`
	Total    int       `json:"total"`
	New      int       `json:"new"`
}
