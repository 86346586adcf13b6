package services

import (
	"context"
	"time"

	"github.com/mrlokans/matjip/internal/daegufood"
	"github.com/mrlokans/matjip/internal/entities"
)

// RegionFetcher returns the upstream rows of one region.
// Implemented by *daegufood.Client.
type RegionFetcher interface {
	SearchByRegion(ctx context.Context, region string) ([]daegufood.Item, error)
}

// RestaurantCache is the part of the restaurant repository the synchronizer
// writes to and reads from.
type RestaurantCache interface {
	BulkCache(ctx context.Context, candidates []entities.Restaurant) (int, error)
	ListAll(ctx context.Context) ([]entities.Restaurant, error)
	ListByRegion(ctx context.Context, region string) ([]entities.Restaurant, error)
}

// SyncLog records completed synchronizations.
type SyncLog interface {
	Record(ctx context.Context, syncedAt time.Time, total, created int) (*entities.SyncMetadata, error)
	LastSyncTime(ctx context.Context) (time.Time, bool, error)
	List(ctx context.Context, limit int) ([]entities.SyncMetadata, error)
}

// SyncResult contains the outcome of a full synchronization.
type SyncResult struct {
	Total int `json:"total"` // rows fetched from all regions
	New   int `json:"new"`   // rows inserted into the cache
}

// SyncOutcome is returned by SyncIfNeeded. Result is nil when no sync ran.
type SyncOutcome struct {
	Synced bool        `json:"synced"`
	Result *SyncResult `json:"result,omitempty"`
}
