// Package sync keeps the append-only log of cache synchronizations.
//
// Entries are never updated. The last sync time of a source is the largest
// syncedAt among its entries, computed here rather than by the store so the
// query needs no ordered index.
//
// # Usage
//
//	repo := sync.NewRepository(store)
//	_, err := repo.Record(ctx, time.Now(), total, created)
//	last, ok, err := repo.LastSyncTime(ctx)
package sync

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
)

const Collection = "sync_metadata"

// Repository handles sync log entries of one sync type.
type Repository struct {
	store    docstore.Store
	syncType entities.SyncType
}

// NewRepository creates a sync log repository for the Daegu food API.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, syncType: entities.SyncTypeDaeguFood}
}

// NewRepositoryWithType creates a sync log repository for a specific sync type.
func NewRepositoryWithType(store docstore.Store, syncType entities.SyncType) *Repository {
	return &Repository{store: store, syncType: syncType}
}

// Record appends one entry to the log.
func (r *Repository) Record(ctx context.Context, syncedAt time.Time, total, created int) (*entities.SyncMetadata, error) {
	entry := entities.SyncMetadata{
		Type:     r.syncType,
		SyncedAt: syncedAt.UTC(),
		Total:    total,
		New:      created,
	}
	id, err := r.store.Add(ctx, Collection, docstore.Document{
		"type":     string(entry.Type),
		"syncedAt": entry.SyncedAt,
		"total":    entry.Total,
		"new":      entry.New,
	})
	if err != nil {
		return nil, errors.Wrap(err, "record sync")
	}
	entry.ID = id
	return &entry, nil
}

// LastSyncTime returns the most recent syncedAt. ok is false when the log
// has no entry of this type.
func (r *Repository) LastSyncTime(ctx context.Context) (last time.Time, ok bool, err error) {
	entries, err := r.List(ctx, 1)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}
	return entries[0].SyncedAt, true, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (r *Repository) List(ctx context.Context, limit int) ([]entities.SyncMetadata, error) {
	snaps, err := r.store.Query(ctx, docstore.Query{
		Collection: Collection,
		Filters:    []docstore.Filter{docstore.Where("type", string(r.syncType))},
	})
	if err != nil {
		return nil, errors.Wrap(err, "list sync log")
	}

	entries := make([]entities.SyncMetadata, 0, len(snaps))
	for _, snap := range snaps {
		d := docstore.NewDecoder(snap.Data)
		entry := entities.SyncMetadata{
			ID:       snap.ID,
			Type:     entities.SyncType(d.RequiredString("type")),
			SyncedAt: d.Time("syncedAt"),
			Total:    d.Int("total"),
			New:      d.Int("new"),
		}
		if err := d.Err(); err != nil {
			return nil, errors.Wrapf(err, "sync log entry %s", snap.ID)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SyncedAt.After(entries[j].SyncedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
