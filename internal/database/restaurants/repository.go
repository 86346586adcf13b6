// Package restaurants provides the restaurant cache on top of a document store.
//
// The store key is the canonical restaurant ID. The upstream identifier is
// always kept in the separate externalId field. Documents written by older
// clients may instead carry the upstream identifier in an "id" field; lookups
// by external ID fall back to that field so such documents are still found.
//
// # Usage
//
//	repo := restaurants.NewRepository(store)
//	created, err := repo.BulkCache(ctx, candidates)
//	r, err := repo.GetByID(ctx, "3f2a...")
package restaurants

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
)

const (
	Collection = "restaurants"

	fieldExternalID = "externalId"
	fieldLegacyID   = "id"
	fieldRegion     = "region"
	fieldCategory   = "category"
)

var ErrNotFound = errors.New("restaurant not found")

// Repository handles restaurant cache reads and writes.
type Repository struct {
	store docstore.Store
	now   func() time.Time
}

// NewRepository creates a new restaurants repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Cache stores a single restaurant unless one with the same external ID is
// already cached. It returns the store key and whether a document was created.
// The existence check and the insert are separate operations.
func (r *Repository) Cache(ctx context.Context, restaurant entities.Restaurant) (string, bool, error) {
	existing, err := r.FindByExternalID(ctx, lookupKey(restaurant))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", false, err
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	restaurant.CachedAt = r.now()
	id, err := r.store.Add(ctx, Collection, encode(restaurant))
	if err != nil {
		return "", false, errors.Wrap(err, "cache restaurant")
	}
	return id, true, nil
}

// BulkCache inserts the candidates that are not cached yet, in batches of
// docstore.MaxBatchSize. Every candidate is looked up by external ID before
// being staged; a batch is committed only when it staged at least one write.
// Returns the number of inserted restaurants.
//
// Concurrent callers can both miss the same external ID and insert it twice.
func (r *Repository) BulkCache(ctx context.Context, candidates []entities.Restaurant) (int, error) {
	count := 0
	for start := 0; start < len(candidates); start += docstore.MaxBatchSize {
		end := min(start+docstore.MaxBatchSize, len(candidates))

		batch := r.store.NewBatch()
		for _, restaurant := range candidates[start:end] {
			existing, err := r.FindByExternalID(ctx, lookupKey(restaurant))
			if err != nil && !errors.Is(err, ErrNotFound) {
				return count, err
			}
			if existing != nil {
				continue
			}
			restaurant.CachedAt = r.now()
			batch.Create(Collection, encode(restaurant))
		}

		staged := batch.Len()
		if staged == 0 {
			continue
		}
		// Commit resets the batch, so the staged count is taken first.
		if err := batch.Commit(ctx); err != nil {
			return count, errors.Wrapf(err, "commit restaurants %d-%d", start, end)
		}
		count += staged
	}
	return count, nil
}

// GetByID looks the restaurant up by store key, then by external ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.Restaurant, error) {
	snap, err := r.store.Get(ctx, Collection, id)
	if err == nil {
		return decode(*snap)
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, errors.Wrapf(err, "get restaurant %s", id)
	}
	return r.FindByExternalID(ctx, id)
}

// FindByExternalID matches externalId first and the legacy id field second.
func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*entities.Restaurant, error) {
	if externalID == "" {
		return nil, ErrNotFound
	}
	for _, field := range []string{fieldExternalID, fieldLegacyID} {
		snaps, err := r.store.Query(ctx, docstore.Query{
			Collection: Collection,
			Filters:    []docstore.Filter{docstore.Where(field, externalID)},
			Limit:      1,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "find restaurant by %s", field)
		}
		if len(snaps) > 0 {
			return decode(snaps[0])
		}
	}
	return nil, ErrNotFound
}

func (r *Repository) ListAll(ctx context.Context) ([]entities.Restaurant, error) {
	return r.list(ctx)
}

func (r *Repository) ListByRegion(ctx context.Context, region string) ([]entities.Restaurant, error) {
	return r.list(ctx, docstore.Where(fieldRegion, region))
}

func (r *Repository) ListByCategory(ctx context.Context, category string) ([]entities.Restaurant, error) {
	return r.list(ctx, docstore.Where(fieldCategory, category))
}

// Count returns the number of cached restaurants.
func (r *Repository) Count(ctx context.Context) (int, error) {
	snaps, err := r.store.Query(ctx, docstore.Query{Collection: Collection})
	if err != nil {
		return 0, errors.Wrap(err, "count restaurants")
	}
	return len(snaps), nil
}

func (r *Repository) list(ctx context.Context, filters ...docstore.Filter) ([]entities.Restaurant, error) {
	snaps, err := r.store.Query(ctx, docstore.Query{Collection: Collection, Filters: filters})
	if err != nil {
		return nil, errors.Wrap(err, "list restaurants")
	}
	out := make([]entities.Restaurant, 0, len(snaps))
	for _, snap := range snaps {
		restaurant, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *restaurant)
	}
	return out, nil
}

// lookupKey is the identifier used for de-duplication. Restaurants without an
// external ID fall back to their own ID.
func lookupKey(r entities.Restaurant) string {
	if r.ExternalID != "" {
		return r.ExternalID
	}
	return r.ID
}
