// Package visits stores a user's restaurant visit history.
//
// # Usage
//
//	repo := visits.NewRepository(store)
//	v, err := repo.Create(ctx, entities.Visit{UserID: uid, RestaurantID: rid, Rating: 4})
//	history, err := repo.ListByUser(ctx, uid)
package visits

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
)

const Collection = "visits"

var (
	ErrNotFound      = errors.New("visit not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Update carries the mutable fields of a visit; nil fields are left untouched.
type Update struct {
	Rating    *int
	Memo      *string
	VisitedAt *time.Time
}

// Repository handles visit reads and writes.
type Repository struct {
	store docstore.Store
	now   func() time.Time
}

// NewRepository creates a new visits repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Create stores a visit. CreatedAt and UpdatedAt are set to the current time.
func (r *Repository) Create(ctx context.Context, v entities.Visit) (*entities.Visit, error) {
	if !entities.ValidRating(v.Rating) {
		return nil, ErrInvalidRating
	}
	now := r.now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	if v.VisitedAt.IsZero() {
		v.VisitedAt = now
	}

	id, err := r.store.Add(ctx, Collection, encode(v))
	if err != nil {
		return nil, errors.Wrap(err, "create visit")
	}
	v.ID = id
	return &v, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*entities.Visit, error) {
	snap, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get visit %s", id)
	}
	return decode(*snap)
}

// Update applies the non-nil fields of u and bumps UpdatedAt.
func (r *Repository) Update(ctx context.Context, id string, u Update) error {
	fields := docstore.Document{"updatedAt": r.now().UTC()}
	if u.Rating != nil {
		if !entities.ValidRating(*u.Rating) {
			return ErrInvalidRating
		}
		fields["rating"] = *u.Rating
	}
	if u.Memo != nil {
		fields["memo"] = *u.Memo
	}
	if u.VisitedAt != nil {
		fields["visitedAt"] = u.VisitedAt.UTC()
	}

	err := r.store.Update(ctx, Collection, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return errors.Wrapf(err, "update visit %s", id)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return errors.Wrapf(r.store.Delete(ctx, Collection, id), "delete visit %s", id)
}

// ListByUser returns the user's visits, most recent visit first. Sorting
// happens here so the store needs no composite index.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]entities.Visit, error) {
	return r.listRecentFirst(ctx, docstore.Where("userId", userID))
}

// ListByRestaurant returns the user's visits to one restaurant, most recent first.
func (r *Repository) ListByRestaurant(ctx context.Context, userID, restaurantID string) ([]entities.Visit, error) {
	return r.listRecentFirst(ctx,
		docstore.Where("userId", userID),
		docstore.Where("restaurantId", restaurantID),
	)
}

func (r *Repository) listRecentFirst(ctx context.Context, filters ...docstore.Filter) ([]entities.Visit, error) {
	out, err := r.query(ctx, docstore.Query{Collection: Collection, Filters: filters})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VisitedAt.After(out[j].VisitedAt)
	})
	return out, nil
}

func (r *Repository) query(ctx context.Context, q docstore.Query) ([]entities.Visit, error) {
	snaps, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list visits")
	}
	out := make([]entities.Visit, 0, len(snaps))
	for _, snap := range snaps {
		v, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}
