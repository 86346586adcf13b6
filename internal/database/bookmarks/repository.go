// Package bookmarks stores bookmark groups and the bookmarks filed in them.
//
// Deleting a group removes its bookmarks first and the group last. The two
// steps are not atomic: a failure in between leaves the group in place with
// some or all of its bookmarks gone.
//
// # Usage
//
//	repo := bookmarks.NewRepository(store)
//	group, err := repo.CreateGroup(ctx, uid, "Date night")
//	b, err := repo.Add(ctx, entities.Bookmark{UserID: uid, GroupID: group.ID, RestaurantID: rid})
//	err = repo.DeleteGroup(ctx, group.ID)
package bookmarks

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
)

const (
	GroupCollection    = "bookmark_groups"
	BookmarkCollection = "bookmarks"

	// cascadeConcurrency bounds parallel deletes during DeleteGroup.
	cascadeConcurrency = 8
)

var (
	ErrGroupNotFound    = errors.New("bookmark group not found")
	ErrBookmarkNotFound = errors.New("bookmark not found")
	ErrEmptyGroupName   = errors.New("group name is required")
)

// Repository handles bookmark group and bookmark operations.
type Repository struct {
	store docstore.Store
	now   func() time.Time
}

// NewRepository creates a new bookmarks repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

func (r *Repository) CreateGroup(ctx context.Context, userID, name string) (*entities.BookmarkGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyGroupName
	}
	now := r.now().UTC()
	g := entities.BookmarkGroup{UserID: userID, Name: name, CreatedAt: now, UpdatedAt: now}

	id, err := r.store.Add(ctx, GroupCollection, encodeGroup(g))
	if err != nil {
		return nil, errors.Wrap(err, "create bookmark group")
	}
	g.ID = id
	return &g, nil
}

func (r *Repository) GetGroup(ctx context.Context, id string) (*entities.BookmarkGroup, error) {
	snap, err := r.store.Get(ctx, GroupCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get bookmark group %s", id)
	}
	return decodeGroup(*snap)
}

// ListGroups returns the user's groups, newest first. Like every list here
// it filters on equality only and sorts in process, so Firestore needs no
// composite index.
func (r *Repository) ListGroups(ctx context.Context, userID string) ([]entities.BookmarkGroup, error) {
	snaps, err := r.store.Query(ctx, docstore.Query{
		Collection: GroupCollection,
		Filters:    []docstore.Filter{docstore.Where("userId", userID)},
	})
	if err != nil {
		return nil, errors.Wrap(err, "list bookmark groups")
	}
	out := make([]entities.BookmarkGroup, 0, len(snaps))
	for _, snap := range snaps {
		g, err := decodeGroup(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repository) RenameGroup(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyGroupName
	}
	err := r.store.Update(ctx, GroupCollection, id, docstore.Document{
		"groupName": name,
		"updatedAt": r.now().UTC(),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrGroupNotFound
	}
	return errors.Wrapf(err, "rename bookmark group %s", id)
}

// DeleteGroup deletes every bookmark in the group concurrently, then the
// group. The group is kept when any bookmark delete fails.
func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	snaps, err := r.store.Query(ctx, docstore.Query{
		Collection: BookmarkCollection,
		Filters:    []docstore.Filter{docstore.Where("groupId", id)},
	})
	if err != nil {
		return errors.Wrapf(err, "list bookmarks of group %s", id)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeConcurrency)
	for _, snap := range snaps {
		bookmarkID := snap.ID
		g.Go(func() error {
			return r.store.Delete(gctx, BookmarkCollection, bookmarkID)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrapf(err, "delete bookmarks of group %s", id)
	}

	return errors.Wrapf(r.store.Delete(ctx, GroupCollection, id), "delete bookmark group %s", id)
}

// Add files a bookmark. CreatedAt is always set to the current time.
func (r *Repository) Add(ctx context.Context, b entities.Bookmark) (*entities.Bookmark, error) {
	b.CreatedAt = r.now().UTC()
	id, err := r.store.Add(ctx, BookmarkCollection, encodeBookmark(b))
	if err != nil {
		return nil, errors.Wrap(err, "add bookmark")
	}
	b.ID = id
	return &b, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*entities.Bookmark, error) {
	snap, err := r.store.Get(ctx, BookmarkCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrBookmarkNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get bookmark %s", id)
	}
	return decodeBookmark(*snap)
}

// ListByGroup returns the group's bookmarks, newest first.
func (r *Repository) ListByGroup(ctx context.Context, groupID string) ([]entities.Bookmark, error) {
	return r.listBookmarks(ctx, docstore.Where("groupId", groupID))
}

// ListByUser returns all of the user's bookmarks, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]entities.Bookmark, error) {
	return r.listBookmarks(ctx, docstore.Where("userId", userID))
}

func (r *Repository) listBookmarks(ctx context.Context, filter docstore.Filter) ([]entities.Bookmark, error) {
	out, err := r.queryBookmarks(ctx, docstore.Query{
		Collection: BookmarkCollection,
		Filters:    []docstore.Filter{filter},
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return errors.Wrapf(r.store.Delete(ctx, BookmarkCollection, id), "delete bookmark %s", id)
}

// Exists reports whether the user already filed the restaurant in the group.
func (r *Repository) Exists(ctx context.Context, userID, restaurantID, groupID string) (bool, error) {
	snaps, err := r.store.Query(ctx, docstore.Query{
		Collection: BookmarkCollection,
		Filters: []docstore.Filter{
			docstore.Where("userId", userID),
			docstore.Where("restaurantId", restaurantID),
			docstore.Where("groupId", groupID),
		},
		Limit: 1,
	})
	if err != nil {
		return false, errors.Wrap(err, "check bookmark")
	}
	return len(snaps) > 0, nil
}

func (r *Repository) queryBookmarks(ctx context.Context, q docstore.Query) ([]entities.Bookmark, error) {
	snaps, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list bookmarks")
	}
	out := make([]entities.Bookmark, 0, len(snaps))
	for _, snap := range snaps {
		b, err := decodeBookmark(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}
