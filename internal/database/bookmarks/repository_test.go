package bookmarks

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
)

func setupTestStore(t *testing.T) docstore.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "bookmarks.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&docstore.Record{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return docstore.NewSQLStore(db)
}

func addBookmarks(t *testing.T, repo *Repository, userID, groupID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := repo.Add(context.Background(), entities.Bookmark{
			UserID:            userID,
			GroupID:           groupID,
			RestaurantID:      fmt.Sprintf("r%d", i),
			RestaurantName:    fmt.Sprintf("Restaurant %d", i),
			RestaurantAddress: "대구광역시 수성구",
		})
		require.NoError(t, err)
	}
}

func TestRepository_GroupLifecycle(t *testing.T) {
	repo := NewRepository(setupTestStore(t))
	ctx := context.Background()

	_, err := repo.CreateGroup(ctx, "u1", "   ")
	assert.ErrorIs(t, err, ErrEmptyGroupName)

	g, err := repo.CreateGroup(ctx, "u1", " Lunch ")
	require.NoError(t, err)
	assert.Equal(t, "Lunch", g.Name)

	require.NoError(t, repo.RenameGroup(ctx, g.ID, "Weekend lunch"))
	got, err := repo.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Weekend lunch", got.Name)
	assert.Equal(t, "u1", got.UserID)

	assert.ErrorIs(t, repo.RenameGroup(ctx, g.ID, ""), ErrEmptyGroupName)
	assert.ErrorIs(t, repo.RenameGroup(ctx, "missing", "x"), ErrGroupNotFound)
}

func TestRepository_ListGroups_NewestFirst(t *testing.T) {
	repo := NewRepository(setupTestStore(t))
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"first", "second", "third"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return ts }
		_, err := repo.CreateGroup(ctx, "u1", name)
		require.NoError(t, err)
	}
	_, err := repo.CreateGroup(ctx, "u2", "other user")
	require.NoError(t, err)

	groups, err := repo.ListGroups(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "third", groups[0].Name)
	assert.Equal(t, "first", groups[2].Name)
}

func TestRepository_DeleteGroup_Cascades(t *testing.T) {
	repo := NewRepository(setupTestStore(t))
	ctx := context.Background()

	doomed, err := repo.CreateGroup(ctx, "u1", "doomed")
	require.NoError(t, err)
	kept, err := repo.CreateGroup(ctx, "u1", "kept")
	require.NoError(t, err)
	addBookmarks(t, repo, "u1", doomed.ID, 25)
	addBookmarks(t, repo, "u1", kept.ID, 2)

	require.NoError(t, repo.DeleteGroup(ctx, doomed.ID))

	left, err := repo.ListByGroup(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	_, err = repo.GetGroup(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrGroupNotFound)

	other, err := repo.ListByGroup(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, other, 2)
}

func TestRepository_DeleteGroup_Empty(t *testing.T) {
	repo := NewRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	g, err := repo.CreateGroup(ctx, "u1", "empty")
	require.NoError(t, err)
	require.NoError(t, repo.DeleteGroup(ctx, g.ID))

	_, err = repo.GetGroup(ctx, g.ID)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestRepository_BookmarksListingAndExists(t *testing.T) {
	repo := NewRepository(setupTestStore(t))
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	g1, err := repo.CreateGroup(ctx, "u1", "g1")
	require.NoError(t, err)
	g2, err := repo.CreateGroup(ctx, "u1", "g2")
	require.NoError(t, err)

	for i, gid := range []string{g1.ID, g2.ID, g1.ID} {
		ts := base.Add(time.Duration(i) * time.Hour)
		repo.now = func() time.Time { return ts }
		_, err := repo.Add(ctx, entities.Bookmark{
			UserID:       "u1",
			GroupID:      gid,
			RestaurantID: fmt.Sprintf("r%d", i),
		})
		require.NoError(t, err)
	}

	inG1, err := repo.ListByGroup(ctx, g1.ID)
	require.NoError(t, err)
	require.Len(t, inG1, 2)
	assert.Equal(t, "r2", inG1[0].RestaurantID)

	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r2", all[0].RestaurantID)
	assert.Equal(t, "r0", all[2].RestaurantID)

	exists, err := repo.Exists(ctx, "u1", "r1", g2.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "u1", "r1", g1.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_DeleteBookmark(t *testing.T) {
	repo := NewRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	b, err := repo.Add(ctx, entities.Bookmark{UserID: "u1", GroupID: "g", RestaurantID: "r"})
	require.NoError(t, err)

	got, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "r", got.RestaurantID)

	require.NoError(t, repo.Delete(ctx, b.ID))
	_, err = repo.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrBookmarkNotFound)
}

// equalityOnlyStore rejects ordered queries, as Firestore does for filtered
// queries without a composite index.
type equalityOnlyStore struct {
	docstore.Store
}

func (s equalityOnlyStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	if q.OrderBy != "" && len(q.Filters) > 0 {
		return nil, errors.New("query requires an index")
	}
	return s.Store.Query(ctx, q)
}

func TestRepository_ListsNeedNoIndex(t *testing.T) {
	repo := NewRepository(equalityOnlyStore{Store: docstore.NewMemoryStore()})
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	var groupID string
	for i, name := range []string{"old", "new"} {
		ts := base.Add(time.Duration(i) * time.Hour)
		repo.now = func() time.Time { return ts }
		g, err := repo.CreateGroup(ctx, "u1", name)
		require.NoError(t, err)
		groupID = g.ID
		_, err = repo.Add(ctx, entities.Bookmark{UserID: "u1", GroupID: g.ID, RestaurantID: name})
		require.NoError(t, err)
	}

	groups, err := repo.ListGroups(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "new", groups[0].Name)

	inGroup, err := repo.ListByGroup(ctx, groupID)
	require.NoError(t, err)
	require.Len(t, inGroup, 1)
	assert.Equal(t, "new", inGroup[0].RestaurantID)

	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].RestaurantID)
}
