package visits

import (
	"context"
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
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "visits.db")), &gorm.Config{
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

func newVisit(userID, restaurantID string, visitedAt time.Time) entities.Visit {
	return entities.Visit{
		UserID:         userID,
		RestaurantID:   restaurantID,
		RestaurantName: "Dongin-dong Jjimgalbi",
		Rating:         4,
		Memo:           "spicy",
		VisitedAt:      visitedAt,
	}
}

func TestRepository_VisitedAtRoundTrip(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	visitedAt := time.Date(2024, 2, 29, 19, 45, 12, 123456789, seoul)

	for name, store := range map[string]docstore.Store{
		"sqlite": setupTestStore(t),
		"memory": docstore.NewMemoryStore(),
	} {
		t.Run(name, func(t *testing.T) {
			repo := NewRepository(store)
			ctx := context.Background()

			created, err := repo.Create(ctx, newVisit("u1", "r1", visitedAt))
			require.NoError(t, err)

			got, err := repo.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.True(t, visitedAt.Equal(got.VisitedAt), "got %s", got.VisitedAt)
			assert.Equal(t, 4, got.Rating)
			assert.Equal(t, "spicy", got.Memo)
			assert.False(t, got.CreatedAt.IsZero())
		})
	}
}

func TestRepository_CreateRejectsBadRating(t *testing.T) {
	repo := NewRepository(setupTestStore(t))
	v := newVisit("u1", "r1", time.Now())

	for _, rating := range []int{0, 6, -1} {
		v.Rating = rating
		_, err := repo.Create(context.Background(), v)
		assert.ErrorIs(t, err, ErrInvalidRating)
	}
}

func TestRepository_Update(t *testing.T) {
	repo := NewRepository(setupTestStore(t))
	ctx := context.Background()
	created, err := repo.Create(ctx, newVisit("u1", "r1", time.Now()))
	require.NoError(t, err)

	later := created.UpdatedAt.Add(time.Hour)
	repo.now = func() time.Time { return later }

	rating, memo := 5, "even better"
	require.NoError(t, repo.Update(ctx, created.ID, Update{Rating: &rating, Memo: &memo}))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)
	assert.Equal(t, "even better", got.Memo)
	assert.True(t, later.Equal(got.UpdatedAt))
	assert.True(t, created.VisitedAt.Equal(got.VisitedAt))

	bad := 9
	assert.ErrorIs(t, repo.Update(ctx, created.ID, Update{Rating: &bad}), ErrInvalidRating)
	assert.ErrorIs(t, repo.Update(ctx, "missing", Update{Memo: &memo}), ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(setupTestStore(t))
	ctx := context.Background()
	created, err := repo.Create(ctx, newVisit("u1", "r1", time.Now()))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ListByUser_SortedByVisitedAtDesc(t *testing.T) {
	repo := NewRepository(setupTestStore(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, days := range []int{3, 1, 7} {
		_, err := repo.Create(ctx, newVisit("u1", "r1", base.AddDate(0, 0, days)))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newVisit("u2", "r1", base))
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, base.AddDate(0, 0, 7).Equal(list[0].VisitedAt))
	assert.True(t, base.AddDate(0, 0, 3).Equal(list[1].VisitedAt))
	assert.True(t, base.AddDate(0, 0, 1).Equal(list[2].VisitedAt))
}

func TestRepository_ListByRestaurant(t *testing.T) {
	repo := NewRepository(setupTestStore(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, rid := range []string{"r1", "r2", "r1"} {
		_, err := repo.Create(ctx, newVisit("u1", rid, base.AddDate(0, 0, i)))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newVisit("u2", "r1", base))
	require.NoError(t, err)

	list, err := repo.ListByRestaurant(ctx, "u1", "r1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].VisitedAt.After(list[1].VisitedAt))
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
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, days := range []int{2, 5, 1} {
		_, err := repo.Create(ctx, newVisit("u1", "r1", base.AddDate(0, 0, days)))
		require.NoError(t, err)
	}

	list, err := repo.ListByRestaurant(ctx, "u1", "r1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, base.AddDate(0, 0, 5).Equal(list[0].VisitedAt))
	assert.True(t, base.AddDate(0, 0, 1).Equal(list[2].VisitedAt))

	list, err = repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
