package users

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/matjip/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestDB(t)

	user := &entities.User{Username: "alice", Email: "alice@example.com", Role: entities.UserRoleMember}
	require.NoError(t, repo.Create(user))
	assert.NotEmpty(t, user.ID)

	dup := &entities.User{Username: "alice2", Email: "alice@example.com"}
	assert.ErrorIs(t, repo.Create(dup), ErrExists)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_Lookups(t *testing.T) {
	repo := setupTestDB(t)
	user := &entities.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.Create(user))

	byID, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", byID.Username)

	byEmail, err := repo.GetByLogin("bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetByLogin("carol")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_LoginCounters(t *testing.T) {
	repo := setupTestDB(t)
	user := &entities.User{Username: "dave", Email: "dave@example.com"}
	require.NoError(t, repo.Create(user))

	lock := time.Now().Add(time.Hour)
	require.NoError(t, repo.RecordFailedLogin(user.ID, 5, &lock))
	got, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.FailedLoginCount)
	require.NotNil(t, got.LockedUntil)

	require.NoError(t, repo.RecordLogin(user.ID, time.Now()))
	got, err = repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedLoginCount)
	assert.Nil(t, got.LockedUntil)
	assert.NotNil(t, got.LastLoginAt)
}
