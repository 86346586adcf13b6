package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/matjip/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestRepository_LogEvent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	event := &entities.AuditEvent{
		UserID:    "u1",
		EventType: entities.AuditEventSync,
		Action:    "sync_trigger",
		Metadata:  datatypes.JSONMap{"force": true},
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, repo.LogEvent(event))
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())

	events, total, err := repo.List(Filter{}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, true, events[0].Metadata["force"])
}

func TestRepository_List(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 15; i++ {
		userID, typ := "u1", entities.AuditEventAuth
		if i%3 == 0 {
			userID, typ = "u2", entities.AuditEventDelete
		}
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{
			UserID:    userID,
			EventType: typ,
			Action:    "test",
			Status:    entities.AuditStatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("pagination", func(t *testing.T) {
		page, total, err := repo.List(Filter{}, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 15, total)
		require.Len(t, page, 10)
		assert.True(t, page[0].CreatedAt.After(page[9].CreatedAt))

		rest, _, err := repo.List(Filter{}, 10, 10)
		require.NoError(t, err)
		assert.Len(t, rest, 5)
	})

	t.Run("by user", func(t *testing.T) {
		events, total, err := repo.List(Filter{UserID: "u2"}, 0, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		for _, e := range events {
			assert.Equal(t, "u2", e.UserID)
		}
	})

	t.Run("by type", func(t *testing.T) {
		_, total, err := repo.List(Filter{EventType: entities.AuditEventAuth}, 0, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 10, total)

		_, total, err = repo.List(Filter{UserID: "u2", EventType: entities.AuditEventAuth}, 0, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	now := time.Now().UTC()

	for _, age := range []time.Duration{48 * time.Hour, 36 * time.Hour, time.Hour} {
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{
			UserID:    "u1",
			EventType: entities.AuditEventAuth,
			Status:    entities.AuditStatusSuccess,
			CreatedAt: now.Add(-age),
		}))
	}

	deleted, err := repo.DeleteOlderThan(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, total, err := repo.List(Filter{}, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
