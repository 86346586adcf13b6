package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/matjip/internal/config"
	"github.com/mrlokans/matjip/internal/database/users"
	"github.com/mrlokans/matjip/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "correct horse battery"

func testAuthConfig(mode config.AuthMode) config.Auth {
	return config.Auth{
		Mode:             mode,
		SessionLifetime:  24 * time.Hour,
		BcryptCost:       4, // low cost for faster tests
		SecureCookies:    false,
		MaxLoginAttempts: 3,
		RateLimitWindow:  15 * time.Minute,
		LockoutDuration:  30 * time.Minute,
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func setupService(t *testing.T, cfg config.Auth) (*Service, *Notifier, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	notifier := NewNotifier()
	return NewService(users.NewRepository(db), cfg, notifier, zap.NewNop()), notifier, db
}
