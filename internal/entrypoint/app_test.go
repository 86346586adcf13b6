package entrypoint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/config"
	auditRepo "github.com/mrlokans/matjip/internal/database/audit"
	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
)

func testConfig(t *testing.T, backend config.StoreBackend, mode config.AuthMode) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "matjip.db")
	cfg.Store.Backend = backend
	cfg.DaeguFood.BaseURL = "http://127.0.0.1:1"
	cfg.DaeguFood.Timeout = time.Second
	cfg.Auth = config.Auth{
		Mode:             mode,
		SessionLifetime:  time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 3,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}
	return cfg
}

func TestBootstrap_Backends(t *testing.T) {
	for _, backend := range []config.StoreBackend{config.StoreBackendSQLite, config.StoreBackendMemory, ""} {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			app, err := Bootstrap(ctx, testConfig(t, backend, config.AuthModeNone), zap.NewNop())
			require.NoError(t, err)
			defer app.Close()

			assert.Nil(t, app.Firebase)
			require.NoError(t, app.Store.Ping(ctx))

			id, created, err := app.Restaurants.Cache(ctx, entities.Restaurant{ExternalID: "42", Name: "Test"})
			require.NoError(t, err)
			assert.True(t, created)

			got, err := app.Restaurants.GetByID(ctx, "42")
			require.NoError(t, err)
			assert.Equal(t, id, got.ID)

			stale, err := app.Sync.IsStale(ctx)
			require.NoError(t, err)
			assert.True(t, stale)
		})
	}
}

func TestBootstrap_SQLiteBackendUsesDatabase(t *testing.T) {
	ctx := context.Background()
	app, err := Bootstrap(ctx, testConfig(t, config.StoreBackendSQLite, config.AuthModeNone), zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Store.Add(ctx, "probe", docstore.Document{"k": "v"})
	require.NoError(t, err)

	var n int64
	require.NoError(t, app.DB.DB.Model(&docstore.Record{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestBootstrap_UnknownBackend(t *testing.T) {
	_, err := Bootstrap(context.Background(), testConfig(t, "cassandra", config.AuthModeNone), zap.NewNop())
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestSetupAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		app, err := Bootstrap(ctx, testConfig(t, config.StoreBackendMemory, config.AuthModeNone), zap.NewNop())
		require.NoError(t, err)
		defer app.Close()

		ac, err := setupAuth(ctx, app)
		require.NoError(t, err)
		defer ac.controller.Stop()
		assert.NotNil(t, ac.middleware)
		assert.Nil(t, ac.sessions)
		assert.Empty(t, ac.csrfSecret)
	})

	t.Run("local", func(t *testing.T) {
		app, err := Bootstrap(ctx, testConfig(t, config.StoreBackendMemory, config.AuthModeLocal), zap.NewNop())
		require.NoError(t, err)
		defer app.Close()

		ac, err := setupAuth(ctx, app)
		require.NoError(t, err)
		defer ac.controller.Stop()
		assert.NotNil(t, ac.sessions)
		assert.Len(t, ac.csrfSecret, 32)
	})

	t.Run("unknown", func(t *testing.T) {
		app, err := Bootstrap(ctx, testConfig(t, config.StoreBackendMemory, "ldap"), zap.NewNop())
		require.NoError(t, err)
		defer app.Close()

		_, err = setupAuth(ctx, app)
		assert.ErrorContains(t, err, "unknown auth mode")
	})
}

func TestBootstrap_Audit(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t, config.StoreBackendMemory, config.AuthModeNone)
	app, err := Bootstrap(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, app.Audit)
	app.Close()

	cfg.Audit.Enabled = true
	app, err = Bootstrap(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.Audit)

	app.Audit.LogDelete("u1", "", "visit", "v1", "식당")
	app.Audit.Close()

	events, total, err := app.Audit.GetEvents(auditRepo.Filter{UserID: "u1"}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "visit_delete", events[0].Action)
}
