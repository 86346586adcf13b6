package entrypoint

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/audit"
	"github.com/mrlokans/matjip/internal/config"
	"github.com/mrlokans/matjip/internal/daegufood"
	"github.com/mrlokans/matjip/internal/database"
	auditRepo "github.com/mrlokans/matjip/internal/database/audit"
	"github.com/mrlokans/matjip/internal/database/bookmarks"
	"github.com/mrlokans/matjip/internal/database/restaurants"
	synclog "github.com/mrlokans/matjip/internal/database/sync"
	"github.com/mrlokans/matjip/internal/database/users"
	"github.com/mrlokans/matjip/internal/database/visits"
	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/firebase"
	"github.com/mrlokans/matjip/internal/services"
)

// App holds the components shared by the server and the CLI commands.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry

	// DB is the local SQLite database. It always exists: users, sessions
	// and the task queue live there whatever the document store backend.
	DB       *database.Database
	Store    docstore.Store
	Firebase *firebase.App // nil unless firestore or firebase auth is used

	Restaurants *restaurants.Repository
	Visits      *visits.Repository
	Bookmarks   *bookmarks.Repository
	SyncLog     *synclog.Repository
	Users       *users.Repository

	Sync  *services.SyncService
	Audit *audit.Service // nil when the audit trail is disabled
}

// Bootstrap opens the stores and wires the repositories and the
// synchronizer. Close must be called when done.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}
	app.DB = db

	if cfg.Store.Backend == config.StoreBackendFirestore || cfg.Auth.Mode == config.AuthModeFirebase {
		app.Firebase, err = firebase.NewApp(ctx, cfg.Firebase, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	app.Store, err = openStore(ctx, cfg.Store.Backend, app)
	if err != nil {
		app.Close()
		return nil, err
	}
	logger.Info("document store ready", zap.String("backend", string(cfg.Store.Backend)))

	app.Restaurants = restaurants.NewRepository(app.Store)
	app.Visits = visits.NewRepository(app.Store)
	app.Bookmarks = bookmarks.NewRepository(app.Store)
	app.SyncLog = synclog.NewRepository(app.Store)
	app.Users = users.NewRepository(db.DB)
	if cfg.Audit.Enabled {
		app.Audit = audit.NewService(auditRepo.NewRepository(db.DB), logger)
	}

	client := daegufood.NewClient(
		daegufood.WithBaseURL(cfg.DaeguFood.BaseURL),
		daegufood.WithTimeout(cfg.DaeguFood.Timeout),
		daegufood.WithRateLimit(cfg.DaeguFood.RequestsPerSecond),
	)
	app.Sync = services.NewSyncService(client, app.Restaurants, app.SyncLog, logger,
		services.WithSyncMetrics(services.NewSyncMetrics(app.Registry)))

	return app, nil
}

func openStore(ctx context.Context, backend config.StoreBackend, app *App) (docstore.Store, error) {
	switch backend {
	case config.StoreBackendSQLite, "":
		return docstore.NewSQLStore(app.DB.DB), nil
	case config.StoreBackendMemory:
		app.Logger.Warn("using in-memory document store, data is lost on exit")
		return docstore.NewMemoryStore(), nil
	case config.StoreBackendFirestore:
		client, err := app.Firebase.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		return docstore.NewFirestoreStore(client), nil
	}
	return nil, errors.Errorf("unknown store backend %q", backend)
}

// Close waits for pending audit writes and releases the stores. Errors are
// logged.
func (a *App) Close() {
	if a.Audit != nil {
		a.Audit.Close()
	}
	var err error
	switch {
	case a.Firebase != nil:
		// owns the Firestore client behind the store
		err = a.Firebase.Close()
	case a.Store != nil:
		err = a.Store.Close()
	}
	if err != nil {
		a.Logger.Warn("error closing document store", zap.Error(err))
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("error closing database", zap.Error(err))
		}
	}
}
