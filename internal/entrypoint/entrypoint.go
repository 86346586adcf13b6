package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/auth"
	"github.com/mrlokans/matjip/internal/config"
	http_controllers "github.com/mrlokans/matjip/internal/http"
	"github.com/mrlokans/matjip/internal/logging"
	"github.com/mrlokans/matjip/internal/scheduler"
	"github.com/mrlokans/matjip/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	// kill -2 is syscall.SIGINT, SIGKILL cannot be caught
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return errors.Wrap(err, "listen")
	case <-quit:
	}
	logger.Info("shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}
	logger.Info("server exited")
	return nil
}

// authComponents are the mode-specific pieces handed to the router.
type authComponents struct {
	middleware *auth.Middleware
	controller *auth.AuthController
	sessions   *auth.SessionManager
	csrfSecret []byte
}

func setupAuth(ctx context.Context, app *App) (*authComponents, error) {
	cfg := app.Config.Auth
	logger := app.Logger

	notifier := auth.NewNotifier()
	notifier.Subscribe(auth.ObserverFunc(func(ev auth.SessionEvent) {
		logger.Info("auth event",
			zap.String("event", string(ev.Type)),
			zap.String(logging.FieldUserID, ev.Session.UserID),
			zap.String("auth_type", string(ev.Session.AuthType)))
	}))
	if app.Audit != nil {
		notifier.Subscribe(app.Audit)
	}

	switch cfg.Mode {
	case config.AuthModeLocal:
		svc := auth.NewService(app.Users, cfg, notifier, logger)

		sqlDB, err := app.DB.DB.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get SQL DB for sessions")
		}
		sessions, err := auth.NewSessionManager(sqlDB, cfg)
		if err != nil {
			return nil, err
		}

		secret, generated, err := auth.DecodeSessionSecret(cfg.SessionSecret)
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate CSRF secret")
		}
		if generated {
			logger.Warn("generated session secret, set AUTH_SESSION_SECRET to persist it across restarts")
		}
		if hasUsers, _ := svc.HasUsers(); !hasUsers {
			logger.Info("no users yet, the first account registered becomes admin")
		}

		logger.Info("authentication mode: local")
		return &authComponents{
			middleware: auth.NewMiddleware(cfg, auth.WithLocal(svc, sessions), auth.WithLogger(logger)),
			controller: auth.NewAuthController(svc, sessions, auth.NewRateLimiter(cfg, 5*time.Minute), notifier, logger),
			sessions:   sessions,
			csrfSecret: secret,
		}, nil

	case config.AuthModeFirebase:
		client, err := app.Firebase.Auth(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("authentication mode: firebase")
		return &authComponents{
			middleware: auth.NewMiddleware(cfg, auth.WithFirebase(auth.NewFirebaseAuthenticator(client)), auth.WithLogger(logger)),
			controller: auth.NewAuthController(nil, nil, nil, notifier, logger),
		}, nil

	case config.AuthModeNone, "":
		logger.Info("authentication mode: none, all data belongs to the default user")
		return &authComponents{
			middleware: auth.NewMiddleware(cfg, auth.WithLogger(logger)),
			controller: auth.NewAuthController(nil, nil, nil, notifier, logger),
		}, nil
	}
	return nil, errors.Errorf("unknown auth mode %q", cfg.Mode)
}

// pruneAuditTrail drops audit events past the retention period, through the
// task queue when there is one.
func pruneAuditTrail(app *App, taskClient *tasks.Client) {
	retention := app.Config.Audit.Retention
	if app.Audit == nil || retention <= 0 {
		return
	}
	if taskClient != nil {
		if _, err := taskClient.Add(tasks.CleanupAuditEventsTask{Retention: retention}).Save(); err != nil {
			app.Logger.Warn("failed to enqueue audit cleanup", zap.Error(err))
		}
		return
	}
	if _, err := app.Audit.DeleteOldEvents(retention); err != nil {
		app.Logger.Warn("failed to prune audit events", zap.Error(err))
	}
}

// Run starts the HTTP server with the scheduler and the task queue and
// blocks until shutdown.
func Run(cfg *config.Config, version string, logger *zap.Logger) error {
	logger.Info("starting matjip", zap.String("version", version))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks), logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Warn("error closing task client", zap.Error(err))
			}
		}()
		taskClient.Register(tasks.NewSyncRestaurantsQueue(app.Sync, logger))
		if app.Audit != nil {
			taskClient.Register(tasks.NewCleanupAuditEventsQueue(app.Audit, logger))
		}
		go taskClient.Start(ctx)
	}
	pruneAuditTrail(app, taskClient)

	syncScheduler := scheduler.NewRestaurantSyncScheduler(app.Sync, cfg.RestaurantSync, logger)
	if err := syncScheduler.Start(ctx); err != nil {
		return err
	}
	if cfg.RestaurantSync.OnStartup {
		go syncScheduler.RunStartupSync(ctx)
	}

	authc, err := setupAuth(ctx, app)
	if err != nil {
		return err
	}
	defer authc.controller.Stop()

	routerCfg := http_controllers.RouterConfig{
		Logger:             logger,
		Version:            version,
		Store:              app.Store,
		Restaurants:        app.Restaurants,
		Catalog:            app.Sync,
		Visits:             app.Visits,
		Bookmarks:          app.Bookmarks,
		Sync:               app.Sync,
		Scheduler:          syncScheduler,
		TaskClient:         taskClient,
		AuthMiddleware:     authc.middleware,
		AuthController:     authc.controller,
		SessionManager:     authc.sessions,
		CSRFSecret:         authc.csrfSecret,
		SecureCookies:      cfg.Auth.SecureCookies,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
	}
	if app.Audit != nil {
		routerCfg.Audit = app.Audit
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		syncScheduler.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		cancel()
	}

	return Serve(router, cfg, logger, onShutdown)
}
