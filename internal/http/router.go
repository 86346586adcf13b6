package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/auth"
	"github.com/mrlokans/matjip/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(accessLog(logger))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF runs before the session loader so the session context survives
	// the request replacement done by gorilla/csrf.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	router.GET("/health", NewHealthController(cfg.Store, cfg.Version).Status)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	NewRestaurantsController(cfg.Restaurants, cfg.Catalog).RegisterRoutes(router)
	NewVisitsController(cfg.Visits, cfg.Restaurants, cfg.Audit).RegisterRoutes(router)
	NewBookmarksController(cfg.Bookmarks, cfg.Restaurants, cfg.Audit).RegisterRoutes(router)

	adminOnly := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if cfg.AuthMiddleware == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{cfg.AuthMiddleware.RequireRole(entities.UserRoleAdmin), h}
	}

	syncController := NewSyncController(cfg.Sync, cfg.Scheduler, cfg.TaskClient, cfg.Audit)
	router.GET("/api/sync/status", syncController.GetStatus)
	router.POST("/api/sync", adminOnly(syncController.Trigger)...)

	if cfg.Audit != nil {
		router.GET("/api/audit", adminOnly(NewAuditController(cfg.Audit).List)...)
	}

	if cfg.TaskClient != nil {
		router.GET("/api/tasks/:id", NewTasksController(cfg.TaskClient).GetTaskStatus)
	}

	return router
}

// corsMiddleware allows the configured origins with credentials, or any
// origin without credentials when none or "*" is configured.
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", auth.CSRFTokenHeader},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return cors.New(c)
}
