package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/auth"
	"github.com/mrlokans/matjip/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Logger  *zap.Logger
	Version string

	// Store is pinged by /health.
	Store Pinger

	// Domain
	Restaurants RestaurantStore
	Catalog     RestaurantCatalog
	Visits      VisitStore
	Bookmarks   BookmarkStore
	Sync        SyncRunner
	Scheduler   ScheduleInfo // optional

	// Task queue client (optional). Without it POST /api/sync runs inline.
	TaskClient *tasks.Client

	// Authentication
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	SessionManager *auth.SessionManager // local mode only
	CSRFSecret     []byte               // local mode only
	SecureCookies  bool

	CORSAllowedOrigins []string

	// Audit records deletions and sync requests and backs GET /api/audit
	// (admin only). Optional.
	Audit AuditLogger

	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}
