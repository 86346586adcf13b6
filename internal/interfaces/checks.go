package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	fbauth "firebase.google.com/go/auth"

	"github.com/mrlokans/matjip/internal/audit"
	"github.com/mrlokans/matjip/internal/auth"
	"github.com/mrlokans/matjip/internal/cli"
	"github.com/mrlokans/matjip/internal/daegufood"
	"github.com/mrlokans/matjip/internal/database/bookmarks"
	"github.com/mrlokans/matjip/internal/database/restaurants"
	synclog "github.com/mrlokans/matjip/internal/database/sync"
	"github.com/mrlokans/matjip/internal/database/users"
	"github.com/mrlokans/matjip/internal/database/visits"
	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/http"
	"github.com/mrlokans/matjip/internal/scheduler"
	"github.com/mrlokans/matjip/internal/services"
	"github.com/mrlokans/matjip/internal/tasks"
)

// =============================================================================
// Document Store Backends
// =============================================================================

var _ docstore.Store = (*docstore.SQLStore)(nil)
var _ docstore.Store = (*docstore.MemoryStore)(nil)
var _ docstore.Store = (*docstore.FirestoreStore)(nil)

// Pinger implementations (/health)
var _ http.Pinger = (docstore.Store)(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.RestaurantStore = (*restaurants.Repository)(nil)
var _ http.VisitStore = (*visits.Repository)(nil)
var _ http.BookmarkStore = (*bookmarks.Repository)(nil)
var _ auth.UserRepository = (*users.Repository)(nil)

// =============================================================================
// Cache Synchronizer
// =============================================================================

var _ services.RegionFetcher = (*daegufood.Client)(nil)
var _ services.RestaurantCache = (*restaurants.Repository)(nil)
var _ services.SyncLog = (*synclog.Repository)(nil)

// SyncService drives every sync entry point
var _ http.SyncRunner = (*services.SyncService)(nil)
var _ http.RestaurantCatalog = (*services.SyncService)(nil)
var _ scheduler.Syncer = (*services.SyncService)(nil)
var _ tasks.RestaurantSyncer = (*services.SyncService)(nil)
var _ cli.Syncer = (*services.SyncService)(nil)

var _ http.ScheduleInfo = (*scheduler.RestaurantSyncScheduler)(nil)

// =============================================================================
// Authentication and Audit
// =============================================================================

var _ auth.TokenVerifier = (*fbauth.Client)(nil)
var _ auth.SessionObserver = (*audit.Service)(nil)
var _ http.AuditLogger = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
