package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/matjip/internal/services"
	"github.com/mrlokans/matjip/internal/tasks"
)

// statusLogLimit is the number of sync log entries in the status response.
const statusLogLimit = 10

// SyncRunner is implemented by *services.SyncService.
type SyncRunner interface {
	SyncIfNeeded(ctx context.Context) (services.SyncOutcome, error)
	SyncAll(ctx context.Context) (services.SyncResult, error)
	Status(ctx context.Context, limit int) (services.Status, error)
}

// ScheduleInfo is implemented by *scheduler.RestaurantSyncScheduler.
type ScheduleInfo interface {
	GetNextRunTime() *time.Time
	IsSyncing() bool
}

type SyncController struct {
	sync      SyncRunner
	scheduler ScheduleInfo
	tasks     *tasks.Client
	audit     AuditLogger
}

// NewSyncController creates the sync controller. scheduler, taskClient and
// audit may be nil.
func NewSyncController(sync SyncRunner, scheduler ScheduleInfo, taskClient *tasks.Client, audit AuditLogger) *SyncController {
	return &SyncController{sync: sync, scheduler: scheduler, tasks: taskClient, audit: auditOrNop(audit)}
}

type SyncStatusResponse struct {
	services.Status
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	Syncing   bool       `json:"syncing"`
}

// GetStatus handles GET /api/sync/status
func (sc *SyncController) GetStatus(c *gin.Context) {
	st, err := sc.sync.Status(c.Request.Context(), statusLogLimit)
	if err != nil {
		respondInternalError(c, err, "sync status")
		return
	}
	resp := SyncStatusResponse{Status: st}
	if sc.scheduler != nil {
		resp.NextRunAt = sc.scheduler.GetNextRunTime()
		resp.Syncing = sc.scheduler.IsSyncing()
	}
	c.JSON(http.StatusOK, resp)
}

// Trigger handles POST /api/sync?force=
// With a task queue the sync is enqueued and 202 is returned; otherwise it
// runs within the request.
func (sc *SyncController) Trigger(c *gin.Context) {
	force, ok := parseBoolQuery(c, "force")
	if !ok {
		return
	}

	userID, ip := auditActor(c)

	if sc.tasks != nil {
		ids, err := sc.tasks.Add(tasks.SyncRestaurantsTask{
			Force:       force,
			RequestedBy: userID,
		}).Save()
		if err != nil {
			sc.audit.LogSync(userID, ip, force, "", err)
			respondInternalError(c, err, "enqueue sync")
			return
		}
		sc.audit.LogSync(userID, ip, force, ids[0], nil)
		c.JSON(http.StatusAccepted, gin.H{
			"task_id": ids[0],
			"type":    tasks.SyncRestaurantsQueue,
			"message": "task enqueued",
		})
		return
	}

	ctx := c.Request.Context()
	if force {
		result, err := sc.sync.SyncAll(ctx)
		sc.audit.LogSync(userID, ip, force, "", err)
		if err != nil {
			respondBadGateway(c, err, "sync restaurants")
			return
		}
		c.JSON(http.StatusOK, services.SyncOutcome{Synced: true, Result: &result})
		return
	}

	outcome, err := sc.sync.SyncIfNeeded(ctx)
	sc.audit.LogSync(userID, ip, force, "", err)
	if err != nil {
		respondBadGateway(c, err, "sync restaurants")
		return
	}
	c.JSON(http.StatusOK, outcome)
}
