package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/matjip/internal/auth"
	auditRepo "github.com/mrlokans/matjip/internal/database/audit"
	"github.com/mrlokans/matjip/internal/entities"
)

const maxAuditPageSize = 200

// AuditLogger is implemented by *audit.Service.
type AuditLogger interface {
	LogSync(userID, ipAddr string, force bool, taskID string, err error)
	LogDelete(userID, ipAddr, entityType, entityID, entityName string)
	GetEvents(f auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

type nopAudit struct{}

func (nopAudit) LogSync(string, string, bool, string, error)        {}
func (nopAudit) LogDelete(string, string, string, string, string) {}
func (nopAudit) GetEvents(auditRepo.Filter, int, int) ([]entities.AuditEvent, int64, error) {
	return nil, 0, nil
}

func auditOrNop(a AuditLogger) AuditLogger {
	if a == nil {
		return nopAudit{}
	}
	return a
}

type AuditController struct {
	audit AuditLogger
}

func NewAuditController(a AuditLogger) *AuditController {
	return &AuditController{audit: a}
}

// List handles GET /api/audit?user_id=&type=&limit=&offset=
func (ac *AuditController) List(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", 50)
	if !ok {
		return
	}
	offset, ok := parseIntQuery(c, "offset", 0)
	if !ok {
		return
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	filter := auditRepo.Filter{
		UserID:    c.Query("user_id"),
		EventType: entities.AuditEventType(c.Query("type")),
	}
	events, total, err := ac.audit.GetEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}
	c.JSON(http.StatusOK, ListResponse[entities.AuditEvent]{Data: events, Total: int(total)})
}

func parseIntQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondBadRequest(c, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// auditActor returns the user and client address recorded for a request.
func auditActor(c *gin.Context) (string, string) {
	return auth.GetUserID(c), c.ClientIP()
}
