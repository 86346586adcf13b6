package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/matjip/internal/entities"
)

func TestAudit_RecordsDeletesAndSyncs(t *testing.T) {
	app := newTestApp(t)
	restaurantID := app.seed(t)

	w := app.do(t, http.MethodPost, "/api/visits", bobToken, map[string]any{
		"restaurant_id": restaurantID,
		"rating":        3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	visit := decode[entities.Visit](t, w)

	w = app.do(t, http.MethodPost, "/api/bookmark-groups", bobToken, map[string]any{"name": "점심"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	group := decode[entities.BookmarkGroup](t, w)

	require.Equal(t, http.StatusNoContent, app.do(t, http.MethodDelete, "/api/visits/"+visit.ID, bobToken, nil).Code)
	require.Equal(t, http.StatusNoContent, app.do(t, http.MethodDelete, "/api/bookmark-groups/"+group.ID, bobToken, nil).Code)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/sync", aliceToken, nil).Code)

	events := app.audit.snapshot()
	require.Len(t, events, 3)

	assert.Equal(t, "visit_delete", events[0].Action)
	assert.Equal(t, "bob", events[0].UserID)
	assert.Equal(t, visit.ID, events[0].EntityID)
	assert.Equal(t, "식당 1", events[0].Description)

	assert.Equal(t, "bookmark_group_delete", events[1].Action)
	assert.Equal(t, "점심", events[1].Description)

	assert.Equal(t, entities.AuditEventSync, events[2].EventType)
	assert.Equal(t, "alice", events[2].UserID)
}

func TestAudit_FailedDeleteIsNotRecorded(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodDelete, "/api/visits/missing", bobToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, app.audit.snapshot())
}

func TestAuditController_List(t *testing.T) {
	app := newTestApp(t)
	app.audit.LogDelete("bob", "", "visit", "v1", "a")
	app.audit.LogDelete("carol", "", "bookmark", "b1", "b")
	app.audit.LogSync("alice", "", true, "", nil)

	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/api/audit", bobToken, nil).Code)

	w := app.do(t, http.MethodGet, "/api/audit", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	all := decode[ListResponse[entities.AuditEvent]](t, w)
	assert.Equal(t, 3, all.Total)
	require.Len(t, all.Data, 3)
	assert.Equal(t, "alice", all.Data[0].UserID, "newest first")

	w = app.do(t, http.MethodGet, "/api/audit?type=delete&limit=1", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[ListResponse[entities.AuditEvent]](t, w)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "carol", page.Data[0].UserID)

	w = app.do(t, http.MethodGet, "/api/audit?user_id=bob", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[ListResponse[entities.AuditEvent]](t, w).Total)

	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodGet, "/api/audit?limit=-3", aliceToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodGet, "/api/audit?offset=x", aliceToken, nil).Code)
}
