package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	fbauth "firebase.google.com/go/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/matjip/internal/auth"
	"github.com/mrlokans/matjip/internal/config"
	"github.com/mrlokans/matjip/internal/daegufood"
	auditRepo "github.com/mrlokans/matjip/internal/database/audit"
	"github.com/mrlokans/matjip/internal/database/bookmarks"
	"github.com/mrlokans/matjip/internal/database/restaurants"
	synclog "github.com/mrlokans/matjip/internal/database/sync"
	"github.com/mrlokans/matjip/internal/database/visits"
	"github.com/mrlokans/matjip/internal/docstore"
	"github.com/mrlokans/matjip/internal/entities"
	"github.com/mrlokans/matjip/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	aliceToken = "Bearer alice-token" // admin
	bobToken   = "Bearer bob-token"
)

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, token string) (*fbauth.Token, error) {
	switch token {
	case "alice-token":
		return &fbauth.Token{UID: "alice", Claims: map[string]interface{}{"admin": true}}, nil
	case "bob-token":
		return &fbauth.Token{UID: "bob"}, nil
	}
	return nil, errors.New("bad token")
}

type stubFetcher struct {
	mu    sync.Mutex
	rows  map[string][]daegufood.Item
	calls int
}

func (f *stubFetcher) SearchByRegion(_ context.Context, region string) ([]daegufood.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.rows[region], nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func upstreamRow(id int, region, category string) daegufood.Item {
	return daegufood.Item{
		OpenDataID: fmt.Sprintf("%d", id),
		Name:       fmt.Sprintf("식당 %d", id),
		Address:    "대구광역시 " + region + " 동성로 " + fmt.Sprint(id),
		Category:   category,
	}
}

type testApp struct {
	router      *gin.Engine
	store       docstore.Store
	restaurants *restaurants.Repository
	visits      *visits.Repository
	bookmarks   *bookmarks.Repository
	syncLog     *synclog.Repository
	fetcher     *stubFetcher
	audit       *recordingAudit
}

// recordingAudit keeps audit events in memory.
type recordingAudit struct {
	mu     sync.Mutex
	events []entities.AuditEvent
}

func (r *recordingAudit) add(e entities.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uint(len(r.events) + 1)
	r.events = append(r.events, e)
}

func (r *recordingAudit) LogSync(userID, ipAddr string, force bool, taskID string, err error) {
	e := entities.AuditEvent{UserID: userID, EventType: entities.AuditEventSync, Action: "sync_trigger",
		IPAddress: ipAddr, Status: entities.AuditStatusSuccess}
	if err != nil {
		e.Status = entities.AuditStatusFailed
	}
	r.add(e)
}

func (r *recordingAudit) LogDelete(userID, ipAddr, entityType, entityID, entityName string) {
	r.add(entities.AuditEvent{UserID: userID, EventType: entities.AuditEventDelete, Action: entityType + "_delete",
		EntityType: entityType, EntityID: entityID, Description: entityName, IPAddress: ipAddr,
		Status: entities.AuditStatusSuccess})
}

func (r *recordingAudit) GetEvents(f auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.AuditEvent
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if (f.UserID == "" || e.UserID == f.UserID) && (f.EventType == "" || e.EventType == f.EventType) {
			out = append(out, e)
		}
	}
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *recordingAudit) snapshot() []entities.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.AuditEvent(nil), r.events...)
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := docstore.NewMemoryStore()
	app := &testApp{
		store:       store,
		restaurants: restaurants.NewRepository(store),
		visits:      visits.NewRepository(store),
		bookmarks:   bookmarks.NewRepository(store),
		syncLog:     synclog.NewRepository(store),
		audit:       &recordingAudit{},
		fetcher: &stubFetcher{rows: map[string][]daegufood.Item{
			"중구":  {upstreamRow(1, "중구", "한식"), upstreamRow(2, "중구", "일식")},
			"수성구": {upstreamRow(3, "수성구", "한식")},
		}},
	}

	reg := prometheus.NewRegistry()
	svc := services.NewSyncService(app.fetcher, app.restaurants, app.syncLog, zap.NewNop(),
		services.WithRegions("중구", "수성구"),
		services.WithSyncMetrics(services.NewSyncMetrics(reg)))

	authCfg := config.Auth{Mode: config.AuthModeFirebase}
	app.router = NewRouter(RouterConfig{
		Logger:         zap.NewNop(),
		Version:        "test",
		Store:          store,
		Restaurants:    app.restaurants,
		Catalog:        svc,
		Visits:         app.visits,
		Bookmarks:      app.bookmarks,
		Sync:           svc,
		AuthMiddleware: auth.NewMiddleware(authCfg, auth.WithFirebase(auth.NewFirebaseAuthenticator(stubVerifier{}))),
		AuthController: auth.NewAuthController(nil, nil, nil, nil, zap.NewNop()),
		Audit:          app.audit,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return app
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) doWithHeaders(t *testing.T, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seed syncs the stub upstream into the cache and returns the cached
// restaurant with external id "1".
func (a *testApp) seed(t *testing.T) string {
	t.Helper()
	w := a.do(t, http.MethodGet, "/api/restaurants", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	r, err := a.restaurants.FindByExternalID(context.Background(), "1")
	require.NoError(t, err)
	return r.ID
}
