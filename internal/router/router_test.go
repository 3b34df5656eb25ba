package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-seat-layout/internal/config"
	"github.com/iliyamo/venue-seat-layout/internal/editor"
	"github.com/iliyamo/venue-seat-layout/internal/handler"
	"github.com/iliyamo/venue-seat-layout/internal/middleware"
	"github.com/iliyamo/venue-seat-layout/internal/session"
	"github.com/iliyamo/venue-seat-layout/internal/utils"
)

const secret = "router-test-secret"

type testServer struct {
	t     *testing.T
	e     *echo.Echo
	store *session.MemoryStore
}

func newTestServer(t *testing.T, checks map[string]handler.Check) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := session.NewMemoryStore()
	manager := editor.NewManager(store, editor.Config{}, log.New(io.Discard, "", 0))
	cache := middleware.NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "test", MaxBodyBytes: 1 << 20}, rdb)
	limiter := middleware.NewTokenBucket(config.RateLimitConfig{}, nil)

	e := echo.New()
	RegisterRoutes(e, checks)
	RegisterSeats(e, handler.NewSeatHandler(), secret, limiter, cache)
	RegisterLayouts(e, handler.NewLayoutHandler(store), secret)
	RegisterSessions(e, handler.NewSessionHandler(manager), secret)
	return &testServer{t: t, e: e, store: store}
}

func (s *testServer) token(subject, role string) string {
	s.t.Helper()
	tok, err := utils.NewAccessToken(secret, subject, role, time.Hour)
	require.NoError(s.t, err)
	return tok.Token
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const generateBody = `{
	"polygon": [{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":40},{"x":0,"y":40}],
	"options": {"capacity": 10, "seat_size": 20, "spacing": 0, "pattern": "grid"}
}`

func TestProbes(t *testing.T) {
	s := newTestServer(t, map[string]handler.Check{
		"store": func(context.Context) error { return nil },
	})
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/readyz", "", "").Code)

	s = newTestServer(t, map[string]handler.Check{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	rec := s.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestSeatEndpointsRequireDesignerOrOwner(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/v1/seats/generate", generateBody, "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/v1/seats/generate", generateBody, s.token("vic", "VIEWER")).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/seats/generate", generateBody, s.token("dana", middleware.RoleDesigner)).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/seats/generate", generateBody, s.token("olga", middleware.RoleOwner)).Code)
}

func TestGenerateReturnsPlanAndIsCached(t *testing.T) {
	s := newTestServer(t, nil)
	tok := s.token("dana", middleware.RoleDesigner)

	first := s.do(http.MethodPost, "/v1/seats/generate", generateBody, tok)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	plan := decode(t, first)
	assert.Len(t, plan["seats"], 10)
	assert.EqualValues(t, 10, plan["requested"])
	assert.EqualValues(t, 10, plan["max_capacity"])
	assert.Equal(t, false, plan["clamped"])

	second := s.do(http.MethodPost, "/v1/seats/generate", generateBody, tok)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestGenerateRejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)
	tok := s.token("dana", middleware.RoleDesigner)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/seats/generate", `{"polygon":`, tok).Code)
	rec := s.do(http.MethodPost, "/v1/seats/generate", `{"polygon":[{"x":0,"y":0},{"x":9,"y":0},{"x":0,"y":9}],"options":{"capacity":999999}}`, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/seats/generate", `{"polygon":[{"x":0,"y":0}],"options":{"capacity":5}}`, tok)
	require.Equal(t, http.StatusOK, rec.Code, "degenerate polygons generate nothing")
	assert.Empty(t, decode(t, rec)["seats"])
}

func TestCapacityEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"polygon":[{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":100},{"x":0,"y":100}],"seat_size":20,"spacing":0,"pattern":"grid"}`
	rec := s.do(http.MethodPost, "/v1/seats/capacity", body, s.token("dana", middleware.RoleDesigner))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.EqualValues(t, 25, out["max_capacity"])
	assert.Equal(t, "grid", out["pattern"])
}

func TestLayoutSaveAndConflict(t *testing.T) {
	s := newTestServer(t, nil)
	dana := s.token("dana", middleware.RoleDesigner)
	eli := s.token("eli", middleware.RoleDesigner)
	olga := s.token("olga", middleware.RoleOwner)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/layouts/hall-1", "", dana).Code)

	rec := s.do(http.MethodPut, "/v1/layouts/hall-1", `{"payload":{"zones":[]},"expected_version":0}`, dana)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["version"])

	rec = s.do(http.MethodPut, "/v1/layouts/hall-1", `{"payload":{"zones":[{"id":"z"}]},"expected_version":0}`, eli)
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode(t, rec)
	assert.Equal(t, "version_conflict", conflict["error"])
	assert.EqualValues(t, 1, conflict["current_version"])
	assert.Equal(t, "dana", conflict["last_edited_by"])

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, "/v1/layouts/hall-1/force", `{"payload":{}}`, eli).Code)
	rec = s.do(http.MethodPut, "/v1/layouts/hall-1/force", `{"payload":{"zones":[{"id":"z"}]}}`, olga)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["version"])

	rec = s.do(http.MethodGet, "/v1/layouts/hall-1", "", dana)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.EqualValues(t, 2, got["version"])
	assert.Equal(t, "olga", got["last_edited_by"])

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/v1/layouts/hall-1", `{"expected_version":2}`, dana).Code)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	dana := s.token("dana", middleware.RoleDesigner)
	eli := s.token("eli", middleware.RoleDesigner)

	rec := s.do(http.MethodPost, "/v1/layouts/hall-1/sessions", "", dana)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sid, _ := decode(t, rec)["session_id"].(string)
	require.NotEmpty(t, sid)
	base := "/v1/sessions/" + sid

	zoneBody := `{"label":"draw","zones":[{"id":"orch","name":"Orchestra","polygon":[{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":40},{"x":0,"y":40}],"seats":[]}]}`
	rec = s.do(http.MethodPost, base+"/commit", zoneBody, dana)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["can_undo"])

	rec = s.do(http.MethodPost, base+"/zones/orch/generate", `{"capacity":10,"seat_size":20,"spacing":0,"pattern":"grid"}`, dana)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view editor.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Document.Zones, 1)
	assert.Len(t, view.Document.Zones[0].Seats, 10)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, base+"/zones/nope/generate", `{"capacity":1}`, dana).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, base+"/undo", "", eli).Code, "sessions belong to their editor")

	rec = s.do(http.MethodPost, base+"/undo", "", dana)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Empty(t, view.Document.Zones[0].Seats)
	assert.True(t, view.CanRedo)

	rec = s.do(http.MethodPost, base+"/redo", "", dana)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, base+"/save", "", dana)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, int64(1), view.Persistence.Version)
	assert.Equal(t, session.StateClean, view.Persistence.State)

	stored, err := s.store.Load(context.Background(), "hall-1")
	require.NoError(t, err)
	assert.Equal(t, "dana", stored.LastEditedBy)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, base, "", dana).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, base, "", dana).Code)
}

func TestSessionConflictAndOwnerForceSave(t *testing.T) {
	s := newTestServer(t, nil)
	dana := s.token("dana", middleware.RoleDesigner)
	olga := s.token("olga", middleware.RoleOwner)

	rec := s.do(http.MethodPost, "/v1/layouts/hall-1/sessions", "", dana)
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/v1/sessions/" + decode(t, rec)["session_id"].(string)

	// Someone saves underneath the open session.
	rec = s.do(http.MethodPut, "/v1/layouts/hall-1", `{"payload":{"zones":[]},"expected_version":0}`, olga)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, base+"/commit", `{"zones":[{"id":"mine","name":"Mine","polygon":[],"seats":[]}]}`, dana)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, base+"/save", "", dana)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "version_conflict", body["error"])
	assert.EqualValues(t, 1, body["current_version"])
	assert.Equal(t, "olga", body["last_edited_by"])

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, base+"/force-save", "", dana).Code)

	rec = s.do(http.MethodPost, base+"/force-save", "", olga)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view editor.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, int64(2), view.Persistence.Version)
	assert.Nil(t, view.Persistence.Conflict)
}
