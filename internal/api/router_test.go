package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatdash/internal/api/handlers"
	apimiddleware "threatdash/internal/api/middleware"
	"threatdash/internal/config"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/services"
	"threatdash/internal/infrastructure/storage"
	"threatdash/internal/web"
	"threatdash/pkg/logger"
)

type testEnv struct {
	t       *testing.T
	handler http.Handler
	backend storage.Backend
}

func testConfig(authRequired bool) *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "threatdash", Environment: "test", Version: "test"},
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		JWT:    config.JWTConfig{Secret: "test-secret", Issuer: "threatdash", Expiration: time.Hour},
		Auth:   config.AuthConfig{Required: authRequired},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
		Pagination: config.PaginationConfig{DefaultLimit: 50, GridLimit: 9},
	}
}

func newTestEnv(t *testing.T, authRequired bool) *testEnv {
	t.Helper()
	log := logger.Nop()
	cfg := testConfig(authRequired)

	backend, err := storage.NewFileBackend(afero.NewMemMapFs(), "/data", log)
	require.NoError(t, err)

	actors := storage.NewRepository[*models.ThreatActor](backend, models.CollectionActors, log)
	indicators := storage.NewRepository[*models.ThreatIndicator](backend, models.CollectionIndicators, log)
	incidents := storage.NewRepository[*models.Incident](backend, models.CollectionIncidents, log)
	feeds := storage.NewRepository[*models.ThreatFeed](backend, models.CollectionFeeds, log)
	users := storage.NewRepository[*models.User](backend, models.CollectionUsers, log)

	stats := services.NewStatsService(actors, indicators, incidents, feeds, nil, log)
	opts := services.Options{DefaultLimit: cfg.Pagination.DefaultLimit, OnChange: stats.Invalidate}
	auth := services.NewAuthService(users, services.AuthConfig{
		Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiration: cfg.JWT.Expiration,
	}, nil, log)

	h := handlers.NewHandlers(handlers.Dependencies{
		Actors:       services.NewActorService(actors, opts, log),
		Indicators:   services.NewIndicatorService(indicators, feeds, opts, log),
		Incidents:    services.NewIncidentService(incidents, actors, opts, log),
		Feeds:        services.NewFeedService(feeds, opts, log),
		Stats:        stats,
		Auth:         auth,
		Checks:       map[string]handlers.Pinger{"storage": backend},
		Environment:  cfg.App.Environment,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       log,
	})

	pages, err := web.New(web.Options{GridPageSize: 9, PageSize: 10}, log)
	require.NoError(t, err)

	router := NewRouter(cfg, h, auth, nil, apimiddleware.NewMetrics("threatdash"), pages, log)
	return &testEnv{t: t, handler: router.Setup(), backend: backend}
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type pageBody[T any] struct {
	Data []T `json:"data"`
	Meta struct {
		Total   int  `json:"total"`
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"hasMore"`
	} `json:"meta"`
}

type messageBody[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *testEnv) createActor(name string) models.ThreatActor {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/actors", map[string]any{"name": name, "origin": "Unknown", "description": "test"}, "")
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[messageBody[models.ThreatActor]](e.t, rec).Data
}

func TestSeverityFilterOverLegacyField(t *testing.T) {
	env := newTestEnv(t, false)

	severities := []string{"critical", "high", "critical", "low", "medium", "critical", "high", "low"}
	for i, sev := range severities {
		rec := env.do(http.MethodPost, "/api/indicators", map[string]any{
			"indicatorType": "IP",
			"value":         fmt.Sprintf("10.0.0.%d", i+1),
			"severityLevel": sev,
			"source":        "test",
		}, "")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(http.MethodGet, "/api/indicators?severity=critical", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeJSON[pageBody[models.ThreatIndicator]](t, rec)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, 3, page.Meta.Total)
	for _, ind := range page.Data {
		assert.Equal(t, models.SeverityCritical, ind.Severity)
	}

	rec = env.do(http.MethodGet, "/api/indicators?severity=CRITICAL&limit=2&offset=2", nil, "")
	page = decodeJSON[pageBody[models.ThreatIndicator]](t, rec)
	assert.Len(t, page.Data, 1)
	assert.False(t, page.Meta.HasMore)
}

func TestCreateActorGetsNextID(t *testing.T) {
	env := newTestEnv(t, false)
	env.createActor("APT1")
	second := env.createActor("APT2")
	third := env.createActor("APT3")

	rec := env.do(http.MethodDelete, fmt.Sprintf("/api/actors/%d", second.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/actors", map[string]any{"name": "APT99", "origin": "Unknown", "description": "test"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeJSON[messageBody[models.ThreatActor]](t, rec)
	assert.Equal(t, "Threat actor created successfully", body.Message)
	assert.Equal(t, third.ID+1, body.Data.ID)
	assert.Equal(t, "APT99", body.Data.Name)
	assert.False(t, body.Data.CreatedAt.IsZero())

	rec = env.do(http.MethodGet, fmt.Sprintf("/api/actors/%d", body.Data.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeJSON[models.ThreatActor](t, rec)
	assert.Equal(t, body.Data.ID, got.ID)
	assert.Equal(t, "Unknown", got.Origin)
}

func TestDeletedIncidentIsNotFound(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/api/incidents", map[string]any{"title": "Breach", "description": "d"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	inc := decodeJSON[messageBody[models.Incident]](t, rec).Data

	path := fmt.Sprintf("/api/incidents/%d", inc.ID)
	rec = env.do(http.MethodDelete, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Incident deleted successfully", decodeJSON[errorBody](t, rec).Message)

	rec = env.do(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	e := decodeJSON[errorBody](t, rec)
	assert.Equal(t, "Not found", e.Error)
	assert.Contains(t, e.Message, fmt.Sprint(inc.ID))

	// deleting again is a not-found, not a success
	rec = env.do(http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNonIntegerIDIsNotFound(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(http.MethodGet, "/api/feeds/abc123", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeJSON[errorBody](t, rec).Message, "abc123")
}

func TestUpdateIgnoresBodyID(t *testing.T) {
	env := newTestEnv(t, false)
	actor := env.createActor("APT1")

	rec := env.do(http.MethodPut, fmt.Sprintf("/api/actors/%d", actor.ID), map[string]any{"id": 999, "origin": "Iran"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeJSON[messageBody[models.ThreatActor]](t, rec)
	assert.Equal(t, "Threat actor updated successfully", body.Message)
	assert.Equal(t, actor.ID, body.Data.ID)
	assert.Equal(t, "Iran", body.Data.Origin)
	assert.Equal(t, "APT1", body.Data.Name)

	rec = env.do(http.MethodGet, "/api/actors/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidCreateLeavesCollectionUnchanged(t *testing.T) {
	env := newTestEnv(t, false)
	env.createActor("APT1")

	cases := []struct {
		name string
		body any
		want string
	}{
		{"missing name", map[string]any{"origin": "X", "description": "d"}, "name is required"},
		{"blank origin", map[string]any{"name": "X", "origin": "  ", "description": "d"}, "origin is required"},
		{"bad enum", map[string]any{"name": "X", "origin": "Y", "description": "d", "status": "sleeping"}, "status must be one of"},
		{"malformed", `{"name":`, "Invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/actors", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			e := decodeJSON[errorBody](t, rec)
			assert.Equal(t, "Validation error", e.Error)
			assert.Contains(t, e.Message, tc.want)
		})
	}

	rec := env.do(http.MethodGet, "/api/actors", nil, "")
	assert.Equal(t, 1, decodeJSON[pageBody[models.ThreatActor]](t, rec).Meta.Total)
}

func TestDuplicateIndicatorConflict(t *testing.T) {
	env := newTestEnv(t, false)
	body := map[string]any{"type": "Domain", "value": "evil.example", "source": "x"}
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/indicators", body, "").Code)

	rec := env.do(http.MethodPost, "/api/indicators", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Indicator with value evil.example already exists", decodeJSON[errorBody](t, rec).Message)
}

func TestSourcesAliasServesFeeds(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(http.MethodPost, "/api/sources", map[string]any{
		"sourceName": "OTX", "sourceType": "community", "url": "https://otx.example", "description": "d", "reliabilityScore": 8,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	feed := decodeJSON[messageBody[models.ThreatFeed]](t, rec).Data
	assert.Equal(t, models.ReliabilityHigh, feed.Reliability)

	rec = env.do(http.MethodGet, "/api/feeds", nil, "")
	page := decodeJSON[pageBody[models.ThreatFeed]](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "OTX", page.Data[0].Name)
}

func TestIncidentExpandAndCritical(t *testing.T) {
	env := newTestEnv(t, false)
	actor := env.createActor("Lazarus Group")

	for _, body := range []map[string]any{
		{"title": "A", "description": "d", "severity": "critical", "threat_actor": "lazarus group"},
		{"title": "B", "description": "d", "severity": "critical", "status": "closed"},
		{"title": "C", "description": "d", "severity": "low"},
	} {
		require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/incidents", body, "").Code)
	}

	rec := env.do(http.MethodGet, "/api/incidents/critical", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	crit := decodeJSON[handlers.CriticalResponse](t, rec)
	require.Equal(t, 1, crit.Count)
	assert.Equal(t, "A", crit.Data[0].Title)

	rec = env.do(http.MethodGet, fmt.Sprintf("/api/incidents/%d?expand=threat_actor", crit.Data[0].ID), nil, "")
	inc := decodeJSON[models.Incident](t, rec)
	require.NotNil(t, inc.ThreatActorRecord)
	assert.Equal(t, actor.ID, inc.ThreatActorRecord.ID)
}

func TestStatsReflectWrites(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/api/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	before := decodeJSON[handlers.StatsResponse](t, rec)
	assert.Equal(t, 0, before.Data.TotalActors)

	env.createActor("APT1")
	rec = env.do(http.MethodGet, "/api/stats", nil, "")
	after := decodeJSON[handlers.StatsResponse](t, rec)
	assert.Equal(t, 1, after.Data.TotalActors)
	assert.Equal(t, 1, after.Data.ActiveActors)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decodeJSON[handlers.HealthResponse](t, rec)
	assert.Equal(t, "OK", health.Status)
	assert.Equal(t, "test", health.Environment)
	assert.NotEmpty(t, health.Timestamp)

	rec = env.do(http.MethodGet, "/api/ready", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decodeJSON[handlers.HealthResponse](t, rec)
	assert.Equal(t, "healthy", ready.Checks["storage"])
}

func TestUnknownRoutesAreJSON(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Endpoint not found", decodeJSON[errorBody](t, rec).Error)

	rec = env.do(http.MethodPatch, "/api/actors", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestAuthFlowAndWriteGate(t *testing.T) {
	env := newTestEnv(t, true)

	// reads are public, writes need a token
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/actors", nil, "").Code)
	rec := env.do(http.MethodPost, "/api/actors", map[string]any{"name": "X", "origin": "Y", "description": "d"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/register", map[string]any{
		"username": "analyst", "email": "analyst@example.com", "password": "hunter22",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decodeJSON[models.AuthResponse](t, rec)
	assert.True(t, reg.Success)
	assert.Equal(t, "User registered successfully", reg.Message)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "analyst@example.com", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")

	rec = env.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "ANALYST@example.com", "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeJSON[models.AuthResponse](t, rec).Token

	rec = env.do(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeJSON[handlers.MeResponse](t, rec)
	assert.Equal(t, "analyst", me.User.Username)

	rec = env.do(http.MethodPost, "/api/actors", map[string]any{"name": "X", "origin": "Y", "description": "d"}, token)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodGet, "/api/auth/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/logout", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logout successful")
}

func TestPagesStaticAndMetrics(t *testing.T) {
	env := newTestEnv(t, false)

	for _, path := range []string{"/", "/login", "/signup", "/dashboard", "/actors", "/indicators", "/incidents", "/feeds"} {
		rec := env.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
	}

	rec := env.do(http.MethodGet, "/static/js/resource.js", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	env.do(http.MethodGet, "/api/actors", nil, "")
	rec = env.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "threatdash_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/actors`)
}

func TestEmptyListShape(t *testing.T) {
	env := newTestEnv(t, false)
	require.NoError(t, env.backend.Truncate(context.Background(), models.CollectionActors))

	rec := env.do(http.MethodGet, "/api/actors", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"meta":{"total":0,"limit":50,"offset":0,"hasMore":false}}`, rec.Body.String())
}
