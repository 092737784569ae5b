package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/auth"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/metrics"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/repository/memstore"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/service"
)

func testRouter(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	return BuildRouter(RouterDeps{
		ServiceName: "resume-builder-backend",
		Version:     "test",
		FrontendURL: "http://localhost:3000",
		BodyLimit:   1 << 10,
		Log:         zap.NewNop(),
		Metrics:     metrics.NewServiceMetrics("test", reg),
		Gatherer:    reg,
		Auth:        auth.HeaderUser(),
		Limiter:     limiter,
		Projects:    service.NewProjectService(memstore.NewProjectStore(), memstore.NewMetadataStore()),
	})
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBuildRouter_HealthAndMetrics(t *testing.T) {
	r := testRouter(t, nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestBuildRouter_NoRoute(t *testing.T) {
	r := testRouter(t, nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found"}`, w.Body.String())
}

func TestBuildRouter_CORSPreflight(t *testing.T) {
	r := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects/metadata", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestBuildRouter_ProjectsRoutes(t *testing.T) {
	r := testRouter(t, middleware.NewRateLimiter(0.001, 1))

	body := `{"id":"p1","name":"Resume A","template":"classic","resume":{},"styles":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body))
	req.Header.Set("X-User-Id", "u1")
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusCreated, serve(r, req).Code)

	// Burst of one: the next mutation from the same user is throttled.
	req = httptest.NewRequest(http.MethodDelete, "/api/projects/p1", nil)
	req.Header.Set("X-User-Id", "u1")
	assert.Equal(t, http.StatusTooManyRequests, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/projects/p1", nil)
	req.Header.Set("X-User-Id", "u1")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestBuildRouter_BodyLimit(t *testing.T) {
	r := testRouter(t, nil)

	huge := `{"id":"p1","name":"A","template":"t","resume":{"x":"` + strings.Repeat("a", 2<<10) + `"},"styles":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(huge))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestSetGinMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	SetGinMode(" Production ")
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
	SetGinMode("staging")
	assert.Equal(t, gin.DebugMode, gin.Mode())
	SetGinMode("test")
	assert.Equal(t, gin.TestMode, gin.Mode())
}
