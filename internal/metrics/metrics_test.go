package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHelpersAreNilSafe(t *testing.T) {
	var m *ServiceMetrics
	assert.NotPanics(t, func() {
		m.ObserveSyncFailure("remove_by_id")
		m.ObserveCASConflict("replace_by_id")
		m.ObserveRepair("repaired")
	})
}

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewServiceMetrics("test", reg)

	r := gin.New()
	r.Use(m.PrometheusMiddleware())
	r.GET("/api/projects/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	SetupMetricsEndpoint(r, reg)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects/p1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects/p2", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/projects/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	m.ObserveSyncFailure("prepend_or_replace")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `metadata_sync_failures_total{op="prepend_or_replace",service="test"} 1`)
}
