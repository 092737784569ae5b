package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServiceMetrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SyncFailures        *prometheus.CounterVec
	CASConflicts        *prometheus.CounterVec
	Repairs             *prometheus.CounterVec
}

// NewServiceMetrics registers the service collectors on reg.
// Pass prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewServiceMetrics(serviceName string, reg prometheus.Registerer) *ServiceMetrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}

	return &ServiceMetrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests processed",
				ConstLabels: labels,
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Duration of HTTP requests in seconds",
				ConstLabels: labels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		SyncFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "metadata_sync_failures_total",
				Help:        "Metadata writes that failed after the project write succeeded",
				ConstLabels: labels,
			},
			[]string{"op"},
		),
		CASConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "metadata_cas_conflicts_total",
				Help:        "Metadata compare-and-swap attempts lost to a concurrent writer",
				ConstLabels: labels,
			},
			[]string{"op"},
		),
		Repairs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "metadata_repairs_total",
				Help:        "Metadata recomputations by outcome",
				ConstLabels: labels,
			},
			[]string{"result"},
		),
	}
}

// The Observe helpers are nil-safe so components can run without metrics.

func (sm *ServiceMetrics) ObserveSyncFailure(op string) {
	if sm == nil {
		return
	}
	sm.SyncFailures.WithLabelValues(op).Inc()
}

func (sm *ServiceMetrics) ObserveCASConflict(op string) {
	if sm == nil {
		return
	}
	sm.CASConflicts.WithLabelValues(op).Inc()
}

func (sm *ServiceMetrics) ObserveRepair(result string) {
	if sm == nil {
		return
	}
	sm.Repairs.WithLabelValues(result).Inc()
}

func (sm *ServiceMetrics) PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		sm.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		sm.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).
			Observe(time.Since(start).Seconds())
	}
}

// SetupMetricsEndpoint exposes the gatherer on GET /metrics.
func SetupMetricsEndpoint(r gin.IRouter, g prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}
