package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/GoSim-25-26J-441/resume-builder-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/auth"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/logging"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/metrics"
	projecthttp "github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/http"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	FrontendURL string
	BodyLimit   int64

	Log      *zap.Logger
	Metrics  *metrics.ServiceMetrics
	Gatherer prometheus.Gatherer

	DB    httpapi.DBPinger
	Redis *redis.Client

	// Auth establishes the caller identity (Firebase or header mode).
	Auth     gin.HandlerFunc
	Users    auth.UserEnsurer // nil with the memory driver
	Limiter  *middleware.RateLimiter
	Projects *service.ProjectService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(logging.GinMiddleware(dep.Log))
	if dep.Metrics != nil {
		r.Use(dep.Metrics.PrometheusMiddleware())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{dep.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-User-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)
	if dep.Gatherer != nil {
		metrics.SetupMetricsEndpoint(r, dep.Gatherer)
	}

	api := r.Group("/api")

	projectsGroup := api.Group("/projects")
	projectsGroup.Use(middleware.BodyLimit(dep.BodyLimit))
	projectsGroup.Use(dep.Auth, auth.RequireUser())
	if dep.Users != nil {
		projectsGroup.Use(auth.WithUser(dep.Users, dep.Log))
	}
	if dep.Limiter != nil {
		projectsGroup.Use(dep.Limiter.Mutations(auth.UserID))
	}
	projecthttp.New(dep.Projects, dep.Log).Register(projectsGroup)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found"})
	})

	return r
}
