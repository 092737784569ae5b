package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/resume-builder-backend/config"
	httpapi "github.com/GoSim-25-26J-441/resume-builder-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/auth"
	authmw "github.com/GoSim-25-26J-441/resume-builder-backend/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/logging"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/metrics"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/repair"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewLogger(logging.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		ServiceName: cfg.App.ServiceName,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	})
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.SetGinMode(cfg.App.Environment)

	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	serviceMetrics := metrics.NewServiceMetrics(cfg.App.ServiceName, prometheus.DefaultRegisterer)

	projectService := service.NewProjectService(stores.Projects, stores.Metadata,
		service.WithLogger(logger.Named("projects")),
		service.WithMetrics(serviceMetrics),
		service.WithRepairScheduler(stores.Repairs),
		service.WithMaxSyncAttempts(cfg.Sync.MaxAttempts),
	)

	repairer := repair.NewRepairer(stores.Repairs, stores.Projects, stores.Metadata,
		cfg.Sync.RepairBatch, cfg.Sync.MaxAttempts, logger.Named("repair"), serviceMetrics)
	scheduler := repair.NewScheduler(repairer, logger.Named("repair"))
	if err := scheduler.Start(ctx, cfg.Sync.RepairSchedule); err != nil {
		return err
	}
	defer scheduler.Stop()

	authHandler, err := authMiddleware(ctx, cfg)
	if err != nil {
		return err
	}

	var (
		dbPinger httpapi.DBPinger
		userRepo auth.UserEnsurer
	)
	if stores.DB != nil {
		dbPinger = stores.DB
		userRepo = users.NewRepo(stores.DB)
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: cfg.App.ServiceName,
		Version:     cfg.App.Version,
		FrontendURL: cfg.Server.FrontendURL,
		BodyLimit:   cfg.Server.BodyLimitBytes,
		Log:         logger,
		Metrics:     serviceMetrics,
		Gatherer:    prometheus.DefaultGatherer,
		DB:          dbPinger,
		Redis:       stores.Redis,
		Auth:        authHandler,
		Users:       userRepo,
		Limiter:     middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Projects:    projectService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func authMiddleware(ctx context.Context, cfg *config.Config) (gin.HandlerFunc, error) {
	if cfg.Auth.Mode == config.AuthModeHeader {
		return auth.HeaderUser(), nil
	}
	client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		return nil, err
	}
	return authmw.FirebaseAuthMiddleware(client), nil
}
