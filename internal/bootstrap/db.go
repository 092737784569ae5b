package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/resume-builder-backend/config"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/repair"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/repository/memstore"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/storage/postgres"
)

// Stores is the record store client, built once at startup and passed down explicitly.
type Stores struct {
	DB       *sql.DB // nil with the memory driver
	Redis    *redis.Client
	Projects interface {
		service.ProjectStore
		repair.ProjectLister
	}
	Metadata service.MetadataStore
	Repairs  repair.Queue
}

// OpenStores connects the configured store driver and the repair queue.
// Without REDIS_ADDR the repair queue lives in process memory.
func OpenStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stores, error) {
	s := &Stores{}

	switch cfg.App.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		s.Projects = memstore.NewProjectStore()
		s.Metadata = memstore.NewMetadataStore()
	default:
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.MigrationsEnabled {
			if err := postgres.Migrate(db); err != nil {
				db.Close()
				return nil, err
			}
			log.Info("database migrations applied")
		}
		s.DB = db
		s.Projects = repository.NewProjectRepository(db)
		s.Metadata = repository.NewMetadataRepository(db)
	}

	if cfg.Redis.Addr == "" {
		log.Warn("REDIS_ADDR not set, metadata repair queue is process-local")
		s.Repairs = repair.NewMemoryQueue()
		return s, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		s.Close()
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	s.Redis = rdb
	s.Repairs = repair.NewRedisQueue(rdb)
	return s, nil
}

func (s *Stores) Close() {
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
