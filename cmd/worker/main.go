package main

import (
	"context"
	"log"
	"os"

	"github.com/GoSim-25-26J-441/resume-builder-backend/config"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/logging"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/repair"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker repair [userID...]")
	}

	switch os.Args[1] {
	case "repair":
		if err := runRepair(os.Args[2:]); err != nil {
			log.Fatalf("repair: %v", err)
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// runRepair recomputes metadata for the given users, or drains the shared
// repair queue once when no users are named.
func runRepair(userIDs []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		ServiceName: cfg.App.ServiceName + "-worker",
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	})
	defer logger.Sync()

	ctx := context.Background()
	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	repairer := repair.NewRepairer(stores.Repairs, stores.Projects, stores.Metadata,
		cfg.Sync.RepairBatch, cfg.Sync.MaxAttempts, logger, nil)

	if len(userIDs) == 0 {
		n, err := repairer.Run(ctx)
		log.Printf("repaired %d users from queue", n)
		return err
	}

	for _, id := range userIDs {
		if err := repairer.RepairUser(ctx, id); err != nil {
			return err
		}
		log.Printf("repaired %s", id)
	}
	return nil
}
