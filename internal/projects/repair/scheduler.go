package repair

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSchedule = "@every 1m"

type Scheduler struct {
	cron     *cron.Cron
	repairer *Repairer
	log      *zap.Logger
}

func NewScheduler(repairer *Repairer, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		repairer: repairer,
		log:      log,
	}
}

// Start registers the repair job on schedule and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.repairer.Run(ctx); err != nil {
			s.log.Warn("metadata repair run finished with errors", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.log.Info("metadata repair scheduler started", zap.String("schedule", schedule))
	s.cron.Start()
	return nil
}

// Stop stops scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
