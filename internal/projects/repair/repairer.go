package repair

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/metrics"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/domain"
)

// Queue holds users whose metadata list has drifted from their projects.
type Queue interface {
	Enqueue(ctx context.Context, userID string) error
	Drain(ctx context.Context, n int) ([]string, error)
}

// ProjectLister reads a user's projects, newest-created first.
type ProjectLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
}

// MetadataStore is the compare-and-swap view of users.projects_metadata.
type MetadataStore interface {
	Get(ctx context.Context, userID string) (domain.Metadata, int64, error)
	CompareAndSwap(ctx context.Context, userID string, list domain.Metadata, expected int64) (bool, error)
}

var errRevisionMoved = errors.New("metadata revision kept moving")

const (
	resultRepaired = "repaired"
	resultFailed   = "failed"
)

// Repairer recomputes metadata lists from the projects collection.
type Repairer struct {
	queue       Queue
	projects    ProjectLister
	meta        MetadataStore
	batch       int
	maxAttempts int
	log         *zap.Logger
	metrics     *metrics.ServiceMetrics
}

func NewRepairer(queue Queue, projects ProjectLister, meta MetadataStore, batch, maxAttempts int, log *zap.Logger, m *metrics.ServiceMetrics) *Repairer {
	if batch <= 0 {
		batch = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Repairer{
		queue:       queue,
		projects:    projects,
		meta:        meta,
		batch:       batch,
		maxAttempts: maxAttempts,
		log:         log,
		metrics:     m,
	}
}

// Run drains one batch from the queue and repairs each user. Users that fail
// are put back so the next run retries them. It returns how many were repaired.
func (r *Repairer) Run(ctx context.Context) (int, error) {
	ids, err := r.queue.Drain(ctx, r.batch)
	if err != nil {
		return 0, err
	}

	repaired := 0
	var errs []error
	for _, userID := range ids {
		if err := r.RepairUser(ctx, userID); err != nil {
			r.metrics.ObserveRepair(resultFailed)
			r.log.Error("metadata repair failed", zap.String("user_id", userID), zap.Error(err))
			errs = append(errs, err)
			if qerr := r.queue.Enqueue(ctx, userID); qerr != nil {
				errs = append(errs, qerr)
			}
			continue
		}
		r.metrics.ObserveRepair(resultRepaired)
		repaired++
	}
	if len(ids) > 0 {
		r.log.Info("metadata repair batch finished",
			zap.Int("pending", len(ids)),
			zap.Int("repaired", repaired),
		)
	}
	return repaired, errors.Join(errs...)
}

// RepairUser rewrites the user's list so it mirrors their projects exactly.
// Each attempt reads the list revision before listing projects, so a mutation
// that lands after the listing either moves the revision and forces a retry,
// or applies its metadata write on top of the repaired list.
func (r *Repairer) RepairUser(ctx context.Context, userID string) error {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		current, revision, err := r.meta.Get(ctx, userID)
		if err != nil {
			return err
		}
		projects, err := r.projects.ListByOwner(ctx, userID)
		if err != nil {
			return err
		}
		ok, err := r.meta.CompareAndSwap(ctx, userID, Rebuild(current, projects), revision)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		r.metrics.ObserveCASConflict("repair")
	}
	return fmt.Errorf("repair user %s: %w", userID, errRevisionMoved)
}

// Rebuild derives a metadata list from projects while keeping the user's
// existing order. Entries whose project still exists stay where they were,
// refreshed from the project; entries without a project are dropped; projects
// missing from the list go to the front, newest-created first.
func Rebuild(current domain.Metadata, projects []domain.Project) domain.Metadata {
	byID := make(map[string]*domain.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}

	placed := make(map[string]bool, len(projects))
	kept := make(domain.Metadata, 0, len(current))
	for _, e := range current {
		p, ok := byID[e.ID]
		if !ok || placed[e.ID] {
			continue
		}
		placed[e.ID] = true
		kept = append(kept, domain.EntryFor(p))
	}

	out := make(domain.Metadata, 0, len(projects))
	for i := range projects {
		if !placed[projects[i].ID] {
			out = append(out, domain.EntryFor(&projects[i]))
		}
	}
	return append(out, kept...)
}
