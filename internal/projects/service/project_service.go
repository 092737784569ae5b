package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/metrics"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/domain"
)

// ProjectStore is the projects collection of the record store.
type ProjectStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	GetOwned(ctx context.Context, ownerID, id string) (*domain.Project, error)
	Insert(ctx context.Context, p *domain.Project) (*domain.Project, error)
	UpdateOwned(ctx context.Context, ownerID, id string, in domain.UpdateInput, now int64) (*domain.Project, error)
	DeleteOwned(ctx context.Context, ownerID, id string) error
}

// RepairScheduler queues a user whose metadata list needs recomputing.
type RepairScheduler interface {
	Enqueue(ctx context.Context, userID string) error
}

// ProjectService sequences the project write and the metadata write for
// every mutation. The project write always comes first; a metadata write is
// attempted only after it succeeded.
type ProjectService struct {
	projects ProjectStore
	meta     MetadataStore
	sync     *Synchronizer
	attempts int
	repairs  RepairScheduler
	log      *zap.Logger
	metrics  *metrics.ServiceMetrics
	now      func() int64
}

type Option func(*ProjectService)

// WithRepairScheduler hands failed metadata syncs to a background repairer.
func WithRepairScheduler(r RepairScheduler) Option {
	return func(s *ProjectService) { s.repairs = r }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *ProjectService) { s.log = log }
}

func WithMetrics(m *metrics.ServiceMetrics) Option {
	return func(s *ProjectService) { s.metrics = m }
}

// WithClock overrides the millisecond clock used for server-side timestamps.
func WithClock(now func() int64) Option {
	return func(s *ProjectService) { s.now = now }
}

// WithMaxSyncAttempts bounds compare-and-swap retries per metadata write.
func WithMaxSyncAttempts(n int) Option {
	return func(s *ProjectService) { s.attempts = n }
}

// NewProjectService creates a new project service
func NewProjectService(projects ProjectStore, meta MetadataStore, opts ...Option) *ProjectService {
	s := &ProjectService{
		projects: projects,
		meta:     meta,
		log:      zap.NewNop(),
		now:      domain.NowMillis,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sync = NewSynchronizer(meta, s.attempts, s.log, s.metrics)
	return s
}

// Create inserts a project owned by userID and prepends its metadata entry.
// A metadata failure does not undo the insert; see reportSyncFailure.
func (s *ProjectService) Create(ctx context.Context, userID string, in domain.CreateInput) (*domain.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.projects.Exists(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrConflict
	}

	now := s.now()
	p := &domain.Project{
		ID:        in.ID,
		OwnerID:   userID,
		Name:      in.Name,
		Template:  in.Template,
		Resume:    in.Resume,
		Styles:    in.Styles,
		CreatedAt: orNow(in.CreatedAt, now),
		UpdatedAt: orNow(in.UpdatedAt, now),
	}
	created, err := s.projects.Insert(ctx, p)
	if err != nil {
		return nil, err
	}

	if err := s.sync.PrependOrReplace(ctx, userID, domain.EntryFor(created)); err != nil {
		s.reportSyncFailure(ctx, &domain.SyncError{
			Op: domain.OpPrependOrReplace, UserID: userID, ProjectID: created.ID, Err: err,
		})
	}
	return created, nil
}

// Get returns the project only when userID owns it. Missing and foreign
// projects both yield domain.ErrNotFound.
func (s *ProjectService) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	return s.projects.GetOwned(ctx, userID, id)
}

// ListMetadata returns the stored metadata list as is, without consulting projects.
func (s *ProjectService) ListMetadata(ctx context.Context, userID string) (domain.Metadata, error) {
	list, _, err := s.meta.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = domain.Metadata{}
	}
	return list, nil
}

// Update rewrites the mutable fields with a server-stamped updatedAt and
// refreshes the metadata entry in place.
func (s *ProjectService) Update(ctx context.Context, userID, id string, in domain.UpdateInput) (*domain.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.projects.UpdateOwned(ctx, userID, id, in, s.now())
	if err != nil {
		return nil, err
	}

	replaced, err := s.sync.ReplaceByID(ctx, userID, domain.EntryFor(updated))
	switch {
	case err != nil:
		s.reportSyncFailure(ctx, &domain.SyncError{
			Op: domain.OpReplaceByID, UserID: userID, ProjectID: id, Err: err,
		})
	case !replaced:
		s.log.Warn("metadata entry missing on update",
			zap.String("user_id", userID),
			zap.String("project_id", id),
		)
		s.scheduleRepair(ctx, userID)
	}
	return updated, nil
}

// Delete removes the project and then its metadata entry.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	if err := s.projects.DeleteOwned(ctx, userID, id); err != nil {
		return err
	}

	if _, err := s.sync.RemoveByID(ctx, userID, id); err != nil {
		s.reportSyncFailure(ctx, &domain.SyncError{
			Op: domain.OpRemoveByID, UserID: userID, ProjectID: id, Err: err,
		})
	}
	return nil
}

// reportSyncFailure records a metadata write that failed after the project
// write succeeded. The caller still gets the successful project result; the
// user's list is queued for recomputation.
func (s *ProjectService) reportSyncFailure(ctx context.Context, syncErr *domain.SyncError) {
	s.metrics.ObserveSyncFailure(syncErr.Op)
	s.log.Error("metadata sync failed",
		zap.String("op", syncErr.Op),
		zap.String("user_id", syncErr.UserID),
		zap.String("project_id", syncErr.ProjectID),
		zap.Bool("contention", errors.Is(syncErr, ErrContention)),
		zap.Error(syncErr.Err),
	)
	s.scheduleRepair(ctx, syncErr.UserID)
}

func (s *ProjectService) scheduleRepair(ctx context.Context, userID string) {
	if s.repairs == nil {
		return
	}
	if err := s.repairs.Enqueue(context.WithoutCancel(ctx), userID); err != nil {
		s.log.Error("enqueue metadata repair failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func orNow(ts, now int64) int64 {
	if ts > 0 {
		return ts
	}
	return now
}
