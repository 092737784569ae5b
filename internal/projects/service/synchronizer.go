package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/metrics"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/domain"
)

// MetadataStore is the users.projects_metadata field of the record store.
type MetadataStore interface {
	Get(ctx context.Context, userID string) (domain.Metadata, int64, error)
	CompareAndSwap(ctx context.Context, userID string, list domain.Metadata, expected int64) (bool, error)
}

// ErrContention is returned when every compare-and-swap attempt lost to a concurrent writer.
var ErrContention = errors.New("metadata write contention")

const DefaultMaxAttempts = 5

// Synchronizer applies project mutations to the owner's metadata list.
// Each operation reads the list, transforms it in memory and writes the whole
// list back with a compare-and-swap on the row revision, re-reading on a lost race.
type Synchronizer struct {
	store       MetadataStore
	maxAttempts int
	log         *zap.Logger
	metrics     *metrics.ServiceMetrics
}

func NewSynchronizer(store MetadataStore, maxAttempts int, log *zap.Logger, m *metrics.ServiceMetrics) *Synchronizer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{store: store, maxAttempts: maxAttempts, log: log, metrics: m}
}

// transform returns the new list and whether it must be written back.
type transform func(domain.Metadata) (domain.Metadata, bool)

// PrependOrReplace puts entry at the front of the list, or refreshes it in place
// when the list already has that id.
func (s *Synchronizer) PrependOrReplace(ctx context.Context, userID string, entry domain.MetadataEntry) error {
	_, err := s.apply(ctx, domain.OpPrependOrReplace, userID, func(m domain.Metadata) (domain.Metadata, bool) {
		return m.PrependOrReplace(entry), true
	})
	return err
}

// ReplaceByID refreshes the entry at its current position. It never inserts:
// when the list has no entry with that id it writes nothing and reports false.
func (s *Synchronizer) ReplaceByID(ctx context.Context, userID string, entry domain.MetadataEntry) (bool, error) {
	return s.apply(ctx, domain.OpReplaceByID, userID, func(m domain.Metadata) (domain.Metadata, bool) {
		return m.ReplaceByID(entry)
	})
}

// RemoveByID filters the id out of the list and always writes the result back.
// The bool reports whether an entry was actually removed.
func (s *Synchronizer) RemoveByID(ctx context.Context, userID, id string) (bool, error) {
	var removed bool
	_, err := s.apply(ctx, domain.OpRemoveByID, userID, func(m domain.Metadata) (domain.Metadata, bool) {
		var out domain.Metadata
		out, removed = m.RemoveByID(id)
		return out, true
	})
	return removed, err
}

func (s *Synchronizer) apply(ctx context.Context, op, userID string, fn transform) (bool, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		current, revision, err := s.store.Get(ctx, userID)
		if err != nil {
			return false, err
		}

		next, write := fn(current)
		if !write {
			return false, nil
		}

		ok, err := s.store.CompareAndSwap(ctx, userID, next, revision)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		s.metrics.ObserveCASConflict(op)
		s.log.Debug("metadata revision moved, retrying",
			zap.String("op", op),
			zap.String("user_id", userID),
			zap.Int64("revision", revision),
			zap.Int("attempt", attempt),
		)
	}
	return false, fmt.Errorf("%s after %d attempts: %w", op, s.maxAttempts, ErrContention)
}
