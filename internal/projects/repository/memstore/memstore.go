// Package memstore keeps projects and per-user metadata in process memory.
// It follows the same contracts as the Postgres repositories and is used by
// the memory store driver and by tests. Hooks let callers inject failures or
// interleave concurrent writers at store call boundaries.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/domain"
)

// ProjectStore is the in-memory projects collection.
type ProjectStore struct {
	mu       sync.Mutex
	projects map[string]domain.Project

	// InsertHook, UpdateHook and DeleteHook run before the write; a non-nil
	// error aborts it and is returned wrapped as a store failure.
	InsertHook func(p *domain.Project) error
	UpdateHook func(ownerID, id string) error
	DeleteHook func(ownerID, id string) error
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: make(map[string]domain.Project)}
}

func (s *ProjectStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.projects[id]
	return ok, nil
}

func (s *ProjectStore) GetOwned(_ context.Context, ownerID, id string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *ProjectStore) Insert(_ context.Context, p *domain.Project) (*domain.Project, error) {
	if s.InsertHook != nil {
		if err := s.InsertHook(p); err != nil {
			return nil, domain.StoreErr("insert project", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return nil, domain.ErrConflict
	}
	stored := *p
	s.projects[p.ID] = stored
	return &stored, nil
}

func (s *ProjectStore) UpdateOwned(_ context.Context, ownerID, id string, in domain.UpdateInput, now int64) (*domain.Project, error) {
	if s.UpdateHook != nil {
		if err := s.UpdateHook(ownerID, id); err != nil {
			return nil, domain.StoreErr("update project", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	p.Name = in.Name
	p.Template = in.Template
	p.Resume = in.Resume
	p.Styles = in.Styles
	p.UpdatedAt = max(now, p.UpdatedAt+1)
	s.projects[id] = p
	return &p, nil
}

func (s *ProjectStore) DeleteOwned(_ context.Context, ownerID, id string) error {
	if s.DeleteHook != nil {
		if err := s.DeleteHook(ownerID, id); err != nil {
			return domain.StoreErr("delete project", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

// ListByOwner returns the owner's projects, newest-created first.
func (s *ProjectStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type metadataRow struct {
	list     domain.Metadata
	revision int64
}

// MetadataStore is the in-memory users.projects_metadata field.
type MetadataStore struct {
	mu   sync.Mutex
	rows map[string]metadataRow

	// GetHook runs before a read, CASHook before a compare-and-swap.
	// Either may block to interleave writers or return an error to fail the call.
	GetHook func(userID string) error
	CASHook func(userID string) error
}

func NewMetadataStore() *MetadataStore {
	return &MetadataStore{rows: make(map[string]metadataRow)}
}

func (s *MetadataStore) Get(_ context.Context, userID string) (domain.Metadata, int64, error) {
	if s.GetHook != nil {
		if err := s.GetHook(userID); err != nil {
			return nil, 0, domain.StoreErr("get metadata", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		return domain.Metadata{}, 0, nil
	}
	out := make(domain.Metadata, len(row.list))
	copy(out, row.list)
	return out, row.revision, nil
}

func (s *MetadataStore) CompareAndSwap(_ context.Context, userID string, list domain.Metadata, expected int64) (bool, error) {
	if s.CASHook != nil {
		if err := s.CASHook(userID); err != nil {
			return false, domain.StoreErr("write metadata", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if ok && row.revision != expected {
		return false, nil
	}
	stored := make(domain.Metadata, len(list))
	copy(stored, list)
	s.rows[userID] = metadataRow{list: stored, revision: row.revision + 1}
	return true, nil
}

// Put seeds a user's list, bypassing revision checks.
func (s *MetadataStore) Put(userID string, list domain.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.rows[userID]
	stored := make(domain.Metadata, len(list))
	copy(stored, list)
	s.rows[userID] = metadataRow{list: stored, revision: row.revision + 1}
}
