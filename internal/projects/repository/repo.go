package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/domain"
)

const uniqueViolation = "23505"

// ProjectRepository provides persistence operations for the projects table.
// Every read and write except Exists is scoped by owner.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, owner_id, name, template, resume, styles, created_at, updated_at`

// Exists reports whether any owner has a project with this id.
func (r *ProjectRepository) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1);`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&ok); err != nil {
		return false, domain.StoreErr("exists project", err)
	}
	return ok, nil
}

// GetOwned returns the project only when it belongs to ownerID.
func (r *ProjectRepository) GetOwned(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE id = $1 AND owner_id = $2;
`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.StoreErr("get project", err)
	}
	return p, nil
}

// Insert stores a new project. A duplicate id maps to domain.ErrConflict.
func (r *ProjectRepository) Insert(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	const q = `
INSERT INTO projects (id, owner_id, name, template, resume, styles, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8)
RETURNING ` + projectColumns + `;
`
	out, err := scanProject(r.db.QueryRowContext(ctx, q,
		p.ID, p.OwnerID, p.Name, p.Template, string(p.Resume), string(p.Styles), p.CreatedAt, p.UpdatedAt))
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrConflict
		}
		return nil, domain.StoreErr("insert project", err)
	}
	return out, nil
}

// UpdateOwned rewrites the mutable fields in one conditional statement.
// updated_at never moves backwards or stays equal, even under clock skew.
func (r *ProjectRepository) UpdateOwned(ctx context.Context, ownerID, id string, in domain.UpdateInput, now int64) (*domain.Project, error) {
	const q = `
UPDATE projects
SET name = $3, template = $4, resume = $5::jsonb, styles = $6::jsonb,
    updated_at = GREATEST($7, updated_at + 1)
WHERE id = $1 AND owner_id = $2
RETURNING ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRowContext(ctx, q,
		id, ownerID, in.Name, in.Template, string(in.Resume), string(in.Styles), now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.StoreErr("update project", err)
	}
	return p, nil
}

// DeleteOwned removes the project; domain.ErrNotFound when nothing matched.
func (r *ProjectRepository) DeleteOwned(ctx context.Context, ownerID, id string) error {
	const q = `DELETE FROM projects WHERE id = $1 AND owner_id = $2;`
	result, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return domain.StoreErr("delete project", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.StoreErr("delete project", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOwner returns the owner's projects, newest-created first.
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE owner_id = $1
ORDER BY created_at DESC, id;
`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, domain.StoreErr("list projects", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, domain.StoreErr("list projects", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreErr("list projects", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*domain.Project, error) {
	var p domain.Project
	var resume, styles []byte
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Template, &resume, &styles, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Resume = json.RawMessage(resume)
	p.Styles = json.RawMessage(styles)
	return &p, nil
}
