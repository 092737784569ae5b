package users

import (
	"context"
	"database/sql"
	"fmt"
)

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

type UpsertUser struct {
	ID          string
	Email       string
	DisplayName string
}

// EnsureUser creates the users row on first sight and refreshes the profile
// columns afterwards. It never touches projects_metadata or its revision.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) error {
	if u.ID == "" {
		return fmt.Errorf("user id required")
	}

	const q = `
insert into users (id, email, display_name, updated_at)
values ($1, nullif($2,''), nullif($3,''), now())
on conflict (id) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  updated_at = now()
`
	if _, err := r.db.ExecContext(ctx, q, u.ID, u.Email, u.DisplayName); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}
