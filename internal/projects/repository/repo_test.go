package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/domain"
)

var projectCols = []string{"id", "owner_id", "name", "template", "resume", "styles", "created_at", "updated_at"}

func setupProjectRepo(t *testing.T) (*ProjectRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProjectRepository(db), mock
}

func TestProjectRepository_Exists(t *testing.T) {
	repo, mock := setupProjectRepo(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_GetOwned(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	ctx := context.Background()

	t.Run("returns owned project", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, owner_id, name, template, resume, styles, created_at, updated_at\s+FROM projects\s+WHERE id = \$1 AND owner_id = \$2`).
			WithArgs("p1", "u1").
			WillReturnRows(sqlmock.NewRows(projectCols).
				AddRow("p1", "u1", "Resume A", "classic", []byte(`{"a":1}`), []byte(`{"b":2}`), int64(100), int64(200)))

		p, err := repo.GetOwned(ctx, "u1", "p1")
		require.NoError(t, err)
		assert.Equal(t, "u1", p.OwnerID)
		assert.JSONEq(t, `{"a":1}`, string(p.Resume))
		assert.JSONEq(t, `{"b":2}`, string(p.Styles))
		assert.Equal(t, int64(200), p.UpdatedAt)
	})

	t.Run("maps no rows to not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, owner_id`).
			WithArgs("p1", "u2").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetOwned(ctx, "u2", "p1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("wraps other failures as store errors", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, owner_id`).
			WithArgs("p1", "u1").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetOwned(ctx, "u1", "p1")
		assert.ErrorIs(t, err, domain.ErrStore)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Insert(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	ctx := context.Background()

	p := &domain.Project{
		ID: "p1", OwnerID: "u1", Name: "Resume A", Template: "classic",
		Resume: json.RawMessage(`{"a":1}`), Styles: json.RawMessage(`{}`),
		CreatedAt: 100, UpdatedAt: 100,
	}

	t.Run("inserts and returns the stored row", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO projects`).
			WithArgs("p1", "u1", "Resume A", "classic", `{"a":1}`, `{}`, int64(100), int64(100)).
			WillReturnRows(sqlmock.NewRows(projectCols).
				AddRow("p1", "u1", "Resume A", "classic", []byte(`{"a": 1}`), []byte(`{}`), int64(100), int64(100)))

		out, err := repo.Insert(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "p1", out.ID)
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		_, err := repo.Insert(ctx, p)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_UpdateOwned(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	ctx := context.Background()
	in := domain.UpdateInput{Name: "Resume A2", Template: "modern", Resume: json.RawMessage(`{"x":1}`), Styles: json.RawMessage(`{"y":2}`)}

	t.Run("updates with a server timestamp", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE projects\s+SET name = \$3, template = \$4, resume = \$5::jsonb, styles = \$6::jsonb,\s+updated_at = GREATEST\(\$7, updated_at \+ 1\)\s+WHERE id = \$1 AND owner_id = \$2`).
			WithArgs("p1", "u1", "Resume A2", "modern", `{"x":1}`, `{"y":2}`, int64(5000)).
			WillReturnRows(sqlmock.NewRows(projectCols).
				AddRow("p1", "u1", "Resume A2", "modern", []byte(`{"x":1}`), []byte(`{"y":2}`), int64(100), int64(5000)))

		p, err := repo.UpdateOwned(ctx, "u1", "p1", in, 5000)
		require.NoError(t, err)
		assert.Equal(t, "Resume A2", p.Name)
		assert.Equal(t, int64(5000), p.UpdatedAt)
	})

	t.Run("foreign or missing project is not found", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE projects`).
			WithArgs("p1", "u2", "Resume A2", "modern", `{"x":1}`, `{"y":2}`, int64(5000)).
			WillReturnRows(sqlmock.NewRows(projectCols))

		_, err := repo.UpdateOwned(ctx, "u2", "p1", in, 5000)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_DeleteOwned(t *testing.T) {
	repo, mock := setupProjectRepo(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM projects WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteOwned(ctx, "u1", "p1"))

	mock.ExpectExec(`DELETE FROM projects`).
		WithArgs("p1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteOwned(ctx, "u2", "p1"), domain.ErrNotFound)

	mock.ExpectExec(`DELETE FROM projects`).
		WithArgs("p1", "u1").
		WillReturnError(errors.New("broken pipe"))
	assert.ErrorIs(t, repo.DeleteOwned(ctx, "u1", "p1"), domain.ErrStore)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_ListByOwner(t *testing.T) {
	repo, mock := setupProjectRepo(t)

	mock.ExpectQuery(`FROM projects\s+WHERE owner_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("p2", "u1", "B", "classic", []byte(`{}`), []byte(`{}`), int64(200), int64(200)).
			AddRow("p1", "u1", "A", "classic", []byte(`{}`), []byte(`{}`), int64(100), int64(150)))

	out, err := repo.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "p2", out[0].ID)
	assert.Equal(t, "p1", out[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
