package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/domain"
)

// MetadataRepository reads and writes users.projects_metadata.
// Writes are compare-and-swap on users.metadata_revision.
type MetadataRepository struct {
	db *sql.DB
}

func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// Get returns the user's metadata list and its revision.
// A user without a row has an empty list at revision 0.
func (r *MetadataRepository) Get(ctx context.Context, userID string) (domain.Metadata, int64, error) {
	const q = `
SELECT projects_metadata, metadata_revision
FROM users
WHERE id = $1;
`
	var raw []byte
	var revision int64
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&raw, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Metadata{}, 0, nil
	}
	if err != nil {
		return nil, 0, domain.StoreErr("get metadata", err)
	}

	list := domain.Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, 0, domain.StoreErr("get metadata", fmt.Errorf("decode projects_metadata: %w", err))
		}
		if list == nil {
			list = domain.Metadata{}
		}
	}
	return list, revision, nil
}

// CompareAndSwap stores list when the row is still at expected revision and
// bumps the revision. It creates the row when the user has none. A false
// result with nil error means another writer got there first.
func (r *MetadataRepository) CompareAndSwap(ctx context.Context, userID string, list domain.Metadata, expected int64) (bool, error) {
	const q = `
INSERT INTO users (id, projects_metadata, metadata_revision, updated_at)
VALUES ($1, $2::jsonb, 1, now())
ON CONFLICT (id) DO UPDATE
SET projects_metadata = EXCLUDED.projects_metadata,
    metadata_revision = users.metadata_revision + 1,
    updated_at = now()
WHERE users.metadata_revision = $3;
`
	if list == nil {
		list = domain.Metadata{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return false, fmt.Errorf("encode projects_metadata: %w", err)
	}

	result, err := r.db.ExecContext(ctx, q, userID, string(payload), expected)
	if err != nil {
		return false, domain.StoreErr("write metadata", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, domain.StoreErr("write metadata", err)
	}
	return rowsAffected > 0, nil
}
