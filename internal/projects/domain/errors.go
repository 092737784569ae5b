package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("missing required fields")
	ErrConflict   = errors.New("project already exists")
	ErrNotFound   = errors.New("project not found")
	ErrStore      = errors.New("store failure")
)

// Sync operations, used in SyncError and as metric labels.
const (
	OpPrependOrReplace = "prepend_or_replace"
	OpReplaceByID      = "replace_by_id"
	OpRemoveByID       = "remove_by_id"
)

// SyncError reports that the metadata write failed after the project write
// succeeded. The project collection is ahead of the metadata list until a
// later mutation or a repair recomputes it.
type SyncError struct {
	Op        string
	UserID    string
	ProjectID string
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("metadata sync %s for user %s project %s: %v", e.Op, e.UserID, e.ProjectID, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// StoreErr wraps a store failure so callers can match ErrStore while keeping the cause.
func StoreErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
