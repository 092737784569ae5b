package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Project is the full resume project document owned by a single user.
// It is storage-agnostic and used across repository, service and HTTP layers.
type Project struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"ownerId"`
	Name      string          `json:"name"`
	Template  string          `json:"template"`
	Resume    json.RawMessage `json:"resume"`
	Styles    json.RawMessage `json:"styles"`
	CreatedAt int64           `json:"createdAt"`
	UpdatedAt int64           `json:"updatedAt"`
}

// CreateInput carries the caller-supplied fields of a new project.
// Timestamps are optional; zero means "stamp with the current time".
type CreateInput struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Template  string          `json:"template"`
	Resume    json.RawMessage `json:"resume"`
	Styles    json.RawMessage `json:"styles"`
	CreatedAt int64           `json:"createdAt,omitempty"`
	UpdatedAt int64           `json:"updatedAt,omitempty"`
}

// UpdateInput carries the mutable fields of a project.
type UpdateInput struct {
	Name     string          `json:"name"`
	Template string          `json:"template"`
	Resume   json.RawMessage `json:"resume"`
	Styles   json.RawMessage `json:"styles"`
}

func (in CreateInput) Validate() error {
	if blank(in.ID) || blank(in.Name) || blank(in.Template) || emptyDoc(in.Resume) || emptyDoc(in.Styles) {
		return ErrValidation
	}
	return nil
}

func (in UpdateInput) Validate() error {
	if blank(in.Name) || blank(in.Template) || emptyDoc(in.Resume) || emptyDoc(in.Styles) {
		return ErrValidation
	}
	return nil
}

// NowMillis returns the current time as Unix milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// emptyDoc reports whether a JSON document is absent, null or an empty string.
func emptyDoc(doc json.RawMessage) bool {
	d := bytes.TrimSpace(doc)
	if len(d) == 0 {
		return true
	}
	switch string(d) {
	case "null", `""`:
		return true
	}
	return false
}
