package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a Store when the layout has never been saved.
var ErrNotFound = errors.New("layout not found")

// Document is a stored layout as the backend hands it out.
type Document struct {
	Payload      json.RawMessage `json:"payload"`
	Version      int64           `json:"version"`
	LastEditedBy string          `json:"last_edited_by,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SaveRequest carries one save attempt.  ExpectedVersion is the version the
// caller last read, 0 for a layout that does not exist yet.  Force skips the
// version check and overwrites unconditionally.
type SaveRequest struct {
	LayoutID        string
	Payload         json.RawMessage
	ExpectedVersion int64
	Force           bool
	Editor          string
}

// Store is the backend a Session loads from and saves to.  Save returns the
// new version on success and a *ConflictError when ExpectedVersion is stale.
type Store interface {
	Load(ctx context.Context, layoutID string) (Document, error)
	Save(ctx context.Context, req SaveRequest) (int64, error)
}

// ConflictError reports that the stored layout moved on since it was read.
type ConflictError struct {
	LayoutID        string `json:"layout_id"`
	ExpectedVersion int64  `json:"expected_version"`
	CurrentVersion  int64  `json:"current_version"`
	LastEditedBy    string `json:"last_edited_by,omitempty"`
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("version conflict on layout %s: expected %d, stored %d", e.LayoutID, e.ExpectedVersion, e.CurrentVersion)
	if e.LastEditedBy != "" {
		msg += " (last edited by " + e.LastEditedBy + ")"
	}
	return msg
}

// AsConflict unwraps err into a *ConflictError.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
