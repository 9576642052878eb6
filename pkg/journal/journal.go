// Package journal records quarantine moves so operators can audit what was
// relocated, from where, and by which session.
//
// Two stores are provided: an in-memory store used when journaling is
// disabled or in tests, and a BadgerDB store that survives restarts.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no entry has the requested ID.
var ErrNotFound = errors.New("journal entry not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("journal closed")

// Entry describes one completed quarantine move.
type Entry struct {
	ID            string    `json:"id" yaml:"id"`
	Source        string    `json:"source" yaml:"source"`
	Destination   string    `json:"destination" yaml:"destination"`
	Size          int64     `json:"size" yaml:"size"`
	QuarantinedAt time.Time `json:"quarantined_at" yaml:"quarantined_at"`
	SessionID     string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
}

// ListOptions filters List results.
type ListOptions struct {
	// Limit caps the number of entries returned. Zero means no limit.
	Limit int

	// Since excludes entries quarantined before this instant.
	Since time.Time
}

// Store persists journal entries.
//
// List returns the newest entries first.
type Store interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	Healthcheck(ctx context.Context) error
	Close() error
}

func validateEntry(e Entry) error {
	if e.ID == "" {
		return errors.New("journal entry has no id")
	}
	if e.QuarantinedAt.IsZero() {
		return errors.New("journal entry has no timestamp")
	}
	return nil
}
