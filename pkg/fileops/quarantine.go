package fileops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/pkg/journal"
)

// Recorder persists quarantine moves. journal.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Mover relocates files into a quarantine directory.
//
// Moves use os.Rename, so they are atomic within one filesystem and fail
// with the OS error across filesystems. When the destination basename
// already exists, the platform's rename semantics decide the outcome (on
// Unix the existing file is replaced). Concurrent moves of files sharing a
// basename are not serialized: the last rename wins.
type Mover struct {
	dir      string
	recorder Recorder
}

// NewMover creates a Mover targeting dir. recorder may be nil.
func NewMover(dir string, recorder Recorder) *Mover {
	return &Mover{dir: dir, recorder: recorder}
}

// Dir returns the quarantine directory.
func (m *Mover) Dir() string {
	return m.dir
}

// EnsureDir creates the quarantine directory if it does not exist.
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("quarantine directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create quarantine directory %s: %w", dir, err)
	}
	return nil
}

// Quarantine moves path into the quarantine directory under its basename
// and returns the destination path.
//
// sessionID is stored with the journal entry for correlation with logs.
func (m *Mover) Quarantine(ctx context.Context, path, sessionID string) (string, error) {
	info, err := statTarget(path)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", newIOError(path, err)
	}

	dest := filepath.Join(m.dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return "", newIOError(path, err)
	}

	logger.InfoCtx(ctx, "File quarantined", logger.Path(path), logger.Destination(dest))

	if m.recorder != nil {
		entry := journal.Entry{
			ID:            uuid.NewString(),
			Source:        path,
			Destination:   dest,
			Size:          info.Size(),
			QuarantinedAt: time.Now().UTC(),
			SessionID:     sessionID,
		}
		if err := m.recorder.Record(ctx, entry); err != nil {
			logger.WarnCtx(ctx, "Failed to journal quarantine move", logger.Path(path), logger.Err(err))
		}
	}

	return dest, nil
}
