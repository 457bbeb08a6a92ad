// Package store provides optional, best-effort persistence of run snapshots.
// Nothing in the engine depends on a store being present: it exists purely
// so a PersistingBroadcaster can give a downstream consumer the ability to
// inspect or resume visibility into a run after the process exits.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested run id has no stored snapshot.
var ErrNotFound = errors.New("run snapshot not found")

// Snapshot is a point-in-time capture of one run, as broadcast in a
// workflow_status event.
type Snapshot struct {
	RunID        string
	Status       string
	NodeStatuses map[string]string
	Results      map[string]string
	Error        string
	UpdatedAt    time.Time
}

// SnapshotStore persists and retrieves run snapshots. Implementations must
// treat Save as an upsert keyed by RunID.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, runID string) (Snapshot, error)
}
