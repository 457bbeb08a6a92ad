package store

import (
	"context"

	"github.com/veltrix/workflow-engine/graph/broadcast"
)

// PersistingBroadcaster wraps a Broadcaster and additionally saves every
// workflow_status event to a SnapshotStore, giving a downstream consumer the
// ability to inspect a run's last known state after the process exits. It
// does not change execution semantics: if Save fails, the underlying
// broadcast still happens and the error is swallowed, matching the
// best-effort nature of observability in this engine.
type PersistingBroadcaster struct {
	target broadcast.Broadcaster
	store  SnapshotStore
}

// NewPersistingBroadcaster returns a Broadcaster that forwards to target and
// upserts a Snapshot into store on every status event.
func NewPersistingBroadcaster(target broadcast.Broadcaster, store SnapshotStore) *PersistingBroadcaster {
	return &PersistingBroadcaster{target: target, store: store}
}

func (p *PersistingBroadcaster) BroadcastStatus(ctx context.Context, evt broadcast.StatusEvent) {
	p.target.BroadcastStatus(ctx, evt)
	_ = p.store.Save(ctx, Snapshot{
		RunID:        evt.RunID,
		Status:       evt.Status,
		NodeStatuses: evt.NodeStatuses,
		Results:      evt.Results,
		Error:        evt.Error,
	})
}

func (p *PersistingBroadcaster) BroadcastStream(ctx context.Context, evt broadcast.StreamEvent) {
	p.target.BroadcastStream(ctx, evt)
}
