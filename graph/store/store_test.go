package store

import (
	"context"
	"testing"

	"github.com/veltrix/workflow-engine/graph/broadcast"
)

func TestMemorySaveAndLoad(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	snap := Snapshot{RunID: "r1", Status: "running", Results: map[string]string{"A": "x"}}
	if err := m.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := m.Load(ctx, "r1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Status != "running" || got.Results["A"] != "x" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("expected Save to stamp UpdatedAt")
	}
}

func TestMemorySaveIsUpsert(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Save(ctx, Snapshot{RunID: "r1", Status: "running"})
	m.Save(ctx, Snapshot{RunID: "r1", Status: "completed"})

	got, err := m.Load(ctx, "r1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Status != "completed" {
		t.Fatalf("Status = %q, want completed (second Save should overwrite)", got.Status)
	}
}

func TestMemoryLoadMissingReturnsErrNotFound(t *testing.T) {
	m := NewMemory()
	if _, err := m.Load(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("Load(missing) error = %v, want ErrNotFound", err)
	}
}

type fakeBroadcaster struct {
	statuses []broadcast.StatusEvent
}

func (f *fakeBroadcaster) BroadcastStatus(_ context.Context, evt broadcast.StatusEvent) {
	f.statuses = append(f.statuses, evt)
}
func (f *fakeBroadcaster) BroadcastStream(context.Context, broadcast.StreamEvent) {}

func TestPersistingBroadcasterForwardsAndSaves(t *testing.T) {
	target := &fakeBroadcaster{}
	mem := NewMemory()
	p := NewPersistingBroadcaster(target, mem)

	evt := broadcast.StatusEvent{
		RunID:        "r1",
		Status:       "completed",
		NodeStatuses: map[string]string{"A": "done"},
		Results:      map[string]string{"A": "result"},
	}
	p.BroadcastStatus(context.Background(), evt)

	if len(target.statuses) != 1 {
		t.Fatalf("expected the wrapped broadcaster to still receive the event, got %d", len(target.statuses))
	}

	snap, err := mem.Load(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Status != "completed" || snap.Results["A"] != "result" {
		t.Fatalf("unexpected persisted snapshot: %+v", snap)
	}
}

func TestPersistingBroadcasterStreamPassesThroughWithoutPersisting(t *testing.T) {
	target := &fakeBroadcaster{}
	mem := NewMemory()
	p := NewPersistingBroadcaster(target, mem)

	p.BroadcastStream(context.Background(), broadcast.StreamEvent{RunID: "r1", NodeID: "A", Delta: "hi"})

	if _, err := mem.Load(context.Background(), "r1"); err != ErrNotFound {
		t.Fatalf("expected stream events to not create a snapshot, got err=%v", err)
	}
}
