package broadcast

import (
	"context"
	"sync"
)

// Buffered records every event in memory, keyed by run id, and optionally
// forwards each one asynchronously to an underlying target so a slow
// downstream (a websocket client, a remote sink) never blocks the engine.
//
// Safe for concurrent use; GetStatusHistory/GetStreamHistory return copies.
type Buffered struct {
	target Broadcaster
	queue  chan func()
	wg     sync.WaitGroup

	mu             sync.RWMutex
	statusHistory  map[string][]StatusEvent
	streamHistory  map[string][]StreamEvent
}

// NewBuffered returns a Buffered broadcaster. target may be nil to only
// retain history without forwarding.
func NewBuffered(target Broadcaster) *Buffered {
	b := &Buffered{
		target:        target,
		queue:         make(chan func(), 256),
		statusHistory: make(map[string][]StatusEvent),
		streamHistory: make(map[string][]StreamEvent),
	}
	b.wg.Add(1)
	go b.drain()
	return b
}

func (b *Buffered) drain() {
	defer b.wg.Done()
	for fn := range b.queue {
		fn()
	}
}

func (b *Buffered) BroadcastStatus(ctx context.Context, evt StatusEvent) {
	b.mu.Lock()
	b.statusHistory[evt.RunID] = append(b.statusHistory[evt.RunID], evt)
	b.mu.Unlock()

	if b.target == nil {
		return
	}
	select {
	case b.queue <- func() { b.target.BroadcastStatus(ctx, evt) }:
	default:
		// queue saturated; drop rather than block the engine
	}
}

func (b *Buffered) BroadcastStream(ctx context.Context, evt StreamEvent) {
	b.mu.Lock()
	b.streamHistory[evt.RunID] = append(b.streamHistory[evt.RunID], evt)
	b.mu.Unlock()

	if b.target == nil {
		return
	}
	select {
	case b.queue <- func() { b.target.BroadcastStream(ctx, evt) }:
	default:
	}
}

// GetStatusHistory returns all recorded status events for runID in order.
func (b *Buffered) GetStatusHistory(runID string) []StatusEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]StatusEvent, len(b.statusHistory[runID]))
	copy(out, b.statusHistory[runID])
	return out
}

// GetStreamHistory returns all recorded stream events for runID in order.
func (b *Buffered) GetStreamHistory(runID string) []StreamEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]StreamEvent, len(b.streamHistory[runID]))
	copy(out, b.streamHistory[runID])
	return out
}

// Clear drops retained history for runID, or all runs if runID is empty.
func (b *Buffered) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if runID == "" {
		b.statusHistory = make(map[string][]StatusEvent)
		b.streamHistory = make(map[string][]StreamEvent)
		return
	}
	delete(b.statusHistory, runID)
	delete(b.streamHistory, runID)
}

// Close stops the forwarding worker. Safe to call once, after the last
// broadcast.
func (b *Buffered) Close() {
	close(b.queue)
	b.wg.Wait()
}
