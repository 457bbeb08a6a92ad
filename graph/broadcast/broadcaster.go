package broadcast

import "context"

// Broadcaster receives run progress events. Implementations must not block
// the caller for long and must not panic; a broadcaster that errors should
// log internally and drop the event rather than propagate failure into
// workflow execution.
//
// The engine never reads from a Broadcaster: it is write-only by design, so
// swapping implementations (logging, metrics, websocket fanout, persistence)
// never changes execution semantics.
type Broadcaster interface {
	BroadcastStatus(ctx context.Context, evt StatusEvent)
	BroadcastStream(ctx context.Context, evt StreamEvent)
}

// Multi fans one engine's events out to several broadcasters, in order. A
// panic or slow call in one does not prevent dispatch to the rest.
type Multi struct {
	targets []Broadcaster
}

// NewMulti returns a Broadcaster that forwards every event to all targets.
func NewMulti(targets ...Broadcaster) *Multi {
	return &Multi{targets: targets}
}

func (m *Multi) BroadcastStatus(ctx context.Context, evt StatusEvent) {
	for _, t := range m.targets {
		func() {
			defer func() { _ = recover() }()
			t.BroadcastStatus(ctx, evt)
		}()
	}
}

func (m *Multi) BroadcastStream(ctx context.Context, evt StreamEvent) {
	for _, t := range m.targets {
		func() {
			defer func() { _ = recover() }()
			t.BroadcastStream(ctx, evt)
		}()
	}
}
