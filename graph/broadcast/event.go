// Package broadcast defines the write-only observer interface through which
// the engine reports run progress. It is the only coupling point between
// engine internals and anything watching a run: logs, metrics dashboards,
// websocket fanout, or a persistence layer.
package broadcast

import "time"

// StatusEvent reports the pipeline-level and per-node status of a run. It is
// broadcast at run start, once per level after that level's nodes are marked
// running, and once at run end; progress updates and individual node
// completions do not trigger a broadcast of their own.
type StatusEvent struct {
	RunID string

	// Status is the run-level state: pending, running, completed, error.
	Status string

	// NodeStatuses maps node id to its current status string. Running nodes
	// may report a free-form progress string (e.g. "chunk 2/5") instead of
	// the bare "running" literal.
	NodeStatuses map[string]string

	// Results maps node id to its output. Intermediate events truncate each
	// output to 500 characters; the final event carries the full outputs.
	Results map[string]string

	// Error carries the run-level failure message when Status == "error".
	Error string

	Timestamp time.Time
}

// StreamEvent reports an incremental chunk of agent output. Chunks for a
// given node arrive in order. Each agent call ends with one event whose
// Complete is true and whose Delta is the call's full accumulated text; a node
// that makes several agent calls (chunker, critique loop, fallback model)
// therefore sends several Complete events.
type StreamEvent struct {
	RunID    string
	NodeID   string
	Delta    string
	Complete bool

	Timestamp time.Time
}
