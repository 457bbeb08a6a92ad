package broadcast

import (
	"context"

	"github.com/rs/zerolog"
)

// LogBroadcaster writes every event as a structured log line through a
// zerolog.Logger. Useful as a default observer in examples and tests.
type LogBroadcaster struct {
	logger zerolog.Logger
}

// NewLogBroadcaster returns a Broadcaster backed by logger.
func NewLogBroadcaster(logger zerolog.Logger) *LogBroadcaster {
	return &LogBroadcaster{logger: logger}
}

func (l *LogBroadcaster) BroadcastStatus(_ context.Context, evt StatusEvent) {
	e := l.logger.Info()
	if evt.Status == "error" {
		e = l.logger.Error()
	}
	e.Str("run_id", evt.RunID).
		Str("status", evt.Status).
		Interface("node_statuses", evt.NodeStatuses).
		Str("error", evt.Error).
		Msg("workflow_status")
}

func (l *LogBroadcaster) BroadcastStream(_ context.Context, evt StreamEvent) {
	l.logger.Debug().
		Str("run_id", evt.RunID).
		Str("node_id", evt.NodeID).
		Bool("complete", evt.Complete).
		Int("delta_len", len(evt.Delta)).
		Msg("node_streaming")
}
