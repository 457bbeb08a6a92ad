package broadcast

import "context"

type nullBroadcaster struct{}

// Null returns a Broadcaster that discards every event. It is the default
// used by graph.New when no broadcaster option is supplied.
func Null() Broadcaster { return nullBroadcaster{} }

func (nullBroadcaster) BroadcastStatus(context.Context, StatusEvent) {}
func (nullBroadcaster) BroadcastStream(context.Context, StreamEvent) {}
