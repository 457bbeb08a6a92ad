package graph

import (
	"context"
	"time"
)

// withRunTimeout derives a context bounded by the run timeout: an explicit
// per-call timeoutSeconds argument (if positive) takes precedence over the
// engine-wide configured default. Zero means no timeout. The returned cancel
// must always be called by the caller.
func withRunTimeout(ctx context.Context, timeoutSeconds int, configured time.Duration) (context.Context, context.CancelFunc) {
	d := configured
	if timeoutSeconds > 0 {
		d = time.Duration(timeoutSeconds) * time.Second
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
