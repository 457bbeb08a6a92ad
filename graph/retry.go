package graph

import (
	"context"
	"time"
)

// runWithRetry wraps fn with the Retry/Error Wrapper semantics (spec §4.10):
// on error, sleep retryDelay*(attempt+1) and retry up to RetryCount additional
// times; once exhausted, dispatch on OnError. Only raised errors reach this
// wrapper — handlers that have a defined domain outcome (unknown tool, max
// recursion depth) return it as a plain result string, not an error, and so
// are never retried.
func runWithRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= policy.RetryCount; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < policy.RetryCount {
			delay := policy.RetryDelay * time.Duration(attempt+1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	switch policy.OnError {
	case OnErrorSkip:
		return "[skipped: error after retries]", nil
	case OnErrorFallback:
		return policy.FallbackValue, nil
	default: // OnErrorStop
		return "", lastErr
	}
}
