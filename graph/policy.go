package graph

import "time"

// OnError names the disposition taken once a node's retries are exhausted.
type OnError string

const (
	OnErrorStop     OnError = "stop"
	OnErrorSkip     OnError = "skip"
	OnErrorFallback OnError = "fallback"
)

// RetryPolicy is the per-node Retry/Error Wrapper configuration, read from
// node.Data. RetryCount is additional attempts beyond the first; RetryDelay
// is the base backoff, scaled by (attempt+1), so the wait grows linearly
// with each retry.
type RetryPolicy struct {
	RetryCount    int
	RetryDelay    time.Duration
	OnError       OnError
	FallbackValue string
}

// retryPolicyFromData parses a node's retry configuration, applying the
// documented defaults: retryCount=0, retryDelay=2s, onError=stop.
func retryPolicyFromData(d Data) RetryPolicy {
	onErr := OnError(d.String("onError", "on_error", string(OnErrorStop)))
	switch onErr {
	case OnErrorStop, OnErrorSkip, OnErrorFallback:
	default:
		onErr = OnErrorStop
	}
	delaySeconds := d.Float("retryDelay", "retry_delay", 2.0)
	return RetryPolicy{
		RetryCount:    d.Int("retryCount", "retry_count", 0),
		RetryDelay:    time.Duration(delaySeconds * float64(time.Second)),
		OnError:       onErr,
		FallbackValue: d.String("fallbackValue", "fallback_value", ""),
	}
}
