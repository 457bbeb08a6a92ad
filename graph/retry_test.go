package graph

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunWithRetrySucceedsWithoutRetry(t *testing.T) {
	calls := 0
	result, err := runWithRetry(context.Background(), RetryPolicy{RetryCount: 2, OnError: OnErrorStop}, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Fatalf("result=%q calls=%d, want ok/1", result, calls)
	}
}

func TestRunWithRetryRecoversOnSecondAttempt(t *testing.T) {
	calls := 0
	policy := RetryPolicy{RetryCount: 2, RetryDelay: time.Millisecond, OnError: OnErrorStop}
	result, err := runWithRetry(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" || calls != 2 {
		t.Fatalf("result=%q calls=%d, want recovered/2", result, calls)
	}
}

func TestRunWithRetryExhaustedStop(t *testing.T) {
	policy := RetryPolicy{RetryCount: 1, RetryDelay: time.Millisecond, OnError: OnErrorStop}
	_, err := runWithRetry(context.Background(), policy, func(ctx context.Context) (string, error) {
		return "", errors.New("always fails")
	})
	if err == nil {
		t.Fatal("expected error once retries are exhausted under OnErrorStop")
	}
}

func TestRunWithRetryExhaustedSkip(t *testing.T) {
	policy := RetryPolicy{RetryCount: 0, OnError: OnErrorSkip}
	result, err := runWithRetry(context.Background(), policy, func(ctx context.Context) (string, error) {
		return "", errors.New("always fails")
	})
	if err != nil {
		t.Fatalf("OnErrorSkip must not surface an error, got %v", err)
	}
	if result == "" {
		t.Fatal("expected a non-empty skip sentinel result")
	}
}

func TestRunWithRetryExhaustedFallback(t *testing.T) {
	policy := RetryPolicy{RetryCount: 0, OnError: OnErrorFallback, FallbackValue: "fallback value"}
	result, err := runWithRetry(context.Background(), policy, func(ctx context.Context) (string, error) {
		return "", errors.New("always fails")
	})
	if err != nil {
		t.Fatalf("OnErrorFallback must not surface an error, got %v", err)
	}
	if result != "fallback value" {
		t.Fatalf("result = %q, want %q", result, "fallback value")
	}
}

func TestRunWithRetryContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{RetryCount: 3, RetryDelay: 50 * time.Millisecond, OnError: OnErrorStop}

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := runWithRetry(ctx, policy, func(ctx context.Context) (string, error) {
		return "", errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryPolicyFromDataDefaults(t *testing.T) {
	p := retryPolicyFromData(Data{})
	if p.RetryCount != 0 {
		t.Errorf("default RetryCount = %d, want 0", p.RetryCount)
	}
	if p.OnError != OnErrorStop {
		t.Errorf("default OnError = %q, want stop", p.OnError)
	}
	if p.RetryDelay != 2*time.Second {
		t.Errorf("default RetryDelay = %v, want 2s", p.RetryDelay)
	}
}

func TestRetryPolicyFromDataInvalidOnErrorFallsBackToStop(t *testing.T) {
	p := retryPolicyFromData(Data{"onError": "explode"})
	if p.OnError != OnErrorStop {
		t.Errorf("invalid onError = %q, want fallback to stop", p.OnError)
	}
}

func TestRetryPolicyFromDataSnakeCase(t *testing.T) {
	p := retryPolicyFromData(Data{"retry_count": 3.0, "on_error": "skip"})
	if p.RetryCount != 3 {
		t.Errorf("RetryCount = %d, want 3", p.RetryCount)
	}
	if p.OnError != OnErrorSkip {
		t.Errorf("OnError = %q, want skip", p.OnError)
	}
}
