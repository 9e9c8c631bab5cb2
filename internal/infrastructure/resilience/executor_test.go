package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{
		RetryMaxAttempts:    attempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
	}
}

func alwaysRetry(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	executor := NewExecutor(fastConfig(3))

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, alwaysRetry)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestExecuteReturnsLastErrorWhenExhausted(t *testing.T) {
	executor := NewExecutor(fastConfig(2))

	calls := 0
	wantErr := errors.New("still broken")
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return wantErr
	}, alwaysRetry)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute() error = %v, want %v", err, wantErr)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestExecuteStopsOnNonRetryableError(t *testing.T) {
	executor := NewExecutor(fastConfig(5))

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("fatal")
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestExecuteHonorsCanceledContext(t *testing.T) {
	executor := NewExecutor(fastConfig(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := executor.Execute(ctx, "op", func(context.Context) error {
		calls++
		return nil
	}, alwaysRetry)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func TestBreakerOpensAfterFailureRun(t *testing.T) {
	cfg := fastConfig(1)
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 3
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Minute
	executor := NewExecutor(cfg)

	failing := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 3; i++ {
		_ = executor.Execute(context.Background(), "op", failing, alwaysRetry)
	}

	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("callback ran with open breaker")
		return nil
	}, alwaysRetry)
	if !IsCircuitOpen(err) {
		t.Fatalf("Execute() error = %v, want open circuit", err)
	}
}

func TestBreakerIsolatesOperations(t *testing.T) {
	cfg := fastConfig(1)
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Minute
	executor := NewExecutor(cfg)

	failing := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 2; i++ {
		_ = executor.Execute(context.Background(), "broken_op", failing, alwaysRetry)
	}

	err := executor.Execute(context.Background(), "healthy_op", func(context.Context) error {
		return nil
	}, alwaysRetry)
	if err != nil {
		t.Fatalf("healthy operation tripped by sibling breaker: %v", err)
	}
}
