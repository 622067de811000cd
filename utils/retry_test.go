package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testRetry(attempts int) *RetryConfig {
	return &RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, Logger: NewLogger()}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := testRetry(3).Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	sentinel := errors.New("still broken")
	calls := 0
	err := testRetry(3).Do(context.Background(), "op", func() error {
		calls++
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryPermanentStopsImmediately(t *testing.T) {
	sentinel := errors.New("do not retry")
	calls := 0
	err := testRetry(5).Do(context.Background(), "op", func() error {
		calls++
		return Permanent(sentinel)
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestRetryHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := testRetry(5).Do(ctx, "op", func() error {
		calls++
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1 (no retries after cancel)", calls)
	}
}
