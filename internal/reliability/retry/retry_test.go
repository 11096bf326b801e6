package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func testConfig() *Config {
	return &Config{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		RetryIf:           func(err error) bool { return errors.Is(err, errTransient) },
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), testConfig(), testLogger(), "op", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result != 42 || calls != 3 {
		t.Fatalf("result=%d calls=%d", result, calls)
	}
}

func TestDoReturnsNonRetryableUnwrapped(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), testConfig(), testLogger(), "op", func(ctx context.Context) (int, error) {
		calls++
		return 0, errPermanent
	})
	if calls != 1 {
		t.Fatalf("non-retryable error was retried (%d calls)", calls)
	}
	// The error must come back as-is so sentinel matching still works.
	if err != errPermanent {
		t.Fatalf("got %v, want the original error", err)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), testConfig(), testLogger(), "op", func(ctx context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	if calls != 3 {
		t.Fatalf("got %d calls, want 3", calls)
	}
	if !errors.Is(err, errTransient) {
		t.Fatalf("final error should wrap the last failure, got %v", err)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, testConfig(), testLogger(), "op", func(ctx context.Context) (int, error) {
		t.Fatal("operation should not run with a cancelled context")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
