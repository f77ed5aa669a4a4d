package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

// TestDo_SucceedsFirstAttempt returns immediately on success.
func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(3), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected result ok, got %q", result)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

// TestDo_RetriesUntilSuccess retries transient failures.
func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(3), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if result != 42 {
		t.Errorf("Expected 42, got %d", result)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

// TestDo_ExhaustsAttempts returns the last error after all attempts.
func TestDo_ExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("still broken")
	calls := 0
	_, err := Do(context.Background(), fastConfig(3), func(context.Context) (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected last error %v, got %v", wantErr, err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

// TestDo_PermanentStopsRetrying does not retry permanent failures.
func TestDo_PermanentStopsRetrying(t *testing.T) {
	wantErr := errors.New("bad credentials")
	calls := 0
	_, err := Do(context.Background(), fastConfig(5), func(context.Context) (int, error) {
		calls++
		return 0, Permanent(wantErr)
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected %v, got %v", wantErr, err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

// TestDo_ContextCancelled stops between attempts.
func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, Config{MaxAttempts: 5, BaseDelay: time.Minute}, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}

// TestDo_BackoffDoubles verifies the delay schedule.
func TestDo_BackoffDoubles(t *testing.T) {
	cfg := Config{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond}
	start := time.Now()
	calls := 0
	_, _ = Do(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})
	elapsed := time.Since(start)

	// Two retries: 10ms + 20ms = 30ms minimum.
	if elapsed < 30*time.Millisecond {
		t.Errorf("Expected at least 30ms of backoff, got %v", elapsed)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

// TestDo_InvalidConfig rejects a zero attempt budget.
func TestDo_InvalidConfig(t *testing.T) {
	_, err := Do(context.Background(), Config{MaxAttempts: 0}, func(context.Context) (int, error) {
		return 0, nil
	})
	if err == nil {
		t.Error("Expected error for invalid config, got nil")
	}
}
