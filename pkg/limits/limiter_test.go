package limits

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codechat-hq/codechat/pkg/limits/storage"
)

// failingStore errors on every operation, for fail-open tests.
type failingStore struct{}

var errStoreDown = errors.New("database is locked")

func (failingStore) RecordRequest(context.Context, string, time.Time) error { return errStoreDown }
func (failingStore) CountRequests(context.Context, string, time.Time) (int64, error) {
	return 0, errStoreDown
}
func (failingStore) GetOrCreateDaily(context.Context, string) (*storage.DailyStats, error) {
	return nil, errStoreDown
}
func (failingStore) AddCost(context.Context, string, float64) (float64, error) {
	return 0, errStoreDown
}
func (failingStore) IncrementRequests(context.Context, string) (int64, error) {
	return 0, errStoreDown
}
func (failingStore) UniqueIdentities(context.Context, string) (int64, error) {
	return 0, errStoreDown
}
func (failingStore) ResetDay(context.Context, string) error { return errStoreDown }
func (failingStore) PurgeOlderThan(context.Context, int, int) (storage.PurgeResult, error) {
	return storage.PurgeResult{}, errStoreDown
}
func (failingStore) Close() error { return nil }

func testConfig() Config {
	return Config{
		MaxRequestsPerIdentityHour: 2,
		MaxRequestsPerIdentityDay:  5,
		MaxDailyRequests:           10,
		MaxDailyCost:               1.00,
		CostAlertThreshold:         0.8,
	}
}

// TestLimiter_AdmitsUnderLimits verifies the happy path and the remaining
// quota message.
func TestLimiter_AdmitsUnderLimits(t *testing.T) {
	limiter := NewLimiter(testConfig(), storage.NewMemoryStore(), nil)

	decision := limiter.Check(context.Background(), "192.0.2.1")
	if !decision.Allowed {
		t.Fatalf("Expected admission, got rejection: %s", decision.Message)
	}
	if decision.Message != "OK (Remaining: 1/hour, 4/day)" {
		t.Errorf("Unexpected message: %q", decision.Message)
	}
	if decision.FailedOpen {
		t.Error("Expected FailedOpen false on a healthy store")
	}
}

// TestLimiter_HourlyLimit rejects the third request within an hour.
func TestLimiter_HourlyLimit(t *testing.T) {
	limiter := NewLimiter(testConfig(), storage.NewMemoryStore(), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if d := limiter.Check(ctx, "192.0.2.1"); !d.Allowed {
			t.Fatalf("Request %d unexpectedly rejected: %s", i+1, d.Message)
		}
	}

	decision := limiter.Check(ctx, "192.0.2.1")
	if decision.Allowed {
		t.Fatal("Expected third request to be rejected")
	}
	if decision.Reason != ReasonIdentityHourly {
		t.Errorf("Expected reason %s, got %s", ReasonIdentityHourly, decision.Reason)
	}
	if decision.Message != "Too many requests (2/hour limit). Try again later." {
		t.Errorf("Unexpected message: %q", decision.Message)
	}

	// A different identity is unaffected.
	if d := limiter.Check(ctx, "192.0.2.2"); !d.Allowed {
		t.Errorf("Other identity unexpectedly rejected: %s", d.Message)
	}
}

// TestLimiter_IdentityDailyLimit rejects once the 24h count is exhausted.
func TestLimiter_IdentityDailyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestsPerIdentityHour = 100
	cfg.MaxDailyRequests = 100
	limiter := NewLimiter(cfg, storage.NewMemoryStore(), nil)
	ctx := context.Background()

	for i := int64(0); i < cfg.MaxRequestsPerIdentityDay; i++ {
		if d := limiter.Check(ctx, "192.0.2.1"); !d.Allowed {
			t.Fatalf("Request %d unexpectedly rejected: %s", i+1, d.Message)
		}
	}

	decision := limiter.Check(ctx, "192.0.2.1")
	if decision.Allowed {
		t.Fatal("Expected rejection past the daily identity limit")
	}
	if decision.Reason != ReasonIdentityDaily {
		t.Errorf("Expected reason %s, got %s", ReasonIdentityDaily, decision.Reason)
	}
	if !strings.Contains(decision.Message, "Daily limit reached (5/day)") {
		t.Errorf("Unexpected message: %q", decision.Message)
	}
}

// TestLimiter_GlobalDailyRequests rejects across identities once the global
// ceiling is hit.
func TestLimiter_GlobalDailyRequests(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDailyRequests = 2
	limiter := NewLimiter(cfg, storage.NewMemoryStore(), nil)
	ctx := context.Background()

	if d := limiter.Check(ctx, "192.0.2.1"); !d.Allowed {
		t.Fatalf("Unexpected rejection: %s", d.Message)
	}
	if d := limiter.Check(ctx, "192.0.2.2"); !d.Allowed {
		t.Fatalf("Unexpected rejection: %s", d.Message)
	}

	decision := limiter.Check(ctx, "192.0.2.3")
	if decision.Allowed {
		t.Fatal("Expected rejection at global request ceiling")
	}
	if decision.Reason != ReasonDailyRequests {
		t.Errorf("Expected reason %s, got %s", ReasonDailyRequests, decision.Reason)
	}
}

// TestLimiter_CostLimit rejects all requests once daily spend reaches the cap.
func TestLimiter_CostLimit(t *testing.T) {
	store := storage.NewMemoryStore()
	limiter := NewLimiter(testConfig(), store, nil)
	ctx := context.Background()

	today := storage.DayKey(time.Now())
	if _, err := store.AddCost(ctx, today, 1.00); err != nil {
		t.Fatalf("AddCost failed: %v", err)
	}

	decision := limiter.Check(ctx, "192.0.2.1")
	if decision.Allowed {
		t.Fatal("Expected rejection at cost ceiling")
	}
	if decision.Reason != ReasonDailyCost {
		t.Errorf("Expected reason %s, got %s", ReasonDailyCost, decision.Reason)
	}
	if decision.Message != "Daily cost limit reached ($1.00). Try again tomorrow." {
		t.Errorf("Unexpected message: %q", decision.Message)
	}
}

// TestLimiter_CostBelowLimitAdmits verifies spend under the cap does not
// block admission.
func TestLimiter_CostBelowLimitAdmits(t *testing.T) {
	store := storage.NewMemoryStore()
	limiter := NewLimiter(testConfig(), store, nil)
	ctx := context.Background()

	if _, err := store.AddCost(ctx, storage.DayKey(time.Now()), 0.85); err != nil {
		t.Fatalf("AddCost failed: %v", err)
	}

	if d := limiter.Check(ctx, "192.0.2.1"); !d.Allowed {
		t.Errorf("Expected admission below cost ceiling, got: %s", d.Message)
	}
}

// TestLimiter_ZeroCostCeilingRejects treats a zero ceiling as always closed.
func TestLimiter_ZeroCostCeilingRejects(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDailyCost = 0
	limiter := NewLimiter(cfg, storage.NewMemoryStore(), nil)

	decision := limiter.Check(context.Background(), "192.0.2.1")
	if decision.Allowed {
		t.Fatal("Expected rejection with a zero cost ceiling")
	}
	if decision.Reason != ReasonDailyCost {
		t.Errorf("Expected reason %s, got %s", ReasonDailyCost, decision.Reason)
	}
}

// TestLimiter_FailOpen admits requests when the store is down.
func TestLimiter_FailOpen(t *testing.T) {
	limiter := NewLimiter(testConfig(), failingStore{}, nil)

	decision := limiter.Check(context.Background(), "192.0.2.1")
	if !decision.Allowed {
		t.Fatal("Expected fail-open admission on storage error")
	}
	if !decision.FailedOpen {
		t.Error("Expected FailedOpen to be set")
	}
	if decision.Message != "OK (rate limiter error, allowing request)" {
		t.Errorf("Unexpected message: %q", decision.Message)
	}
}

// TestLimiter_ConcurrentChecks verifies admitted requests equal the recorded
// total under concurrency, with no over-admission past the ceiling.
func TestLimiter_ConcurrentChecks(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestsPerIdentityHour = 30
	cfg.MaxRequestsPerIdentityDay = 30
	cfg.MaxDailyRequests = 30
	store := storage.NewMemoryStore()
	limiter := NewLimiter(cfg, store, nil)
	ctx := context.Background()

	const callers = 50
	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d := limiter.Check(ctx, "192.0.2.1"); d.Allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if admitted.Load() != 30 {
		t.Errorf("Expected exactly 30 admissions, got %d", admitted.Load())
	}

	stats, err := store.GetOrCreateDaily(ctx, storage.DayKey(time.Now()))
	if err != nil {
		t.Fatalf("GetOrCreateDaily failed: %v", err)
	}
	if stats.TotalRequests != admitted.Load() {
		t.Errorf("Recorded total %d does not match admissions %d",
			stats.TotalRequests, admitted.Load())
	}
}

// TestConfig_Validate exercises ceiling validation.
func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}

	bad := DefaultConfig()
	bad.MaxDailyCost = -1
	if err := bad.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Errorf("Expected ErrConfigInvalid, got %v", err)
	}

	bad = DefaultConfig()
	bad.CostAlertThreshold = 1.5
	if err := bad.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Errorf("Expected ErrConfigInvalid, got %v", err)
	}
}
