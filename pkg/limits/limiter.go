package limits

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"codechat-hq/codechat/pkg/limits/storage"
)

// Limiter is the admission controller combining four independent ceilings:
// global daily cost, global daily request count, per-identity hourly count,
// and per-identity daily count.
//
// Check evaluates all ceilings against the persistent store and, on
// admission, records the request atomically. A single mutex serializes
// check-and-record so that concurrent callers cannot over-admit between the
// read and the write.
//
// # Failure policy
//
// If the store errors during evaluation, the Limiter fails open: the request
// is admitted and the error is logged. Availability is deliberately
// prioritized over strict enforcement during storage outages.
type Limiter struct {
	config  Config
	store   storage.Store
	metrics *Metrics
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu sync.Mutex
}

// NewLimiter creates a Limiter over the given store.
// A nil metrics disables instrumentation.
func NewLimiter(config Config, store storage.Store, metrics *Metrics) *Limiter {
	return &Limiter{
		config:  config,
		store:   store,
		metrics: metrics,
		logger:  slog.Default().With("component", "limits.limiter"),
		now:     time.Now,
	}
}

// Check decides whether a request from identity is admitted and, if so,
// records it. The returned Decision carries the user-facing message.
//
// Evaluation order (cheapest, most global checks first):
//  1. global daily cost ceiling
//  2. global daily request ceiling
//  3. per-identity hourly ceiling
//  4. per-identity daily ceiling
//
// The order only affects which rejection message is returned, not
// correctness.
func (l *Limiter) Check(ctx context.Context, identity string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	today := storage.DayKey(now)

	stats, err := l.store.GetOrCreateDaily(ctx, today)
	if err != nil {
		return l.failOpen(identity, err)
	}

	if stats.TotalCost >= l.config.MaxDailyCost {
		l.logger.Warn("daily cost limit hit", "total_cost", stats.TotalCost, "limit", l.config.MaxDailyCost)
		return l.reject(ReasonDailyCost,
			fmt.Sprintf("Daily cost limit reached ($%.2f). Try again tomorrow.", l.config.MaxDailyCost))
	}

	if stats.TotalRequests >= l.config.MaxDailyRequests {
		l.logger.Warn("daily request limit hit", "total_requests", stats.TotalRequests, "limit", l.config.MaxDailyRequests)
		return l.reject(ReasonDailyRequests,
			fmt.Sprintf("Daily request limit reached (%d). Try again tomorrow.", l.config.MaxDailyRequests))
	}

	hourlyCount, err := l.store.CountRequests(ctx, identity, now.Add(-time.Hour))
	if err != nil {
		return l.failOpen(identity, err)
	}
	dailyCount, err := l.store.CountRequests(ctx, identity, now.Add(-24*time.Hour))
	if err != nil {
		return l.failOpen(identity, err)
	}

	if hourlyCount >= l.config.MaxRequestsPerIdentityHour {
		return l.reject(ReasonIdentityHourly,
			fmt.Sprintf("Too many requests (%d/hour limit). Try again later.", l.config.MaxRequestsPerIdentityHour))
	}

	if dailyCount >= l.config.MaxRequestsPerIdentityDay {
		return l.reject(ReasonIdentityDaily,
			fmt.Sprintf("Daily limit reached (%d/day). Try again tomorrow.", l.config.MaxRequestsPerIdentityDay))
	}

	// Admitted: record the attempt. Only admitted requests count toward
	// total_requests.
	if err := l.store.RecordRequest(ctx, identity, now); err != nil {
		return l.failOpen(identity, err)
	}
	if _, err := l.store.IncrementRequests(ctx, today); err != nil {
		// The request record is already appended; log and admit rather
		// than surface a storage fault to the caller.
		l.logger.Error("failed to increment daily request count", "error", err)
	}

	if l.metrics != nil {
		l.metrics.RecordAdmitted()
	}

	remainingHourly := l.config.MaxRequestsPerIdentityHour - hourlyCount - 1
	remainingDaily := l.config.MaxRequestsPerIdentityDay - dailyCount - 1

	return Decision{
		Allowed: true,
		Message: fmt.Sprintf("OK (Remaining: %d/hour, %d/day)", remainingHourly, remainingDaily),
	}
}

// SetConfig swaps the ceilings, used when configuration is hot-reloaded.
// The next Check observes the new values.
func (l *Limiter) SetConfig(config Config) {
	l.mu.Lock()
	l.config = config
	l.mu.Unlock()
}

// reject builds a rejection Decision and records it.
func (l *Limiter) reject(reason RejectReason, message string) Decision {
	if l.metrics != nil {
		l.metrics.RecordRejected(reason)
	}
	return Decision{
		Allowed: false,
		Reason:  reason,
		Message: message,
	}
}

// failOpen admits a request after a storage error.
func (l *Limiter) failOpen(identity string, err error) Decision {
	l.logger.Error("rate limiter storage error, failing open",
		"identity", identity,
		"error", fmt.Errorf("%w: %v", ErrStorageFailure, err),
	)
	if l.metrics != nil {
		l.metrics.RecordFailOpen()
	}
	return Decision{
		Allowed:    true,
		FailedOpen: true,
		Message:    "OK (rate limiter error, allowing request)",
	}
}
