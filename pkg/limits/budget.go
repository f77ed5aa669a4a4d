package limits

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"codechat-hq/codechat/pkg/limits/storage"
)

// Retention horizons: request records are windowed counts and only need a
// week; daily aggregates are kept a month for reporting.
const (
	RequestRetentionDays = 7
	StatsRetentionDays   = 30
)

// CostTracker accumulates observed spend against the current day and exposes
// a monitoring snapshot. It shares the store and day key with the Limiter
// but is otherwise independent of admission control.
type CostTracker struct {
	store   storage.Store
	metrics *Metrics
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu     sync.RWMutex
	config Config
}

// NewCostTracker creates a CostTracker over the given store.
// A nil metrics disables instrumentation.
func NewCostTracker(config Config, store storage.Store, metrics *Metrics) *CostTracker {
	return &CostTracker{
		config:  config,
		store:   store,
		metrics: metrics,
		logger:  slog.Default().With("component", "limits.cost"),
		now:     time.Now,
	}
}

// Add records spend against today's total. Storage errors are logged and the
// update is dropped; they never propagate to the caller.
//
// When the new total crosses CostAlertThreshold of the daily ceiling, a
// warning is logged. The warning never blocks the request.
func (c *CostTracker) Add(ctx context.Context, amount float64) {
	if amount < 0 {
		c.logger.Warn("ignoring negative cost amount", "amount", amount)
		return
	}

	today := storage.DayKey(c.now())
	total, err := c.store.AddCost(ctx, today, amount)
	if err != nil {
		c.logger.Error("failed to track cost, dropping update", "amount", amount, "error", err)
		return
	}

	if c.metrics != nil {
		c.metrics.RecordCost(amount, total)
	}

	c.logger.Info("cost added", "amount", amount, "daily_total", total)

	cfg := c.Config()
	if cfg.CostAlertThreshold > 0 && total > cfg.MaxDailyCost*cfg.CostAlertThreshold {
		c.logger.Warn("approaching daily cost limit",
			"daily_total", total,
			"limit", cfg.MaxDailyCost,
		)
	}
}

// Config returns the current ceilings.
func (c *CostTracker) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// SetConfig swaps the ceilings, used when configuration is hot-reloaded.
func (c *CostTracker) SetConfig(config Config) {
	c.mu.Lock()
	c.config = config
	c.mu.Unlock()
}

// Status returns a read-only snapshot of today's counters for monitoring.
// Remaining values are clamped to zero.
func (c *CostTracker) Status(ctx context.Context) (*Status, error) {
	cfg := c.Config()
	today := storage.DayKey(c.now())

	stats, err := c.store.GetOrCreateDaily(ctx, today)
	if err != nil {
		return nil, err
	}
	unique, err := c.store.UniqueIdentities(ctx, today)
	if err != nil {
		return nil, err
	}

	requestsRemaining := cfg.MaxDailyRequests - stats.TotalRequests
	if requestsRemaining < 0 {
		requestsRemaining = 0
	}
	costRemaining := cfg.MaxDailyCost - stats.TotalCost
	if costRemaining < 0 {
		costRemaining = 0
	}

	return &Status{
		DailyRequests:     stats.TotalRequests,
		DailyCost:         stats.TotalCost,
		UniqueIdentities:  unique,
		RequestsRemaining: requestsRemaining,
		CostRemaining:     costRemaining,
		Limits:            cfg,
	}, nil
}

// ResetDaily zeroes today's counters and purges request records past the
// 7-day retention horizon. Historical daily stats rows are untouched.
func (c *CostTracker) ResetDaily(ctx context.Context) error {
	now := c.now()
	today := storage.DayKey(now)

	stats, err := c.store.GetOrCreateDaily(ctx, today)
	if err == nil {
		c.logger.Info("daily reset", "requests", stats.TotalRequests, "cost", stats.TotalCost)
	}

	if err := c.store.ResetDay(ctx, today); err != nil {
		return err
	}

	// Reset only clears request history. Purging of old daily aggregates
	// happens on the retention schedule, so the stats horizon passed here
	// is effectively never hit for same-day rows.
	if _, err := c.store.PurgeOlderThan(ctx, RequestRetentionDays, StatsRetentionDays); err != nil {
		c.logger.Error("failed to purge old request records during reset", "error", err)
	}

	c.logger.Info("daily limits reset")
	return nil
}
