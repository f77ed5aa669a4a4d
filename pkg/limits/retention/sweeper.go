package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"codechat-hq/codechat/pkg/limits/storage"
)

// Config contains configuration for the retention sweeper.
type Config struct {
	// RequestRetentionDays is how long request records are kept.
	// 0 disables request pruning.
	RequestRetentionDays int `yaml:"request_retention_days"`

	// StatsRetentionDays is how long daily aggregate rows are kept.
	// 0 disables stats pruning.
	StatsRetentionDays int `yaml:"stats_retention_days"`

	// Schedule is a cron expression for the periodic sweep.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables the schedule.
	Schedule string `yaml:"schedule"`

	// SweepOnStart runs one sweep immediately when Start is called.
	SweepOnStart bool `yaml:"sweep_on_start"`
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() Config {
	return Config{
		RequestRetentionDays: 7,
		StatsRetentionDays:   30,
		Schedule:             "0 3 * * *",
		SweepOnStart:         true,
	}
}

// Sweeper prunes expired request records and daily stats rows from the
// limits store, on demand and on a cron schedule.
type Sweeper struct {
	store  storage.Store
	config Config
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a retention sweeper over the given store.
func NewSweeper(store storage.Store, config Config) *Sweeper {
	return &Sweeper{
		store:  store,
		config: config,
		cron:   cron.New(),
		logger: slog.Default().With("component", "limits.retention"),
	}
}

// Sweep runs one retention pass and returns what was removed.
func (s *Sweeper) Sweep(ctx context.Context) (storage.PurgeResult, error) {
	if s.config.RequestRetentionDays <= 0 && s.config.StatsRetentionDays <= 0 {
		s.logger.Debug("retention disabled, skipping sweep")
		return storage.PurgeResult{}, nil
	}

	// A zero horizon means keep forever; substitute one far enough out
	// that the purge never matches.
	requestDays := s.config.RequestRetentionDays
	if requestDays <= 0 {
		requestDays = 1 << 16
	}
	statsDays := s.config.StatsRetentionDays
	if statsDays <= 0 {
		statsDays = 1 << 16
	}

	start := time.Now()
	result, err := s.store.PurgeOlderThan(ctx, requestDays, statsDays)
	if err != nil {
		return result, fmt.Errorf("retention sweep failed: %w", err)
	}

	if result.Requests > 0 || result.DailyStats > 0 {
		s.logger.Info("retention sweep completed",
			"deleted_requests", result.Requests,
			"deleted_stats", result.DailyStats,
			"duration", time.Since(start),
		)
	} else {
		s.logger.Debug("retention sweep completed, nothing to delete")
	}
	return result, nil
}

// Start registers the cron schedule and, if configured, runs an immediate
// sweep. The scheduler stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.SweepOnStart {
		if _, err := s.Sweep(ctx); err != nil {
			// Startup must not fail because old rows could not be removed.
			s.logger.Error("startup retention sweep failed", "error", err)
		}
	}

	if s.config.Schedule == "" {
		s.logger.Info("retention schedule not configured, running startup sweep only")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.config.Schedule, err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("scheduled retention sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention sweeper started",
		"schedule", s.config.Schedule,
		"request_retention_days", s.config.RequestRetentionDays,
		"stats_retention_days", s.config.StatsRetentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("retention sweeper stopped")
	}
}

// IsRunning reports whether the cron schedule is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep time, or nil when unscheduled.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
