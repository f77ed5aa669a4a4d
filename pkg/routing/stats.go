package routing

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks model usage counts and accumulated estimated savings.
// Counters use atomics; the savings total is guarded by a mutex because
// float64 has no atomic add.
type Stats struct {
	totalSelections atomic.Int64

	// usage tracks selections per model.
	usage sync.Map // map[string]*atomic.Int64

	mu        sync.RWMutex
	saved     float64
	startedAt time.Time
}

// NewStats creates a zeroed stats tracker.
func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

// RecordSelection counts one selection of model and adds its estimated
// savings to the running total.
func (s *Stats) RecordSelection(model string, savings float64) {
	s.totalSelections.Add(1)

	val, _ := s.usage.LoadOrStore(model, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)

	if savings > 0 {
		s.mu.Lock()
		s.saved += savings
		s.mu.Unlock()
	}
}

// TotalSelections returns the number of routing decisions made.
func (s *Stats) TotalSelections() int64 {
	return s.totalSelections.Load()
}

// TotalSaved returns the accumulated estimated savings in USD.
func (s *Stats) TotalSaved() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saved
}

// ModelUsage returns a copy of the per-model selection counts.
func (s *Stats) ModelUsage() map[string]int64 {
	usage := make(map[string]int64)
	s.usage.Range(func(key, value any) bool {
		usage[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return usage
}

// Snapshot is a point-in-time view of routing statistics.
type Snapshot struct {
	// TotalSelections is the number of routing decisions made.
	TotalSelections int64 `json:"total_selections"`

	// TotalSaved is the accumulated estimated savings in USD.
	TotalSaved float64 `json:"total_saved"`

	// ModelUsage is the selection count per model.
	ModelUsage map[string]int64 `json:"model_usage"`

	// Since is when tracking started.
	Since time.Time `json:"since"`
}

// Snapshot returns a consistent copy of the current statistics.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		TotalSelections: s.TotalSelections(),
		TotalSaved:      s.TotalSaved(),
		ModelUsage:      s.ModelUsage(),
		Since:           s.startedAt,
	}
}
