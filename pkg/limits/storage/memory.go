package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory structures.
// All data is lost when the process exits; it exists for tests and for
// development runs where persistence does not matter.
//
// MemoryStore is thread-safe using sync.RWMutex.
type MemoryStore struct {
	requests map[string][]time.Time
	daily    map[string]*DailyStats

	mu     sync.RWMutex
	closed bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string][]time.Time),
		daily:    make(map[string]*DailyStats),
	}
}

// RecordRequest appends a request record for identity at ts.
func (m *MemoryStore) RecordRequest(_ context.Context, identity string, ts time.Time) error {
	if identity == "" {
		return fmt.Errorf("identity cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.requests[identity] = append(m.requests[identity], ts)
	return nil
}

// CountRequests returns the number of records for identity newer than since.
func (m *MemoryStore) CountRequests(_ context.Context, identity string, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	var n int64
	for _, ts := range m.requests[identity] {
		if ts.After(since) {
			n++
		}
	}
	return n, nil
}

// GetOrCreateDaily returns the stats row for date, creating it if absent.
func (m *MemoryStore) GetOrCreateDaily(_ context.Context, date string) (*DailyStats, error) {
	if date == "" {
		return nil, fmt.Errorf("date cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	stats := m.getOrCreateLocked(date)
	clone := *stats
	return &clone, nil
}

// getOrCreateLocked returns the live row for date.
// Caller must hold the write lock.
func (m *MemoryStore) getOrCreateLocked(date string) *DailyStats {
	stats, ok := m.daily[date]
	if !ok {
		stats = &DailyStats{Date: date, LastUpdated: time.Now()}
		m.daily[date] = stats
	}
	return stats
}

// AddCost atomically adds amount to the date's total cost.
func (m *MemoryStore) AddCost(_ context.Context, date string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("cost amount cannot be negative: %v", amount)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	stats := m.getOrCreateLocked(date)
	stats.TotalCost += amount
	stats.LastUpdated = time.Now()
	return stats.TotalCost, nil
}

// IncrementRequests atomically increments the date's request counter.
func (m *MemoryStore) IncrementRequests(_ context.Context, date string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	stats := m.getOrCreateLocked(date)
	stats.TotalRequests++
	stats.LastUpdated = time.Now()
	return stats.TotalRequests, nil
}

// UniqueIdentities returns the number of distinct identities seen on date.
func (m *MemoryStore) UniqueIdentities(_ context.Context, date string) (int64, error) {
	day, err := time.ParseInLocation(DayKeyFormat, date, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	next := day.AddDate(0, 0, 1)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	var n int64
	for _, stamps := range m.requests {
		for _, ts := range stamps {
			if !ts.Before(day) && ts.Before(next) {
				n++
				break
			}
		}
	}
	return n, nil
}

// ResetDay zeroes the counters for the given date only.
func (m *MemoryStore) ResetDay(_ context.Context, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	stats := m.getOrCreateLocked(date)
	stats.TotalRequests = 0
	stats.TotalCost = 0
	stats.LastUpdated = time.Now()
	return nil
}

// PurgeOlderThan deletes request records and stats rows past their horizons.
func (m *MemoryStore) PurgeOlderThan(_ context.Context, requestDays, statsDays int) (PurgeResult, error) {
	requestCutoff := time.Now().AddDate(0, 0, -requestDays)
	statsCutoff := DayKey(time.Now().AddDate(0, 0, -statsDays))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return PurgeResult{}, ErrStoreClosed
	}

	var result PurgeResult
	for identity, stamps := range m.requests {
		kept := stamps[:0]
		for _, ts := range stamps {
			if ts.Before(requestCutoff) {
				result.Requests++
			} else {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(m.requests, identity)
		} else {
			m.requests[identity] = kept
		}
	}

	for date := range m.daily {
		if date < statsCutoff {
			delete(m.daily, date)
			result.DailyStats++
		}
	}

	return result, nil
}

// Close marks the store closed. Close is idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
