package storage

import (
	"context"
	"errors"
	"time"
)

// DayKeyFormat is the layout for daily stats keys (process-local calendar date).
const DayKeyFormat = "2006-01-02"

// DayKey returns the daily stats key for t in local time.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// DailyStats is the single aggregate row per calendar date.
//
// One record exists per date, created lazily on first touch. Counters are
// only ever incremented during the day; an administrative reset zeroes the
// current day's row without touching historical rows.
type DailyStats struct {
	// Date is the calendar date key in DayKeyFormat.
	Date string

	// TotalRequests is the number of admitted requests for the date.
	TotalRequests int64

	// TotalCost is the accumulated spend in USD for the date.
	TotalCost float64

	// UniqueIdentities is the count of distinct identities seen that date.
	// Populated by Stats queries, not stored incrementally.
	UniqueIdentities int64

	// LastUpdated is when the row was last mutated.
	LastUpdated time.Time
}

// PurgeResult reports what a retention sweep removed.
type PurgeResult struct {
	// Requests is the number of request records deleted.
	Requests int64

	// DailyStats is the number of daily stats rows deleted.
	DailyStats int64
}

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("storage: store is closed")

// Store is durable, concurrent-safe storage for request records and daily
// aggregate counters.
//
// All mutating operations are atomic under concurrent callers: increments are
// single-statement upserts, never read-modify-write. Implementations must
// survive process restart (SQLiteStore) or document that they do not
// (MemoryStore, used for tests and development).
type Store interface {
	// RecordRequest appends a request record for identity at ts.
	RecordRequest(ctx context.Context, identity string, ts time.Time) error

	// CountRequests returns the number of request records for identity with
	// timestamp strictly after since.
	CountRequests(ctx context.Context, identity string, since time.Time) (int64, error)

	// GetOrCreateDaily returns the stats row for date, creating a zeroed row
	// if absent. Calling it concurrently for a missing date creates exactly
	// one row.
	GetOrCreateDaily(ctx context.Context, date string) (*DailyStats, error)

	// AddCost atomically adds amount to the date's total cost and returns the
	// new total. The row is created if absent.
	AddCost(ctx context.Context, date string, amount float64) (float64, error)

	// IncrementRequests atomically increments the date's request counter and
	// returns the new total. The row is created if absent.
	IncrementRequests(ctx context.Context, date string) (int64, error)

	// UniqueIdentities returns the number of distinct identities with request
	// records on the given date.
	UniqueIdentities(ctx context.Context, date string) (int64, error)

	// ResetDay zeroes the counters for the given date only.
	ResetDay(ctx context.Context, date string) error

	// PurgeOlderThan deletes request records older than requestDays and daily
	// stats rows older than statsDays, then reclaims storage space. Deletes
	// are batched so concurrent admission checks are not starved.
	PurgeOlderThan(ctx context.Context, requestDays, statsDays int) (PurgeResult, error)

	// Close releases resources held by the store. Close is idempotent.
	Close() error
}
