package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence.
//
// The store survives process restarts and is suitable for single-instance
// deployments. It uses a write-ahead log (WAL) for better concurrent
// performance and keeps a single writer connection; a store-level mutex
// serializes writes while allowing concurrent reads.
type SQLiteStore struct {
	db         *sql.DB
	dbPath     string
	purgeBatch int

	mu        sync.RWMutex
	closeOnce sync.Once

	// pre-compiled statements for the hot path
	recordStmt    *sql.Stmt
	countStmt     *sql.Stmt
	getDailyStmt  *sql.Stmt
	createStmt    *sql.Stmt
	addCostStmt   *sql.Stmt
	incrReqStmt   *sql.Stmt
	readCostStmt  *sql.Stmt
	readReqStmt   *sql.Stmt
	uniqueStmt    *sql.Stmt
	resetDayStmt  *sql.Stmt
	purgeReqStmt  *sql.Stmt
	purgeStatStmt *sql.Stmt
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration

	// PurgeBatchSize is the maximum rows deleted per statement during a
	// retention sweep. Default: 500.
	PurgeBatchSize int
}

// NewSQLiteStore opens (or creates) a SQLite store at path with defaults.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteStoreWithConfig opens a SQLite store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.PurgeBatchSize <= 0 {
		cfg.PurgeBatchSize = 500
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:         db,
		dbPath:     cfg.Path,
		purgeBatch: cfg.PurgeBatchSize,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identity TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		date TEXT PRIMARY KEY,
		total_requests INTEGER NOT NULL DEFAULT 0,
		total_cost REAL NOT NULL DEFAULT 0,
		last_updated INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_identity_time ON requests(identity, timestamp);
	CREATE INDEX IF NOT EXISTS idx_requests_time ON requests(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.recordStmt, `INSERT INTO requests (identity, timestamp) VALUES (?, ?)`},
		{&s.countStmt, `SELECT COUNT(*) FROM requests WHERE identity = ? AND timestamp > ?`},
		{&s.getDailyStmt, `SELECT date, total_requests, total_cost, last_updated FROM daily_stats WHERE date = ?`},
		{&s.createStmt, `INSERT INTO daily_stats (date, total_requests, total_cost, last_updated)
			VALUES (?, 0, 0, ?)
			ON CONFLICT (date) DO NOTHING`},
		{&s.addCostStmt, `INSERT INTO daily_stats (date, total_requests, total_cost, last_updated)
			VALUES (?, 0, ?, ?)
			ON CONFLICT (date) DO UPDATE SET
				total_cost = total_cost + excluded.total_cost,
				last_updated = excluded.last_updated`},
		{&s.incrReqStmt, `INSERT INTO daily_stats (date, total_requests, total_cost, last_updated)
			VALUES (?, 1, 0, ?)
			ON CONFLICT (date) DO UPDATE SET
				total_requests = total_requests + 1,
				last_updated = excluded.last_updated`},
		{&s.readCostStmt, `SELECT total_cost FROM daily_stats WHERE date = ?`},
		{&s.readReqStmt, `SELECT total_requests FROM daily_stats WHERE date = ?`},
		{&s.uniqueStmt, `SELECT COUNT(DISTINCT identity) FROM requests WHERE timestamp >= ? AND timestamp < ?`},
		{&s.resetDayStmt, `INSERT INTO daily_stats (date, total_requests, total_cost, last_updated)
			VALUES (?, 0, 0, ?)
			ON CONFLICT (date) DO UPDATE SET
				total_requests = 0,
				total_cost = 0,
				last_updated = excluded.last_updated`},
		{&s.purgeReqStmt, `DELETE FROM requests WHERE id IN (
			SELECT id FROM requests WHERE timestamp < ? LIMIT ?)`},
		{&s.purgeStatStmt, `DELETE FROM daily_stats WHERE date < ?`},
	}

	for _, st := range stmts {
		prepared, err := s.db.Prepare(st.query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %q: %w", st.query, err)
		}
		*st.dst = prepared
	}
	return nil
}

// RecordRequest appends a request record for identity at ts.
func (s *SQLiteStore) RecordRequest(ctx context.Context, identity string, ts time.Time) error {
	if identity == "" {
		return fmt.Errorf("identity cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.recordStmt.ExecContext(ctx, identity, ts.Unix()); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// CountRequests returns the number of records for identity newer than since.
func (s *SQLiteStore) CountRequests(ctx context.Context, identity string, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	if err := s.countStmt.QueryRowContext(ctx, identity, since.Unix()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return n, nil
}

// GetOrCreateDaily returns the stats row for date, creating it if absent.
func (s *SQLiteStore) GetOrCreateDaily(ctx context.Context, date string) (*DailyStats, error) {
	if date == "" {
		return nil, fmt.Errorf("date cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.createStmt.ExecContext(ctx, date, time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("failed to create daily stats: %w", err)
	}
	return s.readDailyLocked(ctx, date)
}

func (s *SQLiteStore) readDailyLocked(ctx context.Context, date string) (*DailyStats, error) {
	var (
		stats       DailyStats
		lastUpdated int64
	)
	err := s.getDailyStmt.QueryRowContext(ctx, date).Scan(
		&stats.Date, &stats.TotalRequests, &stats.TotalCost, &lastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily stats: %w", err)
	}
	stats.LastUpdated = time.Unix(lastUpdated, 0)
	return &stats, nil
}

// AddCost atomically adds amount to the date's total cost.
func (s *SQLiteStore) AddCost(ctx context.Context, date string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("cost amount cannot be negative: %v", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.addCostStmt.ExecContext(ctx, date, amount, time.Now().Unix()); err != nil {
		return 0, fmt.Errorf("failed to add cost: %w", err)
	}

	var total float64
	if err := s.readCostStmt.QueryRowContext(ctx, date).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to read cost total: %w", err)
	}
	return total, nil
}

// IncrementRequests atomically increments the date's request counter.
func (s *SQLiteStore) IncrementRequests(ctx context.Context, date string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.incrReqStmt.ExecContext(ctx, date, time.Now().Unix()); err != nil {
		return 0, fmt.Errorf("failed to increment requests: %w", err)
	}

	var total int64
	if err := s.readReqStmt.QueryRowContext(ctx, date).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to read request total: %w", err)
	}
	return total, nil
}

// UniqueIdentities returns the number of distinct identities seen on date.
func (s *SQLiteStore) UniqueIdentities(ctx context.Context, date string) (int64, error) {
	day, err := time.ParseInLocation(DayKeyFormat, date, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err = s.uniqueStmt.QueryRowContext(ctx, day.Unix(), day.AddDate(0, 0, 1).Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unique identities: %w", err)
	}
	return n, nil
}

// ResetDay zeroes the counters for the given date only.
func (s *SQLiteStore) ResetDay(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.resetDayStmt.ExecContext(ctx, date, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to reset day: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes request records older than requestDays and daily
// stats rows older than statsDays, then reclaims space with VACUUM.
//
// Request deletes run in batches of PurgeBatchSize so the write lock is
// released between batches and concurrent admission checks are not blocked
// for the duration of a full table scan.
func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, requestDays, statsDays int) (PurgeResult, error) {
	var result PurgeResult

	requestCutoff := time.Now().AddDate(0, 0, -requestDays).Unix()
	statsCutoff := DayKey(time.Now().AddDate(0, 0, -statsDays))

	for {
		s.mu.Lock()
		res, err := s.purgeReqStmt.ExecContext(ctx, requestCutoff, s.purgeBatch)
		s.mu.Unlock()
		if err != nil {
			return result, fmt.Errorf("failed to purge requests: %w", err)
		}
		deleted, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("failed to get rows affected: %w", err)
		}
		result.Requests += deleted
		if deleted < int64(s.purgeBatch) {
			break
		}
	}

	s.mu.Lock()
	res, err := s.purgeStatStmt.ExecContext(ctx, statsCutoff)
	s.mu.Unlock()
	if err != nil {
		return result, fmt.Errorf("failed to purge daily stats: %w", err)
	}
	if deleted, err := res.RowsAffected(); err == nil {
		result.DailyStats = deleted
	}

	s.mu.Lock()
	_, err = s.db.ExecContext(ctx, "VACUUM")
	s.mu.Unlock()
	if err != nil {
		return result, fmt.Errorf("failed to vacuum: %w", err)
	}

	return result, nil
}

// Close releases resources held by the store. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{
			s.recordStmt, s.countStmt, s.getDailyStmt, s.createStmt,
			s.addCostStmt, s.incrReqStmt, s.readCostStmt, s.readReqStmt,
			s.uniqueStmt, s.resetDayStmt, s.purgeReqStmt, s.purgeStatStmt,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}
