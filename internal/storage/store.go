package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/runnerr0/ecodash/internal/emission"
)

// Store defines the interface for EcoDash aggregate operations.
type Store interface {
	RecordSession(ctx context.Context, service emission.Service, duration time.Duration) error
	Totals(ctx context.Context) (float64, error)
	ServiceBreakdown(ctx context.Context) (Breakdown, error)
	DailyBreakdown(ctx context.Context, day string) (Breakdown, error)
	WeeklyBreakdown(ctx context.Context, week string) (Breakdown, error)
	GetAdvisory(ctx context.Context) (*Advisory, error)
	SetAdvisory(ctx context.Context, tips, analysis string) error
	GetSnapshot(ctx context.Context) (*Snapshot, error)
	Reset(ctx context.Context) error
	Subscribe() (<-chan struct{}, func())
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
//
// Every mutation is one mutex-guarded transaction of additive UPSERT
// increments, so interleaved flushes cannot lose updates the way a
// read-then-blind-write key-value store would.
type SQLiteStore struct {
	db *sql.DB

	// Serializes mutations; the underlying store has no native
	// cross-key transaction the callers could rely on instead.
	mu sync.Mutex

	// Prepared statements
	incTotal   *sql.Stmt
	incService *sql.Stmt
	incDaily   *sql.Stmt
	incWeekly  *sql.Stmt

	// Wall clock, injectable for tests.
	now func() time.Time

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a SQLiteStore from an already-opened and
// migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{
		db:   db,
		now:  time.Now,
		subs: make(map[int]chan struct{}),
	}
	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.incTotal, err = s.db.Prepare(`
		UPDATE totals SET total_co2 = total_co2 + ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1
	`)
	if err != nil {
		return err
	}

	s.incService, err = s.db.Prepare(`
		INSERT INTO service_totals (service, minutes, co2) VALUES (?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			minutes = minutes + excluded.minutes,
			co2     = co2 + excluded.co2
	`)
	if err != nil {
		return err
	}

	s.incDaily, err = s.db.Prepare(`
		INSERT INTO daily_totals (day, service, minutes, co2) VALUES (?, ?, ?, ?)
		ON CONFLICT(day, service) DO UPDATE SET
			minutes = minutes + excluded.minutes,
			co2     = co2 + excluded.co2
	`)
	if err != nil {
		return err
	}

	s.incWeekly, err = s.db.Prepare(`
		INSERT INTO weekly_totals (week, service, minutes, co2) VALUES (?, ?, ?, ?)
		ON CONFLICT(week, service) DO UPDATE SET
			minutes = minutes + excluded.minutes,
			co2     = co2 + excluded.co2
	`)
	return err
}

// setNow injects a deterministic clock (tests only).
func (s *SQLiteStore) setNow(now func() time.Time) {
	s.now = now
}

// RecordSession folds one closed session into the accumulators: the
// per-service total, the current day and week buckets, and the grand
// total. Minutes and CO2 are derived once from the same duration, so
// the co2 == minutes*rate invariant holds in every bucket. Durations
// of zero or less are a provable no-op: no statement runs.
func (s *SQLiteStore) RecordSession(ctx context.Context, service emission.Service, duration time.Duration) error {
	minutes := duration.Minutes()
	if minutes <= 0 {
		return nil
	}
	co2 := minutes * emission.RateFor(service)

	// Day and week are derived at flush time, so a session crossing
	// midnight lands wholly in the period current when it closed.
	now := s.now()
	day := DayKey(now)
	week := WeekKey(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Stmt(s.incTotal).ExecContext(ctx, co2); err != nil {
		return fmt.Errorf("increment total: %w", err)
	}
	if _, err := tx.Stmt(s.incService).ExecContext(ctx, string(service), minutes, co2); err != nil {
		return fmt.Errorf("increment service bucket: %w", err)
	}
	if _, err := tx.Stmt(s.incDaily).ExecContext(ctx, day, string(service), minutes, co2); err != nil {
		return fmt.Errorf("increment daily bucket: %w", err)
	}
	if _, err := tx.Stmt(s.incWeekly).ExecContext(ctx, week, string(service), minutes, co2); err != nil {
		return fmt.Errorf("increment weekly bucket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.notify()
	return nil
}

// Totals returns the all-time CO2 grand total in grams.
func (s *SQLiteStore) Totals(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, "SELECT total_co2 FROM totals WHERE id = 1").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("read totals: %w", err)
	}
	return total, nil
}

// ServiceBreakdown returns the all-time per-service buckets.
func (s *SQLiteStore) ServiceBreakdown(ctx context.Context) (Breakdown, error) {
	return s.queryBreakdown(ctx, "SELECT service, minutes, co2 FROM service_totals")
}

// DailyBreakdown returns the per-service buckets for one day key.
func (s *SQLiteStore) DailyBreakdown(ctx context.Context, day string) (Breakdown, error) {
	return s.queryBreakdown(ctx,
		"SELECT service, minutes, co2 FROM daily_totals WHERE day = ?", day)
}

// WeeklyBreakdown returns the per-service buckets for one week key.
func (s *SQLiteStore) WeeklyBreakdown(ctx context.Context, week string) (Breakdown, error) {
	return s.queryBreakdown(ctx,
		"SELECT service, minutes, co2 FROM weekly_totals WHERE week = ?", week)
}

func (s *SQLiteStore) queryBreakdown(ctx context.Context, query string, args ...interface{}) (Breakdown, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := Breakdown{}
	for rows.Next() {
		var service string
		var b Bucket
		if err := rows.Scan(&service, &b.Minutes, &b.CO2Grams); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		breakdown[emission.Service(service)] = b
	}
	return breakdown, rows.Err()
}

// GetAdvisory returns the most recent advisory text.
func (s *SQLiteStore) GetAdvisory(ctx context.Context) (*Advisory, error) {
	var a Advisory
	var updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT tips, analysis, updated_at FROM advisory WHERE id = 1",
	).Scan(&a.Tips, &a.Analysis, &updated)
	if err != nil {
		return nil, fmt.Errorf("read advisory: %w", err)
	}
	a.UpdatedAt, err = parseTimestamp(updated)
	if err != nil {
		return nil, fmt.Errorf("parse advisory timestamp: %w", err)
	}
	return &a, nil
}

// SetAdvisory replaces the advisory text and analysis.
func (s *SQLiteStore) SetAdvisory(ctx context.Context, tips, analysis string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE advisory SET tips = ?, analysis = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1",
		tips, analysis,
	)
	if err != nil {
		return fmt.Errorf("write advisory: %w", err)
	}

	s.notify()
	return nil
}

// GetSnapshot reads the full persisted state.
func (s *SQLiteStore) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	total, err := s.Totals(ctx)
	if err != nil {
		return nil, err
	}
	services, err := s.ServiceBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	daily, err := s.queryKeyedBreakdowns(ctx, "SELECT day, service, minutes, co2 FROM daily_totals")
	if err != nil {
		return nil, err
	}
	weekly, err := s.queryKeyedBreakdowns(ctx, "SELECT week, service, minutes, co2 FROM weekly_totals")
	if err != nil {
		return nil, err
	}
	advisory, err := s.GetAdvisory(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		TotalCO2: total,
		Services: services,
		Daily:    daily,
		Weekly:   weekly,
		Advisory: *advisory,
	}, nil
}

func (s *SQLiteStore) queryKeyedBreakdowns(ctx context.Context, query string) (map[string]Breakdown, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query keyed breakdowns: %w", err)
	}
	defer rows.Close()

	out := map[string]Breakdown{}
	for rows.Next() {
		var key, service string
		var b Bucket
		if err := rows.Scan(&key, &service, &b.Minutes, &b.CO2Grams); err != nil {
			return nil, fmt.Errorf("scan keyed bucket: %w", err)
		}
		if out[key] == nil {
			out[key] = Breakdown{}
		}
		out[key][emission.Service(service)] = b
	}
	return out, rows.Err()
}

// Reset zeroes all accumulators and restores the initial advisory
// text, returning the store to its first-install state.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmts := []string{
		"UPDATE totals SET total_co2 = 0, updated_at = CURRENT_TIMESTAMP WHERE id = 1",
		"DELETE FROM service_totals",
		"DELETE FROM daily_totals",
		"DELETE FROM weekly_totals",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset (%s): %w", stmt, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE advisory SET tips = ?, analysis = '', updated_at = CURRENT_TIMESTAMP WHERE id = 1",
		initialAdvisoryText,
	); err != nil {
		return fmt.Errorf("reset advisory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.notify()
	return nil
}

// Subscribe registers a change listener. The returned channel receives
// a signal after every committed mutation; sends are non-blocking, so
// a slow consumer coalesces signals instead of stalling writers. The
// returned func unsubscribes.
func (s *SQLiteStore) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *SQLiteStore) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// parseTimestamp tries the timestamp formats SQLite produces.
func parseTimestamp(ts string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", ts)
}

// Close releases all prepared statements and subscriber channels. The
// underlying *sql.DB is NOT closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	s.subMu.Lock()
	if !s.closed {
		s.closed = true
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
	}
	s.subMu.Unlock()

	stmts := []*sql.Stmt{s.incTotal, s.incService, s.incDaily, s.incWeekly}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
