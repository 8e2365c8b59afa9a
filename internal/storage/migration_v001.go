package storage

import "database/sql"

// initialAdvisoryText is shown until the first advisory run completes.
const initialAdvisoryText = "Analyzing your digital habits..."

// migrateV001 creates the initial EcoDash schema: the grand total, the
// per-service accumulators, the day- and week-bucketed accumulators,
// and the advisory text row. Every statement uses IF NOT EXISTS for
// idempotency, and the singleton rows are seeded with INSERT OR IGNORE.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS totals (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			total_co2  REAL NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS service_totals (
			service TEXT PRIMARY KEY,
			minutes REAL NOT NULL DEFAULT 0,
			co2     REAL NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS daily_totals (
			day     TEXT NOT NULL,
			service TEXT NOT NULL,
			minutes REAL NOT NULL DEFAULT 0,
			co2     REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (day, service)
		)`,

		`CREATE TABLE IF NOT EXISTS weekly_totals (
			week    TEXT NOT NULL,
			service TEXT NOT NULL,
			minutes REAL NOT NULL DEFAULT 0,
			co2     REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (week, service)
		)`,

		`CREATE TABLE IF NOT EXISTS advisory (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			tips       TEXT NOT NULL DEFAULT '',
			analysis   TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_daily_totals_day   ON daily_totals(day)`,
		`CREATE INDEX IF NOT EXISTS idx_weekly_totals_week ON weekly_totals(week)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`INSERT OR IGNORE INTO totals (id, total_co2) VALUES (1, 0)`); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO advisory (id, tips, analysis) VALUES (1, ?, '')`,
		initialAdvisoryText,
	); err != nil {
		return err
	}

	return nil
}
