package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/ecodash/internal/config"
	"github.com/runnerr0/ecodash/internal/emission"
	"github.com/runnerr0/ecodash/internal/storage"
)

// loadConfig resolves the config: the --config path if given, else the
// default path (created with defaults on first run).
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		return config.Load(globals.Config)
	}
	return config.LoadOrCreate()
}

// openStore opens the configured SQLite database, runs migrations, and
// returns a ready-to-use store and the underlying *sql.DB.
func openStore(cfg *config.Config) (*storage.SQLiteStore, *sql.DB, error) {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve db path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// sortedServices returns a breakdown's service tags ordered by CO2
// contribution, heaviest first.
func sortedServices(b storage.Breakdown) []emission.Service {
	services := make([]emission.Service, 0, len(b))
	for s := range b {
		services = append(services, s)
	}
	sort.Slice(services, func(i, j int) bool {
		if b[services[i]].CO2Grams != b[services[j]].CO2Grams {
			return b[services[i]].CO2Grams > b[services[j]].CO2Grams
		}
		return services[i] < services[j]
	})
	return services
}

// indent prefixes every line of s with the given prefix.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// formatGrams formats a CO2 mass for human output.
func formatGrams(grams float64) string {
	if grams >= 1000 {
		return fmt.Sprintf("%.2f kg", grams/1000)
	}
	return fmt.Sprintf("%.2f g", grams)
}

// formatMinutes formats an active-minutes count for human output.
func formatMinutes(minutes float64) string {
	if minutes >= 60 {
		return fmt.Sprintf("%.1f h", minutes/60)
	}
	return fmt.Sprintf("%.1f min", minutes)
}
