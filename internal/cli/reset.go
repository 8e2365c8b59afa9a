package cli

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/ecodash/internal/storage"
)

// setDB allows tests to inject a database connection.
func (c *ResetCommand) setDB(db *sql.DB) {
	c.db = db
}

// Execute implements the go-flags Commander interface for ResetCommand.
func (c *ResetCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("reset requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("⚠ WARNING: This will permanently delete ALL EcoDash data.")
		fmt.Println("  - The running CO2 total")
		fmt.Println("  - All per-service, daily, and weekly accumulators")
		fmt.Println("  - The current advisory text")
		fmt.Println()
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "RESET" to confirm: `)

		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		input := strings.TrimSpace(scanner.Text())
		if input != "RESET" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	// Open or use injected DB
	db := c.db
	if db == nil {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return err
		}
		var store *storage.SQLiteStore
		store, db, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		defer store.Close()

		return c.reset(store)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	return c.reset(store)
}

func (c *ResetCommand) reset(store storage.Store) error {
	if err := store.Reset(context.Background()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := map[string]interface{}{
			"reset":   true,
			"message": "all data deleted",
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(out)
	}

	fmt.Println("Reset all data. EcoDash is back to zero.")
	return nil
}
