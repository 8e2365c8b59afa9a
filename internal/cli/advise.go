package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/ecodash/internal/advisor"
	"github.com/runnerr0/ecodash/internal/storage"
)

// Execute implements the go-flags Commander interface for AdviseCommand.
func (c *AdviseCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if cfg.Advisor.APIKey == "" {
		return fmt.Errorf("no advisor API key configured (set advisor.api_key or %s)", "ECODASH_API_KEY")
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	client := advisor.NewClient(cfg.Advisor.APIURL, cfg.Advisor.APIKey, cfg.Advisor.Model)
	pipeline := advisor.NewPipeline(client, store, cfg.Advisor.Temperature, cfg.Advisor.MaxTokens)

	timeout := time.Duration(cfg.Advisor.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return c.executeWithPipeline(ctx, pipeline, store)
}

// executeWithPipeline runs advise against provided collaborators (for testing).
func (c *AdviseCommand) executeWithPipeline(ctx context.Context, pipeline *advisor.Pipeline, store storage.Store) error {
	if err := pipeline.Run(ctx); err != nil {
		return fmt.Errorf("advisory pipeline: %w", err)
	}

	advisory, err := store.GetAdvisory(context.Background())
	if err != nil {
		return fmt.Errorf("read advisory: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := map[string]interface{}{
			"tips":     advisory.Tips,
			"analysis": advisory.Analysis,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println("Optimization tips:")
	fmt.Println(indent(advisory.Tips, "  "))
	return nil
}
