package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/runnerr0/ecodash/internal/advisor"
	"github.com/runnerr0/ecodash/internal/server"
	"github.com/runnerr0/ecodash/internal/tracker"
)

// Execute implements the go-flags Commander interface for ServeCommand.
// It runs the daemon in the foreground until interrupted.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Daemon.Port = c.Port
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	tr := tracker.New(store)
	if c.globals != nil && c.globals.Verbose {
		tr.SetVerbose(true)
	}

	address := fmt.Sprintf("%s:%d", cfg.Daemon.Host, cfg.Daemon.Port)
	srv := server.New(tr, store, address)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Advisor.Enabled && cfg.Advisor.APIKey != "" {
		client := advisor.NewClient(cfg.Advisor.APIURL, cfg.Advisor.APIKey, cfg.Advisor.Model)
		pipeline := advisor.NewPipeline(client, store, cfg.Advisor.Temperature, cfg.Advisor.MaxTokens)
		scheduler := advisor.NewScheduler(pipeline,
			time.Duration(cfg.Advisor.IntervalMinutes)*time.Minute,
			time.Duration(cfg.Advisor.TimeoutSeconds)*time.Second,
		)
		go scheduler.Run(ctx)
	} else {
		log.Println("advisor disabled (no API key configured)")
	}

	return srv.Run(ctx)
}
