package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/ecodash/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version         string                `json:"version"`
	TotalCO2Grams   float64               `json:"total_co2_grams"`
	Services        map[string]bucketJSON `json:"services"`
	AdvisoryTips    string                `json:"advisory_tips"`
	AdvisoryUpdated string                `json:"advisory_updated,omitempty"`
}

type bucketJSON struct {
	Minutes  float64 `json:"minutes"`
	CO2Grams float64 `json:"co2_grams"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store)
}

// executeWithStore runs status against a provided store (for testing).
func (c *StatusCommand) executeWithStore(store storage.Store) error {
	ctx := context.Background()

	total, err := store.Totals(ctx)
	if err != nil {
		return fmt.Errorf("get totals: %w", err)
	}
	services, err := store.ServiceBreakdown(ctx)
	if err != nil {
		return fmt.Errorf("get service breakdown: %w", err)
	}
	advisory, err := store.GetAdvisory(ctx)
	if err != nil {
		return fmt.Errorf("get advisory: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(total, services, advisory)
	}
	return c.printHuman(total, services, advisory)
}

func (c *StatusCommand) printHuman(total float64, services storage.Breakdown, advisory *storage.Advisory) error {
	fmt.Println("EcoDash Status")
	fmt.Println("==============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Total CO2:     %s\n", formatGrams(total))

	if len(services) > 0 {
		fmt.Println()
		fmt.Println("Services:")
		for _, svc := range sortedServices(services) {
			b := services[svc]
			fmt.Printf("  %-12s %10s  %10s\n", svc, formatMinutes(b.Minutes), formatGrams(b.CO2Grams))
		}
	}

	fmt.Println()
	fmt.Println("Advisory:")
	fmt.Println(indent(advisory.Tips, "  "))
	if !advisory.UpdatedAt.IsZero() {
		fmt.Printf("  (updated %s)\n", advisory.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}

	return nil
}

func (c *StatusCommand) printJSON(total float64, services storage.Breakdown, advisory *storage.Advisory) error {
	out := statusJSON{
		Version:       c.version,
		TotalCO2Grams: total,
		Services:      make(map[string]bucketJSON, len(services)),
		AdvisoryTips:  advisory.Tips,
	}
	if !advisory.UpdatedAt.IsZero() {
		out.AdvisoryUpdated = advisory.UpdatedAt.UTC().Format(time.RFC3339)
	}
	for svc, b := range services {
		out.Services[string(svc)] = bucketJSON{Minutes: b.Minutes, CO2Grams: b.CO2Grams}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
