package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/ecodash/internal/emission"
	"github.com/runnerr0/ecodash/internal/storage"
)

// reportJSON is the JSON output structure for the report command.
type reportJSON struct {
	Period   string                `json:"period"` // "day" or "week"
	Key      string                `json:"key"`
	Services map[string]bucketJSON `json:"services"`
	Kinds    map[string]bucketJSON `json:"kinds"`
}

// Execute implements the go-flags Commander interface for ReportCommand.
func (c *ReportCommand) Execute(args []string) error {
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

// executeWithStore runs report against a provided store (for testing).
func (c *ReportCommand) executeWithStore(store storage.Store) error {
	if c.Day != "" && c.Week != "" {
		return fmt.Errorf("--day and --week are mutually exclusive")
	}

	ctx := context.Background()

	var period, key string
	var breakdown storage.Breakdown
	var err error

	switch {
	case c.Week != "":
		at, parseErr := time.Parse("2006-01-02", c.Week)
		if parseErr != nil {
			return fmt.Errorf("invalid --week date %q (use YYYY-MM-DD)", c.Week)
		}
		period = "week"
		// Any date in the week resolves to its Monday key.
		key = storage.WeekKey(at)
		breakdown, err = store.WeeklyBreakdown(ctx, key)
	case c.Day != "":
		if _, parseErr := time.Parse("2006-01-02", c.Day); parseErr != nil {
			return fmt.Errorf("invalid --day date %q (use YYYY-MM-DD)", c.Day)
		}
		period = "day"
		key = c.Day
		breakdown, err = store.DailyBreakdown(ctx, key)
	default:
		period = "day"
		key = storage.DayKey(time.Now())
		breakdown, err = store.DailyBreakdown(ctx, key)
	}
	if err != nil {
		return fmt.Errorf("get %s breakdown: %w", period, err)
	}

	kinds := rollupByKind(breakdown)

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(period, key, breakdown, kinds)
	}
	return c.printHuman(period, key, breakdown, kinds)
}

// rollupByKind aggregates per-service buckets into usage categories.
func rollupByKind(b storage.Breakdown) map[emission.Kind]storage.Bucket {
	kinds := map[emission.Kind]storage.Bucket{}
	for svc, bucket := range b {
		k := emission.KindOf(svc)
		agg := kinds[k]
		agg.Minutes += bucket.Minutes
		agg.CO2Grams += bucket.CO2Grams
		kinds[k] = agg
	}
	return kinds
}

func (c *ReportCommand) printHuman(period, key string, services storage.Breakdown, kinds map[emission.Kind]storage.Bucket) error {
	fmt.Printf("EcoDash Report: %s %s\n", period, key)
	fmt.Println("=========================")

	if len(services) == 0 {
		fmt.Println("No activity recorded.")
		return nil
	}

	var total storage.Bucket
	fmt.Println("Services:")
	for _, svc := range sortedServices(services) {
		b := services[svc]
		fmt.Printf("  %-12s %10s  %10s\n", svc, formatMinutes(b.Minutes), formatGrams(b.CO2Grams))
		total.Minutes += b.Minutes
		total.CO2Grams += b.CO2Grams
	}

	fmt.Println()
	fmt.Println("Categories:")
	for _, kind := range []emission.Kind{
		emission.KindVideoStreaming,
		emission.KindMusicStreaming,
		emission.KindSocial,
		emission.KindVideoCall,
		emission.KindGeneral,
	} {
		b, ok := kinds[kind]
		if !ok {
			continue
		}
		fmt.Printf("  %-16s %10s  %10s\n", kind, formatMinutes(b.Minutes), formatGrams(b.CO2Grams))
	}

	fmt.Println()
	fmt.Printf("Total:         %s active, %s CO2\n", formatMinutes(total.Minutes), formatGrams(total.CO2Grams))
	return nil
}

func (c *ReportCommand) printJSON(period, key string, services storage.Breakdown, kinds map[emission.Kind]storage.Bucket) error {
	out := reportJSON{
		Period:   period,
		Key:      key,
		Services: make(map[string]bucketJSON, len(services)),
		Kinds:    make(map[string]bucketJSON, len(kinds)),
	}
	for svc, b := range services {
		out.Services[string(svc)] = bucketJSON{Minutes: b.Minutes, CO2Grams: b.CO2Grams}
	}
	for kind, b := range kinds {
		out.Kinds[string(kind)] = bucketJSON{Minutes: b.Minutes, CO2Grams: b.CO2Grams}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
