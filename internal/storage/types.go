package storage

import (
	"time"

	"github.com/runnerr0/ecodash/internal/emission"
)

// Bucket accumulates active minutes and the CO2 estimate derived from
// them for one key (a service, or a service within a day or week).
// Both fields are always incremented from the same session flush, so
// CO2Grams == Minutes * rate(service) up to floating-point error.
type Bucket struct {
	Minutes  float64 `json:"minutes"`
	CO2Grams float64 `json:"co2"`
}

// Breakdown maps service tags to their accumulated buckets.
type Breakdown map[emission.Service]Bucket

// Advisory is the most recent generated optimization text.
type Advisory struct {
	Tips      string    `json:"tips"`
	Analysis  string    `json:"analysis"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is a full read of the persisted state, shaped the way the
// popup UI consumes it.
type Snapshot struct {
	TotalCO2 float64              `json:"total_co2"`
	Services Breakdown            `json:"services"`
	Daily    map[string]Breakdown `json:"daily"`
	Weekly   map[string]Breakdown `json:"weekly"`
	Advisory Advisory             `json:"advisory"`
}
