package cli

import "database/sql"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand — start the daemon the browser extension reports to.
type ServeCommand struct {
	Port int `long:"port" description:"Override daemon port"`

	globals *GlobalFlags
	version string
}

// StatusCommand — show the running total, per-service usage, and
// advisory freshness.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// ReportCommand — show the per-service breakdown for a day or week.
type ReportCommand struct {
	Day  string `long:"day" description:"Day to report (YYYY-MM-DD, default today)"`
	Week string `long:"week" description:"Week to report (date of any day in the week)"`

	globals *GlobalFlags
	version string
}

// AdviseCommand — run the advisory pipeline once and print the tips.
type AdviseCommand struct {
	globals *GlobalFlags
	version string
}

// ResetCommand — delete all accumulated data with safety confirmation.
type ResetCommand struct {
	All   bool `long:"all" description:"Required flag to confirm reset intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	db      *sql.DB // injectable for testing; nil means open default DB
}
