package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve  *ServeCommand
	Status *StatusCommand
	Report *ReportCommand
	Advise *AdviseCommand
	Reset  *ResetCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "ecodash"
	parser.LongDescription = "Local carbon-footprint tracking for streaming and social browsing, with periodic optimization tips."

	cmds := &commands{
		Serve:  &ServeCommand{globals: &globals, version: version},
		Status: &StatusCommand{globals: &globals, version: version},
		Report: &ReportCommand{globals: &globals, version: version},
		Advise: &AdviseCommand{globals: &globals, version: version},
		Reset:  &ResetCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Start the EcoDash daemon", "Start the EcoDash daemon the browser extension reports activity to.", cmds.Serve)
	parser.AddCommand("status", "Show accumulated footprint", "Show the running CO2 total, per-service usage, and advisory freshness.", cmds.Status)
	parser.AddCommand("report", "Show a daily or weekly breakdown", "Show the per-service breakdown for a specific day or week.", cmds.Report)
	parser.AddCommand("advise", "Generate optimization tips now", "Run the advisory pipeline once and print the resulting tips.", cmds.Advise)
	parser.AddCommand("reset", "Delete ALL accumulated data", "Delete ALL accumulated EcoDash data. Destructive operation with safety prompt.", cmds.Reset)

	return parser, &globals, cmds
}

// Run is the main entry point for the EcoDash CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("ecodash %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
