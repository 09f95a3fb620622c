// Package cmd implements the liftlog CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/app"
	"github.com/derickschaefer/liftlog/internal/config"
	"github.com/derickschaefer/liftlog/internal/render"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	User       string
	Unit       string
	Format     string
	Out        string
	DBPath     string
	InsightKey string
	Timeout    string
	Rate       float64
	Quiet      bool
	Verbose    bool
	Debug      bool
}

// rootCmd is the base command. Running `liftlog` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "liftlog",
	Short: "liftlog: a local training, bodyweight and nutrition log",
	Long: `liftlog records one row per day (bodyweight, calories, protein and the
exercises you trained) in a local database and turns it into gap-filled,
chart-ready series with estimated one-rep maxes.

Weights are stored in pounds and shown in the unit you choose (--unit kg).

Quick start:
  liftlog config init                        # create a config.json
  liftlog log add --bodyweight 181.5 "Squat 225x5"
  liftlog series --exercise Squat --field e1rm
  liftlog chart plot --window 90d
  liftlog analyze insight Squat --local`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: configureLogging,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// configureLogging routes slog to stderr. Only warnings surface unless
// --debug is set.
func configureLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if globalFlags.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(config.Overrides{
		User:       globalFlags.User,
		Unit:       globalFlags.Unit,
		DBPath:     globalFlags.DBPath,
		InsightKey: globalFlags.InsightKey,
	})
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if !render.ValidFormat(cfg.Format) {
		return nil, fmt.Errorf("unknown format %q (valid: %v)", cfg.Format, render.Formats)
	}
	if globalFlags.Timeout != "" {
		d, err := time.ParseDuration(globalFlags.Timeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid --timeout %q: expected a positive duration such as 30s", globalFlags.Timeout)
		}
		cfg.Timeout = d
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return app.New(cfg), nil
}

// openDeps is buildDeps plus an open store. Callers defer deps.Close().
func openDeps() (*app.Deps, error) {
	deps, err := buildDeps()
	if err != nil {
		return nil, err
	}
	if err := deps.RequireStore(); err != nil {
		return nil, err
	}
	return deps, nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.User, "user", "",
		"profile whose log to use (overrides env LIFTLOG_USER and config.json)")
	pf.StringVar(&globalFlags.Unit, "unit", "",
		"display unit for weights: lbs|kg (default: lbs)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md|html (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.DBPath, "db", "",
		"database path (default: ~/.liftlog/liftlog.db)")
	pf.StringVar(&globalFlags.InsightKey, "insight-key", "",
		"analysis backend API key (overrides env LIFTLOG_INSIGHT_KEY)")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"analysis backend request timeout (e.g. 30s, 2m)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max analysis requests per second (default: 2.0)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log analysis requests and responses (API key redacted)")
}
