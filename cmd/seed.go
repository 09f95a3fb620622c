package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/pipeline"
	"github.com/derickschaefer/liftlog/internal/seed"
)

var seedFlags struct {
	days      int
	end       string
	exercises string
	seed      int64
	skipRate  float64
	dryRun    bool
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the log with synthetic history for demos",
	Long: `Generates plausible history ending today: a slow bodyweight walk, everyday
calorie and protein values, and one exercise every other day with steady
progressive overload. The same --seed always produces the same rows.

Existing rows on generated dates are replaced. Use --dry-run to print the
rows as JSONL instead of writing them, or --user demo to keep them apart.`,
	Example: `  liftlog seed --user demo
  liftlog seed --days 180 --exercises "Squat,Overhead Press" --seed 7
  liftlog seed --dry-run --days 14 | head`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		opts := seed.Options{
			Days:     seedFlags.days,
			Seed:     seedFlags.seed,
			SkipRate: seedFlags.skipRate,
		}
		if seedFlags.end != "" {
			if opts.End, err = calendar.Parse(seedFlags.end); err != nil {
				return fmt.Errorf("--end: %w", err)
			}
		} else if opts.End, err = deps.Today(); err != nil {
			return err
		}
		for _, name := range strings.Split(seedFlags.exercises, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Exercises = append(opts.Exercises, name)
			}
		}

		rows := seed.Generate(opts)
		if seedFlags.dryRun {
			w, closeFn, err := outputWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeFn()
			return pipeline.WriteRows(w, rows)
		}

		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()
		n, err := deps.Store.ImportLogs(cmd.Context(), deps.Config.User, rows)
		if err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
		names := opts.Exercises
		if len(names) == 0 {
			names = seed.DefaultExercises
		}
		for _, name := range names {
			if err := ensureExercise(deps, name); err != nil {
				return err
			}
		}
		say(cmd, "✓ Seeded %d rows for %s (%s)", n, deps.Config.User, strings.Join(names, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	f := seedCmd.Flags()
	f.IntVar(&seedFlags.days, "days", 90, "days of history ending at --end")
	f.StringVar(&seedFlags.end, "end", "", "last generated day (default today)")
	f.StringVar(&seedFlags.exercises, "exercises", strings.Join(seed.DefaultExercises, ","),
		"comma-separated exercises rotated one per training day")
	f.Int64Var(&seedFlags.seed, "seed", 0, "random seed (0 = random)")
	f.Float64Var(&seedFlags.skipRate, "skip-rate", 0.2, "chance a day has no row at all")
	f.BoolVar(&seedFlags.dryRun, "dry-run", false, "print JSONL instead of writing to the database")
}
