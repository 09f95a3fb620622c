package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/pipeline"
)

// ─── export ───────────────────────────────────────────────────────────────────

var (
	exportFrom string
	exportTo   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write log rows as JSONL (one row per line, weights in lbs)",
	Long: `Writes every row for the user, or those within --from/--to, as JSONL.
Weights are always pounds so that export and import round-trip exactly
regardless of --unit.`,
	Example: `  liftlog export > backup.jsonl
  liftlog export --from 2024-01-01 --out q1.jsonl
  liftlog export --user alex | liftlog import --user sam`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		var from, to calendar.Date
		if exportFrom != "" {
			if from, err = calendar.Parse(exportFrom); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
		}
		if exportTo != "" {
			if to, err = calendar.Parse(exportTo); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
		}
		rows, err := deps.Store.Logs(cmd.Context(), deps.Config.User, from, to)
		if err != nil {
			return err
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := pipeline.WriteRows(w, rows); err != nil {
			closeFn()
			return err
		}
		if err := closeFn(); err != nil {
			return err
		}
		if globalFlags.Out != "" {
			say(cmd, "✓ Exported %d rows to %s", len(rows), globalFlags.Out)
		}
		return nil
	},
}

// ─── import ───────────────────────────────────────────────────────────────────

var importCmd = &cobra.Command{
	Use:   "import [FILE]",
	Short: "Upsert log rows from JSONL (file or stdin, weights in lbs)",
	Long: `Reads JSONL rows as written by export and upserts each by date. Invalid
rows are skipped and listed; the valid ones are still written in a single
transaction.`,
	Example: `  liftlog import backup.jsonl
  cat rows.jsonl | liftlog import`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			in = f
		}
		rows, err := pipeline.ReadRows(in)
		if err != nil {
			return err
		}

		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		n, err := deps.Store.ImportLogs(cmd.Context(), deps.Config.User, rows)
		skipped := multierr.Errors(err)
		for _, e := range skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠  %v\n", e)
		}
		if n == 0 && err != nil {
			return fmt.Errorf("nothing imported (%d problems)", len(skipped))
		}
		for _, r := range rows {
			for _, e := range r.Exercises {
				if ensureErr := ensureExercise(deps, e.Name); ensureErr != nil {
					return ensureErr
				}
			}
		}
		say(cmd, "✓ Imported %d of %d rows", n, len(rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last day (YYYY-MM-DD)")
}
