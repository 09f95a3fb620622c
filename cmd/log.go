package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/store"
	"github.com/derickschaefer/liftlog/internal/units"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record and read daily log rows",
	Long: `Each day has at most one row: bodyweight, calories, protein and any number
of exercise entries (one per exercise). Weights are read and shown in the
configured unit and stored in pounds.`,
}

// ─── log add ──────────────────────────────────────────────────────────────────

var logAdd struct {
	date       string
	bodyweight float64
	calories   int
	protein    int
	replace    bool
}

var logAddCmd = &cobra.Command{
	Use:   "add [\"<exercise> <weight>x<reps>[; note]\" ...]",
	Short: "Add or update the row for a day",
	Long: `Adds values to the row for --date (default today). Fields you pass
replace the stored ones; exercise entries replace entries of the same name.
Use --replace to overwrite the whole row instead.

Exercise entries are "<name> <weight>x<reps>", "<name> x<reps>" for
bodyweight movements, or "<name> <weight>". Text after ";" is kept as a note.`,
	Example: `  liftlog log add --bodyweight 181.5 --calories 2450 --protein 190
  liftlog log add "Squat 225x5" "Bench Press 185x5; paused reps"
  liftlog log add --date 2024-03-01 --unit kg "Deadlift 180x3"
  liftlog log add --date yesterday "Pull Up x12"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		date, err := parseDay(deps, logAdd.date)
		if err != nil {
			return err
		}
		unit := deps.Config.Unit
		row := model.LogRow{Date: date}
		flags := cmd.Flags()
		if flags.Changed("bodyweight") {
			row.Bodyweight = model.Float(units.ToCanonical(logAdd.bodyweight, unit))
		}
		if flags.Changed("calories") {
			row.Calories = model.Int(logAdd.calories)
		}
		if flags.Changed("protein") {
			row.Protein = model.Int(logAdd.protein)
		}
		for _, raw := range args {
			e, err := parseEntry(raw, unit)
			if err != nil {
				return err
			}
			e.Name = canonicalExercise(deps, e.Name)
			row.Exercises = append(row.Exercises, e)
		}
		if row.IsEmpty() {
			return fmt.Errorf("nothing to log: pass --bodyweight, --calories, --protein or an exercise entry")
		}

		user := deps.Config.User
		if !logAdd.replace {
			existing, err := deps.Store.GetLog(user, date)
			switch {
			case err == nil:
				row = mergeRow(existing, row)
			case !errors.Is(err, store.ErrNotFound):
				return err
			}
		}
		if err := deps.Store.UpsertLog(user, row); err != nil {
			return err
		}
		for _, e := range row.Exercises {
			if err := ensureExercise(deps, e.Name); err != nil {
				return err
			}
		}
		say(cmd, "✓ Logged %s  (%d exercise entries)", date, len(row.Exercises))
		return nil
	},
}

// ─── log get ──────────────────────────────────────────────────────────────────

var logGetCmd = &cobra.Command{
	Use:     "get [DATE]",
	Short:   "Show the row for a day (default today)",
	Example: `  liftlog log get
  liftlog log get 2024-03-01 --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		var arg string
		if len(args) == 1 {
			arg = args[0]
		}
		date, err := parseDay(deps, arg)
		if err != nil {
			return err
		}
		row, err := deps.Store.GetLog(deps.Config.User, date)
		if err != nil {
			return err
		}
		return emit(cmd, deps, newResult(deps, model.KindLogRows, "log get "+date.Key(), row, 1), started)
	},
}

// ─── log list ─────────────────────────────────────────────────────────────────

var logList struct {
	from string
	to   string
	last int
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rows in a date range (default the last 30 days)",
	Example: `  liftlog log list
  liftlog log list --last 7
  liftlog log list --from 2024-01-01 --to 2024-03-31 --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		today, err := deps.Today()
		if err != nil {
			return err
		}
		var from, to calendar.Date
		if logList.from == "" && logList.to == "" {
			last := logList.last
			if last <= 0 {
				last = 30
			}
			from, to = today.AddDays(-(last - 1)), today
		}
		if logList.from != "" {
			if from, err = calendar.Parse(logList.from); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
		}
		if logList.to != "" {
			if to, err = calendar.Parse(logList.to); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
		}
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			return fmt.Errorf("--to %s is before --from %s", to, from)
		}

		rows, err := deps.Store.Logs(cmd.Context(), deps.Config.User, from, to)
		if err != nil {
			return err
		}
		result := newResult(deps, model.KindLogRows, "log list", rows, len(rows))
		if len(rows) == 0 {
			result.Warnings = append(result.Warnings, "no rows in range")
		}
		return emit(cmd, deps, result, started)
	},
}

// ─── log delete ───────────────────────────────────────────────────────────────

var logDeleteCmd = &cobra.Command{
	Use:     "delete <DATE>",
	Short:   "Delete the row for a day",
	Example: `  liftlog log delete 2024-03-01`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		date, err := parseDay(deps, args[0])
		if err != nil {
			return err
		}
		if err := deps.Store.DeleteLog(deps.Config.User, date); err != nil {
			return err
		}
		say(cmd, "✓ Deleted %s", date)
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logAddCmd)
	logCmd.AddCommand(logGetCmd)
	logCmd.AddCommand(logListCmd)
	logCmd.AddCommand(logDeleteCmd)

	f := logAddCmd.Flags()
	f.StringVar(&logAdd.date, "date", "", "day to log: YYYY-MM-DD|today|yesterday (default today)")
	f.Float64Var(&logAdd.bodyweight, "bodyweight", 0, "bodyweight in the display unit")
	f.IntVar(&logAdd.calories, "calories", 0, "calories eaten")
	f.IntVar(&logAdd.protein, "protein", 0, "protein eaten, in grams")
	f.BoolVar(&logAdd.replace, "replace", false, "overwrite the whole row instead of merging")

	logListCmd.Flags().StringVar(&logList.from, "from", "", "first day (YYYY-MM-DD)")
	logListCmd.Flags().StringVar(&logList.to, "to", "", "last day (YYYY-MM-DD)")
	logListCmd.Flags().IntVar(&logList.last, "last", 30, "number of days ending today, when --from/--to are unset")
}
