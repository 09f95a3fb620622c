package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/store"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Save and reuse workout templates",
	Long: `Templates are named workouts: a list of exercises with sets, reps and an
optional working weight. Apply one to log its exercises for a day.

  liftlog template save --name "Day A" "Squat 3x5@225" "Bench Press 3x5@185"
  liftlog template list
  liftlog template apply "Day A"`,
}

// ─── template save ────────────────────────────────────────────────────────────

var templateSaveName string

var templateSaveCmd = &cobra.Command{
	Use:   "save --name <NAME> \"<exercise> <sets>x<reps>[@weight]\" ...",
	Short: "Save a workout as a named template",
	Example: `  liftlog template save --name "Day A" "Squat 3x5@225" "Bench Press 3x5@185" "Chin Up 3x8"
  liftlog template save --name "Light" --unit kg "Squat 3x5@80"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		tpl := model.Template{Name: templateSaveName}
		for _, raw := range args {
			p, err := parsePlan(raw, deps.Config.Unit)
			if err != nil {
				return err
			}
			p.Name = canonicalExercise(deps, p.Name)
			tpl.Exercises = append(tpl.Exercises, p)
		}
		tpl, err = deps.Store.PutTemplate(deps.Config.User, tpl)
		if err != nil {
			return fmt.Errorf("saving template: %w", err)
		}
		say(cmd, "✓ Saved template %s  (%s)", tpl.ID, tpl.Name)
		return nil
	},
}

// ─── template list ────────────────────────────────────────────────────────────

var templateListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List saved templates",
	Example: `  liftlog template list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		tpls, err := deps.Store.ListTemplates(deps.Config.User)
		if err != nil {
			return fmt.Errorf("listing templates: %w", err)
		}
		if len(tpls) == 0 && resolveFormat(deps.Config.Format) == "table" {
			say(cmd, "No templates saved.\n  Use: liftlog template save --name <name> \"<exercise> <sets>x<reps>[@weight]\"")
			return nil
		}
		return emit(cmd, deps, newResult(deps, model.KindTemplates, "template list", tpls, len(tpls)), started)
	},
}

// ─── template show ────────────────────────────────────────────────────────────

var templateShowCmd = &cobra.Command{
	Use:     "show <ID|NAME>",
	Short:   "Show the exercises of a template",
	Example: `  liftlog template show "Day A"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		tpl, err := deps.Store.GetTemplate(deps.Config.User, args[0])
		if err != nil {
			return err
		}
		return emit(cmd, deps, newResult(deps, model.KindTemplates, "template show", tpl, len(tpl.Exercises)), started)
	},
}

// ─── template apply ───────────────────────────────────────────────────────────

var templateApplyDate string

var templateApplyCmd = &cobra.Command{
	Use:   "apply <ID|NAME>",
	Short: "Log a template's exercises for a day",
	Long: `Logs one entry per template exercise, using the template's weight and reps,
into the row for --date (default today). Existing entries for the same
exercises are replaced; everything else in the row is kept.`,
	Example: `  liftlog template apply "Day A"
  liftlog template apply "Day A" --date yesterday`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		tpl, err := deps.Store.GetTemplate(deps.Config.User, args[0])
		if err != nil {
			return err
		}
		date, err := parseDay(deps, templateApplyDate)
		if err != nil {
			return err
		}

		add := model.LogRow{Date: date}
		for _, e := range tpl.Exercises {
			entry := model.ExerciseEntry{Name: e.Name, Weight: e.Weight}
			if e.Reps > 0 {
				entry.Reps = model.Int(e.Reps)
			}
			add.Exercises = append(add.Exercises, entry)
		}

		row := add
		existing, err := deps.Store.GetLog(deps.Config.User, date)
		switch {
		case err == nil:
			row = mergeRow(existing, add)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		if err := deps.Store.UpsertLog(deps.Config.User, row); err != nil {
			return err
		}
		for _, e := range add.Exercises {
			if err := ensureExercise(deps, e.Name); err != nil {
				return err
			}
		}
		say(cmd, "✓ Applied %s to %s  (%d exercises)", tpl.Name, date, len(add.Exercises))
		return nil
	},
}

// ─── template delete ──────────────────────────────────────────────────────────

var templateDeleteCmd = &cobra.Command{
	Use:     "delete <ID|NAME>",
	Short:   "Delete a saved template",
	Example: `  liftlog template delete "Day A"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		tpl, err := deps.Store.GetTemplate(deps.Config.User, args[0])
		if err != nil {
			return err
		}
		if err := deps.Store.DeleteTemplate(deps.Config.User, tpl.ID); err != nil {
			return fmt.Errorf("deleting template: %w", err)
		}
		say(cmd, "✓ Deleted template %s  (%s)", tpl.ID, tpl.Name)
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateSaveCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateApplyCmd)
	templateCmd.AddCommand(templateDeleteCmd)

	templateSaveCmd.Flags().StringVar(&templateSaveName, "name", "", "template name (required)")
	templateSaveCmd.MarkFlagRequired("name")
	templateApplyCmd.Flags().StringVar(&templateApplyDate, "date", "", "day to log: YYYY-MM-DD|today|yesterday (default today)")
}
