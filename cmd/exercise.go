package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/model"
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Manage the exercise catalog",
	Long: `The catalog holds the exercise names you train. Names are unique ignoring
case; logging an exercise adds it automatically, and series and analysis
commands use the catalog spelling when you type a name in another case.`,
}

var exerciseAddCategory string

var exerciseAddCmd = &cobra.Command{
	Use:   "add <NAME>",
	Short: "Add an exercise to the catalog",
	Example: `  liftlog exercise add "Romanian Deadlift" --category hinge
  liftlog exercise add Dips`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		ex, err := deps.Store.PutExercise(deps.Config.User, model.Exercise{
			Name:     args[0],
			Category: exerciseAddCategory,
		})
		if err != nil {
			return err
		}
		say(cmd, "✓ Added %s  (%s)", ex.Name, ex.ID)
		return nil
	},
}

var exerciseListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the exercise catalog",
	Example: `  liftlog exercise list --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		list, err := deps.Store.ListExercises(deps.Config.User)
		if err != nil {
			return err
		}
		if len(list) == 0 && resolveFormat(deps.Config.Format) == "table" {
			say(cmd, "No exercises yet.\n  Use: liftlog exercise add <name>  or  liftlog log add \"<name> <weight>x<reps>\"")
			return nil
		}
		return emit(cmd, deps, newResult(deps, model.KindExercises, "exercise list", list, len(list)), started)
	},
}

var exerciseDeleteCmd = &cobra.Command{
	Use:   "delete <NAME>",
	Short:             "Remove an exercise from the catalog (logged entries are kept)",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeExercises,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		if err := deps.Store.DeleteExercise(deps.Config.User, args[0]); err != nil {
			return err
		}
		say(cmd, "✓ Deleted %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exerciseCmd)
	exerciseCmd.AddCommand(exerciseAddCmd)
	exerciseCmd.AddCommand(exerciseListCmd)
	exerciseCmd.AddCommand(exerciseDeleteCmd)

	exerciseAddCmd.Flags().StringVar(&exerciseAddCategory, "category", "", "free-form grouping such as squat, hinge or press")
}
