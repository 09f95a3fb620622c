package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/units"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Read and set bodyweight and nutrition targets",
}

var goalGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		g, err := deps.Store.GetGoals(deps.Config.User)
		if err != nil {
			return err
		}
		return emit(cmd, deps, newResult(deps, model.KindGoals, "goal get", g, 1), started)
	},
}

var goalSet struct {
	bodyweight float64
	calories   int
	protein    int
	clear      bool
}

var goalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set one or more goals, keeping the others",
	Example: `  liftlog goal set --bodyweight 175 --protein 180
  liftlog goal set --unit kg --bodyweight 80
  liftlog goal set --clear --calories 2400`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("bodyweight") && !flags.Changed("calories") && !flags.Changed("protein") && !goalSet.clear {
			return fmt.Errorf("pass at least one of --bodyweight, --calories, --protein or --clear")
		}
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		var g model.Goals
		if !goalSet.clear {
			if g, err = deps.Store.GetGoals(deps.Config.User); err != nil {
				return err
			}
		}
		if flags.Changed("bodyweight") {
			g.TargetBodyweight = model.Float(units.ToCanonical(goalSet.bodyweight, deps.Config.Unit))
		}
		if flags.Changed("calories") {
			g.DailyCalories = model.Int(goalSet.calories)
		}
		if flags.Changed("protein") {
			g.DailyProtein = model.Int(goalSet.protein)
		}
		if _, err := deps.Store.SetGoals(deps.Config.User, g); err != nil {
			return err
		}
		say(cmd, "✓ Goals updated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalGetCmd)
	goalCmd.AddCommand(goalSetCmd)

	f := goalSetCmd.Flags()
	f.Float64Var(&goalSet.bodyweight, "bodyweight", 0, "target bodyweight in the display unit")
	f.IntVar(&goalSet.calories, "calories", 0, "daily calorie target")
	f.IntVar(&goalSet.protein, "protein", 0, "daily protein target in grams")
	f.BoolVar(&goalSet.clear, "clear", false, "drop goals that are not passed")
}
