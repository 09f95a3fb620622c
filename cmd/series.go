package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/app"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/pipeline"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/units"
)

var (
	seriesSel    seriesFlags
	seriesPoints bool
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Build a gap-filled, chart-ready series",
	Long: `Selects the rows inside a window ending today, fills every missing day
with an empty point, projects one exercise (with its estimated one-rep max)
and computes the Y domain and X tick dates for --field.

The table caption shows the window, date range and domain. JSON output is
the full prepared series; --points writes one JSONL point per day for
piping into other tools.`,
	Example: `  liftlog series
  liftlog series --window 90d --exercise "Bench Press" --field e1rm
  liftlog series --window 7d --format json
  liftlog series --exercise Squat --points | jq .estimated_one_rep_max`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		p, err := loadPrepared(cmd, deps, &seriesSel)
		if err != nil {
			return err
		}
		if seriesPoints {
			w, closeFn, err := outputWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeFn()
			return pipeline.WritePoints(w, units.PointsToDisplay(p.Points, deps.Config.Unit))
		}

		result := newResult(deps, model.KindSeries, "series", p, len(p.Points))
		if p.Domain.Empty {
			result.Warnings = append(result.Warnings, fmt.Sprintf("no %s values in the %s window", p.Field, p.Window))
		}
		return emit(cmd, deps, result, started)
	},
}

// loadPrepared resolves sel into a request and prepares it from the store.
// The result stays in pounds.
func loadPrepared(cmd *cobra.Command, deps *app.Deps, sel *seriesFlags) (series.Prepared, error) {
	req, err := sel.request(deps)
	if err != nil {
		return series.Prepared{}, err
	}
	p, _, err := app.LoadSeries(cmd.Context(), deps.Store, deps.Memo, deps.Config.User, req)
	return p, err
}

func init() {
	rootCmd.AddCommand(seriesCmd)
	seriesSel.bind(seriesCmd, string(model.FieldBodyweight))
	seriesCmd.Flags().BoolVar(&seriesPoints, "points", false, "write the filled points as JSONL instead of rendering")
}
