package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/chart"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/transform"
	"github.com/derickschaefer/liftlog/internal/units"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render a series as an ASCII chart",
	Long: `Chart commands prepare a series from the log and draw it in the terminal.

  liftlog chart plot --window 90d
  liftlog chart plot --exercise Squat --field e1rm
  liftlog chart bar --field calories --resample weekly`,
}

// ─── chart plot ──────────────────────────────────────────────────────────────

var (
	chartPlotSel    seriesFlags
	chartPlotWidth  int
	chartPlotHeight int
	chartPlotTitle  string
	chartPlotMA     int
)

var chartPlotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Multi-line ASCII chart with labeled axes",
	Long: `Renders --field over the window. The Y axis spans the prepared domain and
the X axis is labelled at the prepared tick dates. Days without a value
appear as gaps, not zeros. When nothing was logged a placeholder is shown.

--ma N draws an N-day trailing moving average instead of the raw values.
Width auto-detects from $COLUMNS (falls back to 80).`,
	Example: `  liftlog chart plot
  liftlog chart plot --window 365d --ma 7
  liftlog chart plot --exercise "Bench Press" --field e1rm --height 16
  liftlog chart plot --narrow --width 60`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		p, err := loadPrepared(cmd, deps, &chartPlotSel)
		if err != nil {
			return err
		}
		title := chartPlotTitle
		if chartPlotMA > 1 {
			avg, err := transform.MovingAverage(transform.FromPoints(p.Points, p.Field), chartPlotMA, 1)
			if err != nil {
				return err
			}
			p = withValues(p, avg)
			if title == "" {
				title = fmt.Sprintf("%s (%d-day average)", p.Field, chartPlotMA)
			}
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()
		return chart.Plot(w, p, p.Field, chart.PlotOptions{
			Width:  chartPlotWidth,
			Height: chartPlotHeight,
			Title:  title,
			Unit:   deps.Config.Unit,
		})
	},
}

// ─── chart bar ───────────────────────────────────────────────────────────────

var (
	chartBarSel      seriesFlags
	chartBarWidth    int
	chartBarMaxBars  int
	chartBarResample string
	chartBarMethod   string
)

var chartBarCmd = &cobra.Command{
	Use:   "bar",
	Short: "Horizontal bar chart, one bar per day or bucket",
	Long: `Renders one bar per logged day, or per week/month with --resample.
Days without a value are skipped. Best suited to calories and protein.`,
	Example: `  liftlog chart bar --field calories --window 7d
  liftlog chart bar --field protein --window 90d --resample weekly
  liftlog chart bar --field bodyweight --window 365d --resample monthly --method last`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		p, err := loadPrepared(cmd, deps, &chartBarSel)
		if err != nil {
			return err
		}
		vals := transform.FromPoints(p.Points, p.Field)
		title := string(p.Field)
		if chartBarResample != "" && chartBarResample != "daily" {
			vals, err = transform.Resample(vals, transform.ResampleFreq(chartBarResample), transform.ResampleMethod(chartBarMethod))
			if err != nil {
				return err
			}
			title = fmt.Sprintf("%s  %s %s", p.Field, chartBarResample, chartBarMethod)
		}
		if p.Field.IsWeight() {
			vals = valuesInUnit(vals, deps.Config.Unit)
			title += " (" + string(deps.Config.Unit) + ")"
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()
		return chart.Bar(w, title, vals, chart.BarOptions{
			Width:   chartBarWidth,
			MaxBars: chartBarMaxBars,
		})
	},
}

// withValues replaces p's field values with vals (aligned by index) and
// recomputes the domain over them.
func withValues(p series.Prepared, vals []transform.Value) series.Prepared {
	points := make([]model.FilledPoint, len(p.Points))
	for i, pt := range p.Points {
		points[i] = p.Field.With(pt, vals[i].Value)
	}
	p.Points = points
	p.Domain = series.ComputeDomain(points, p.Field)
	return p
}

// valuesInUnit converts pound values into unit.
func valuesInUnit(vals []transform.Value, unit units.Unit) []transform.Value {
	out := make([]transform.Value, len(vals))
	for i, v := range vals {
		out[i] = transform.Value{Date: v.Date, Value: units.ToDisplayPtr(v.Value, unit)}
	}
	return out
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.AddCommand(chartPlotCmd)
	chartCmd.AddCommand(chartBarCmd)

	chartPlotSel.bind(chartPlotCmd, string(model.FieldBodyweight))
	chartPlotCmd.Flags().IntVar(&chartPlotWidth, "width", 0,
		"chart width in characters (default: auto-detect from $COLUMNS, fallback 80)")
	chartPlotCmd.Flags().IntVar(&chartPlotHeight, "height", 12,
		"chart height in rows (default 12)")
	chartPlotCmd.Flags().StringVar(&chartPlotTitle, "title", "",
		"chart title (default: field name)")
	chartPlotCmd.Flags().IntVar(&chartPlotMA, "ma", 0,
		"plot an N-day trailing moving average")

	chartBarSel.bind(chartBarCmd, string(model.FieldCalories))
	chartBarCmd.Flags().IntVar(&chartBarWidth, "width", 0,
		"total chart width in characters (default: auto-detect from $COLUMNS, fallback 80)")
	chartBarCmd.Flags().IntVar(&chartBarMaxBars, "max-bars", 0,
		"maximum bars to render, keeping the last N (0 = no limit)")
	chartBarCmd.Flags().StringVar(&chartBarResample, "resample", "",
		"bucket values: weekly|monthly (default: one bar per day)")
	chartBarCmd.Flags().StringVar(&chartBarMethod, "method", "mean",
		"bucket aggregation: mean|last|sum|max")
}
