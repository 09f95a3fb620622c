package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/analyze"
	"github.com/derickschaefer/liftlog/internal/app"
	"github.com/derickschaefer/liftlog/internal/derive"
	"github.com/derickschaefer/liftlog/internal/insight"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/transform"
	"github.com/derickschaefer/liftlog/internal/units"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Statistics, trends, goal progress and insights over a window",
	Long: `Analyze commands prepare the window's gap-filled series and report on it.

  liftlog analyze summary --window 90d --exercise Squat
  liftlog analyze trend --window 180d --method theil-sen
  liftlog analyze goals
  liftlog analyze insight Squat "Bench Press"`,
}

// ─── analyze summary ─────────────────────────────────────────────────────────

var (
	analyzeSummarySel    seriesFlags
	analyzeSummaryFields string
)

var analyzeSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Descriptive statistics per field: count, mean, std, quartiles, change",
	Example: `  liftlog analyze summary
  liftlog analyze summary --window 90d --exercise Squat
  liftlog analyze summary --fields calories,protein --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		p, fields, err := analysisInput(cmd, deps, &analyzeSummarySel, analyzeSummaryFields)
		if err != nil {
			return err
		}
		sums := make([]analyze.Summary, 0, len(fields))
		for _, f := range fields {
			sums = append(sums, analyze.Summarize(string(f), transform.FromPoints(p.Points, f)))
		}
		return emit(cmd, deps, newResult(deps, model.KindSummary, "analyze summary", sums, len(sums)), started)
	},
}

// ─── analyze trend ────────────────────────────────────────────────────────────

var (
	analyzeTrendSel    seriesFlags
	analyzeTrendFields string
	analyzeTrendMethod string
)

var analyzeTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Fit a trend per field: slope per week, R², direction",
	Example: `  liftlog analyze trend --window 90d
  liftlog analyze trend --exercise Deadlift --fields e1rm --method theil-sen`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		p, fields, err := analysisInput(cmd, deps, &analyzeTrendSel, analyzeTrendFields)
		if err != nil {
			return err
		}
		method := analyze.TrendMethod(analyzeTrendMethod)
		if method != analyze.TrendLinear && method != analyze.TrendTheilSen {
			return fmt.Errorf("unknown --method %q (use linear|theil-sen)", analyzeTrendMethod)
		}

		var trends []analyze.TrendResult
		var warnings []string
		for _, f := range fields {
			tr, err := analyze.Trend(string(f), transform.FromPoints(p.Points, f), method)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", f, err))
				continue
			}
			trends = append(trends, tr)
		}
		result := newResult(deps, model.KindTrend, "analyze trend", trends, len(trends))
		result.Warnings = warnings
		return emit(cmd, deps, result, started)
	},
}

// ─── analyze goals ────────────────────────────────────────────────────────────

var (
	analyzeGoalsWindow    string
	analyzeGoalsTolerance float64
)

var analyzeGoalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Progress toward bodyweight and nutrition goals",
	Long: `Compares the latest bodyweight in the window with the target and reports
how many logged days hit the calorie and protein targets within
--tolerance percent.`,
	Example: `  liftlog analyze goals
  liftlog analyze goals --window 7d --tolerance 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		goals, err := deps.Store.GetGoals(deps.Config.User)
		if err != nil {
			return err
		}
		if goals.TargetBodyweight == nil && goals.DailyCalories == nil && goals.DailyProtein == nil {
			return fmt.Errorf("no goals set\n\n  Use: liftlog goal set --bodyweight <n> --calories <n> --protein <n>")
		}
		sel := seriesFlags{window: analyzeGoalsWindow}
		p, err := loadPrepared(cmd, deps, &sel)
		if err != nil {
			return err
		}
		table := goalTable(p, goals, deps.Config.Unit, analyzeGoalsTolerance)
		return emit(cmd, deps, newResult(deps, model.KindTable, "analyze goals", table, len(table.Rows)), started)
	},
}

// goalTable builds one row per goal that is set. Weights are in unit.
func goalTable(p series.Prepared, g model.Goals, unit units.Unit, tolPct float64) model.Table {
	t := model.Table{Columns: []string{"goal", "target", "current", "remaining", "status", "adherence"}}

	if g.TargetBodyweight != nil {
		s := analyze.Summarize(string(model.FieldBodyweight), transform.FromPoints(p.Points, model.FieldBodyweight))
		row := []string{"bodyweight (" + string(unit) + ")", fmtNum(units.ToDisplay(*g.TargetBodyweight, unit)), "-", "-", "no data", "-"}
		if pr := analyze.GoalProgress(s, g.TargetBodyweight); pr != nil {
			row[2] = fmtNum(units.ToDisplay(pr.Current, unit))
			row[3] = fmtNum(units.ToDisplay(pr.Remaining, unit))
			row[4] = "in progress"
			if pr.Reached {
				row[4] = "reached"
			}
		}
		t.Rows = append(t.Rows, row)
	}
	for _, goal := range []struct {
		field  model.Field
		target *int
	}{
		{model.FieldCalories, g.DailyCalories},
		{model.FieldProtein, g.DailyProtein},
	} {
		if goal.target == nil {
			continue
		}
		vals := transform.FromPoints(p.Points, goal.field)
		s := analyze.Summarize(string(goal.field), vals)
		target := float64(*goal.target)
		row := []string{string(goal.field), strconv.Itoa(*goal.target), "-", "-", "no data", "-"}
		if s.Mean != nil {
			row[2] = fmtNum(*s.Mean) + " avg"
			row[3] = fmtNum(target - *s.Mean)
			row[4] = fmt.Sprintf("%d days logged", s.Logged)
		}
		if pct, ok := analyze.Adherence(vals, target, tolPct); ok {
			row[5] = fmt.Sprintf("%.0f%%", pct)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(units.Round1(v), 'f', -1, 64)
}

// ─── analyze insight ──────────────────────────────────────────────────────────

var (
	analyzeInsightWindow      string
	analyzeInsightLocal       bool
	analyzeInsightConcurrency int
)

var analyzeInsightCmd = &cobra.Command{
	Use:   "insight <EXERCISE> [EXERCISE...]",
	Short: "Natural-language analysis of an exercise over a window",
	Long: `Sends the window's rows for each exercise to the analysis backend and prints
its answer. The request carries date, bodyweight, calories, protein and,
on days the exercise was logged, weight, reps and estimated one-rep max.

Without a configured backend (insight_url / LIFTLOG_INSIGHT_URL), with
--local, or when the backend fails, a summary is built from local
statistics instead and a warning says so.`,
	Example: `  liftlog analyze insight Squat
  liftlog analyze insight Squat "Bench Press" Deadlift --window 90d
  liftlog analyze insight Squat --local --format md`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeExercises,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		var global []string
		useBackend := !analyzeInsightLocal
		if useBackend {
			if err := deps.Config.ValidateInsight(); err != nil {
				useBackend = false
				global = append(global, "analysis backend not configured; showing local summary")
			}
		}

		reqs := make([]series.Request, len(args))
		for i, name := range args {
			sel := seriesFlags{window: analyzeInsightWindow, exercise: name, field: string(model.FieldOneRepMax)}
			if reqs[i], err = sel.request(deps); err != nil {
				return err
			}
		}

		reports, err := batchInsights(cmd.Context(), deps, reqs, useBackend, analyzeInsightConcurrency)
		if err != nil {
			return err
		}
		for i, rep := range reports {
			result := newResult(deps, model.KindInsight, "analyze insight", rep.InsightReport, 1)
			result.Warnings = append(append([]string{}, global...), rep.warnings...)
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if err := emit(cmd, deps, result, started); err != nil {
				return err
			}
		}
		return nil
	},
}

type insightOutcome struct {
	model.InsightReport
	warnings []string
}

// batchInsights prepares and analyzes each request concurrently, at most
// concurrency at a time. Backend failures fall back to the local summary
// and become warnings; store failures abort.
func batchInsights(ctx context.Context, deps *app.Deps, reqs []series.Request, useBackend bool, concurrency int) ([]insightOutcome, error) {
	if concurrency <= 0 {
		concurrency = 2
	}
	sem := make(chan struct{}, concurrency)
	results := make([]insightOutcome, len(reqs))
	errs := make([]error, len(reqs))
	var wg sync.WaitGroup

	for i, req := range reqs {
		i, req := i, req
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			p, _, err := app.LoadSeries(ctx, deps.Store, deps.Memo, deps.Config.User, req)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", req.Exercise, err)
				return
			}
			out := insightOutcome{InsightReport: model.InsightReport{
				Exercise: req.Exercise,
				Window:   string(req.Window),
				Source:   "local",
			}}
			if useBackend {
				in, err := deps.Insight.Analyze(ctx, derive.BuildAnalysisPayload(req.Exercise, p.Rows))
				if err == nil {
					out.Source = "backend"
					out.Message = in.Message
					results[i] = out
					return
				}
				out.warnings = append(out.warnings, fmt.Sprintf("%s: analysis backend failed (%v); showing local summary", req.Exercise, err))
			}
			out.Message = insight.Local(p, deps.Config.Unit).Message
			results[i] = out
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.AddCommand(analyzeSummaryCmd)
	analyzeCmd.AddCommand(analyzeTrendCmd)
	analyzeCmd.AddCommand(analyzeGoalsCmd)
	analyzeCmd.AddCommand(analyzeInsightCmd)

	analyzeSummarySel.bind(analyzeSummaryCmd, "")
	analyzeSummaryCmd.Flags().StringVar(&analyzeSummaryFields, "fields", "",
		"comma-separated fields (default: bodyweight,calories,protein plus weight,e1rm with --exercise)")

	analyzeTrendSel.bind(analyzeTrendCmd, "")
	analyzeTrendCmd.Flags().StringVar(&analyzeTrendFields, "fields", "",
		"comma-separated fields (default: bodyweight,calories,protein plus weight,e1rm with --exercise)")
	analyzeTrendCmd.Flags().StringVar(&analyzeTrendMethod, "method", string(analyze.TrendLinear),
		"regression method: linear|theil-sen")

	analyzeGoalsCmd.Flags().StringVar(&analyzeGoalsWindow, "window", "", "time window (default: config default_window)")
	analyzeGoalsCmd.Flags().Float64Var(&analyzeGoalsTolerance, "tolerance", 10,
		"percent within target that counts as hitting it")

	analyzeInsightCmd.Flags().StringVar(&analyzeInsightWindow, "window", "", "time window (default: config default_window)")
	analyzeInsightCmd.Flags().BoolVar(&analyzeInsightLocal, "local", false, "skip the backend and summarize locally")
	analyzeInsightCmd.Flags().IntVar(&analyzeInsightConcurrency, "concurrency", 2,
		"max exercises analyzed in parallel")
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// analysisInput prepares the window and resolves the field list: the
// explicit --fields, or the daily fields plus the exercise fields when an
// exercise is selected.
func analysisInput(cmd *cobra.Command, deps *app.Deps, sel *seriesFlags, fieldList string) (series.Prepared, []model.Field, error) {
	p, err := loadPrepared(cmd, deps, sel)
	if err != nil {
		return p, nil, err
	}
	if fieldList != "" {
		var fields []model.Field
		for _, s := range strings.Split(fieldList, ",") {
			f, err := model.ParseField(s)
			if err != nil {
				return p, nil, err
			}
			fields = append(fields, f)
		}
		return p, fields, nil
	}
	fields := []model.Field{model.FieldBodyweight, model.FieldCalories, model.FieldProtein}
	if p.Exercise != "" {
		fields = append(fields, model.FieldWeight, model.FieldOneRepMax)
	}
	return p, fields, nil
}
