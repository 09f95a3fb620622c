package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/liftlog/internal/analyze"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/units"
)

// column describes one grid column. key is the machine name used as the
// csv header; weight columns carry the display unit in their title.
type column struct {
	key    string
	unit   string
	number bool
}

// grid is the format-neutral form of a result.
type grid struct {
	caption string
	cols    []column
	rows    [][]string
}

func (g *grid) titles() []string {
	out := make([]string, len(g.cols))
	for i, c := range g.cols {
		t := strings.ToUpper(strings.ReplaceAll(c.key, "_", " "))
		if c.unit != "" {
			t += " (" + strings.ToUpper(c.unit) + ")"
		}
		out[i] = t
	}
	return out
}

func (g *grid) keys() []string {
	out := make([]string, len(g.cols))
	for i, c := range g.cols {
		out[i] = c.key
		if c.unit != "" {
			out[i] += "_" + c.unit
		}
	}
	return out
}

func (g *grid) alignments() []int {
	out := make([]int, len(g.cols))
	for i, c := range g.cols {
		out[i] = tablewriter.ALIGN_LEFT
		if c.number {
			out[i] = tablewriter.ALIGN_RIGHT
		}
	}
	return out
}

// tabulate reduces result to a grid. It returns nil for payloads that have
// no tabular form, and an error when Data does not match Kind.
func tabulate(result *model.Result) (*grid, error) {
	unit := result.Unit
	if unit == "" {
		unit = string(units.Pounds)
	}
	switch d := result.Data.(type) {
	case []model.LogRow:
		return logRowsGrid(d, unit), nil
	case model.LogRow:
		return logRowsGrid([]model.LogRow{d}, unit), nil
	case series.Prepared:
		return seriesGrid(d, unit), nil
	case []model.Exercise:
		return exercisesGrid(d), nil
	case []model.Template:
		return templatesGrid(d, unit), nil
	case model.Template:
		return templateGrid(d, unit), nil
	case model.Goals:
		return goalsGrid(d, unit), nil
	case []analyze.Summary:
		return summaryGrid(d, unit), nil
	case []analyze.TrendResult:
		return trendGrid(d, unit), nil
	case model.InsightReport:
		return &grid{
			cols: []column{{key: "exercise"}, {key: "window"}, {key: "source"}, {key: "message"}},
			rows: [][]string{{d.Exercise, d.Window, d.Source, d.Message}},
		}, nil
	case model.Table:
		g := &grid{rows: d.Rows}
		for _, c := range d.Columns {
			g.cols = append(g.cols, column{key: c})
		}
		return g, nil
	}
	switch result.Kind {
	case model.KindLogRows, model.KindSeries, model.KindExercises, model.KindTemplates,
		model.KindGoals, model.KindSummary, model.KindTrend, model.KindInsight, model.KindTable:
		return nil, fmt.Errorf("unexpected data type %T for %s", result.Data, result.Kind)
	}
	return nil, nil
}

// ─── Per-kind grids ──────────────────────────────────────────────────────────

func logRowsGrid(rows []model.LogRow, unit string) *grid {
	g := &grid{cols: []column{
		{key: "date"},
		{key: "bodyweight", unit: unit, number: true},
		{key: "calories", number: true},
		{key: "protein", number: true},
		{key: "exercises"},
	}}
	for _, r := range rows {
		g.rows = append(g.rows, []string{
			r.Date.Key(),
			formatValue(r.Bodyweight),
			formatInt(r.Calories),
			formatInt(r.Protein),
			formatEntries(r.Exercises),
		})
	}
	return g
}

func seriesGrid(p series.Prepared, unit string) *grid {
	g := &grid{
		caption: seriesCaption(p),
		cols: []column{
			{key: "date"},
			{key: "bodyweight", unit: unit, number: true},
			{key: "calories", number: true},
			{key: "protein", number: true},
		},
	}
	withLift := p.Exercise != ""
	if withLift {
		g.cols = append(g.cols,
			column{key: "weight", unit: unit, number: true},
			column{key: "reps", number: true},
			column{key: "e1rm", unit: unit, number: true},
		)
	}
	for _, pt := range p.Points {
		row := []string{
			pt.Date.Key(),
			formatValue(pt.Bodyweight),
			formatInt(pt.Calories),
			formatInt(pt.Protein),
		}
		if withLift {
			row = append(row, formatValue(pt.ExerciseWeight), formatInt(pt.ExerciseReps), formatValue(pt.EstimatedOneRepMax))
		}
		g.rows = append(g.rows, row)
	}
	return g
}

func seriesCaption(p series.Prepared) string {
	parts := []string{string(p.Window), p.Start.Key() + ".." + p.Today.Key()}
	if p.Exercise != "" {
		parts = append([]string{p.Exercise}, parts...)
	}
	if p.Domain.Empty {
		parts = append(parts, fmt.Sprintf("no %s data", p.Field))
	} else {
		v := func(f float64) string { return formatValue(&f) }
		parts = append(parts, fmt.Sprintf("%s %s..%s (%d ticks)", p.Field, v(p.Domain.Min), v(p.Domain.Max), p.Domain.TickCount))
	}
	return strings.Join(parts, " · ")
}

func exercisesGrid(list []model.Exercise) *grid {
	g := &grid{cols: []column{{key: "name"}, {key: "category"}, {key: "created"}, {key: "id"}}}
	for _, e := range list {
		created := ""
		if !e.CreatedAt.IsZero() {
			created = e.CreatedAt.Format("2006-01-02")
		}
		g.rows = append(g.rows, []string{e.Name, e.Category, created, e.ID})
	}
	return g
}

func templatesGrid(list []model.Template, unit string) *grid {
	g := &grid{cols: []column{{key: "name"}, {key: "exercises", number: true}, {key: "plan", unit: unit}, {key: "id"}}}
	for _, t := range list {
		plan := make([]string, len(t.Exercises))
		for i, e := range t.Exercises {
			plan[i] = fmt.Sprintf("%s %dx%d", e.Name, e.Sets, e.Reps)
			if e.Weight != nil {
				plan[i] += " @" + formatValue(e.Weight)
			}
		}
		g.rows = append(g.rows, []string{t.Name, strconv.Itoa(len(t.Exercises)), strings.Join(plan, "; "), t.ID})
	}
	return g
}

func templateGrid(t model.Template, unit string) *grid {
	g := &grid{
		caption: t.Name,
		cols: []column{
			{key: "exercise"},
			{key: "sets", number: true},
			{key: "reps", number: true},
			{key: "weight", unit: unit, number: true},
		},
	}
	for _, e := range t.Exercises {
		g.rows = append(g.rows, []string{e.Name, strconv.Itoa(e.Sets), strconv.Itoa(e.Reps), formatValue(e.Weight)})
	}
	return g
}

func goalsGrid(gl model.Goals, unit string) *grid {
	g := &grid{cols: []column{{key: "goal"}, {key: "value", number: true}}}
	g.rows = [][]string{
		{"target_bodyweight_" + unit, formatValue(gl.TargetBodyweight)},
		{"daily_calories", formatInt(gl.DailyCalories)},
		{"daily_protein", formatInt(gl.DailyProtein)},
	}
	if !gl.UpdatedAt.IsZero() {
		g.rows = append(g.rows, []string{"updated_at", gl.UpdatedAt.Format("2006-01-02 15:04")})
	}
	return g
}

func summaryGrid(list []analyze.Summary, unit string) *grid {
	g := &grid{cols: []column{
		{key: "field"},
		{key: "days", number: true},
		{key: "logged", number: true},
		{key: "missing_pct", number: true},
		{key: "mean", number: true},
		{key: "std", number: true},
		{key: "min", number: true},
		{key: "median", number: true},
		{key: "max", number: true},
		{key: "first", number: true},
		{key: "last", number: true},
		{key: "change", number: true},
		{key: "change_pct", number: true},
	}}
	for _, s := range list {
		label := s.Label
		if labelIsWeight(label) {
			label += " (" + unit + ")"
		}
		missing := s.MissingPct
		g.rows = append(g.rows, []string{
			label,
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Logged),
			formatValue(&missing),
			formatValue(s.Mean),
			formatValue(s.Std),
			formatValue(s.Min),
			formatValue(s.Median),
			formatValue(s.Max),
			formatValue(s.First),
			formatValue(s.Last),
			formatValue(s.Change),
			formatValue(s.ChangePct),
		})
	}
	return g
}

func trendGrid(list []analyze.TrendResult, unit string) *grid {
	g := &grid{cols: []column{
		{key: "field"},
		{key: "method"},
		{key: "points", number: true},
		{key: "slope_per_day", number: true},
		{key: "slope_per_week", number: true},
		{key: "r2", number: true},
		{key: "direction"},
	}}
	for _, tr := range list {
		label := tr.Label
		if labelIsWeight(label) {
			label += " (" + unit + ")"
		}
		slope, week, r2 := tr.Slope, tr.SlopePerWeek, tr.R2
		g.rows = append(g.rows, []string{
			label,
			string(tr.Method),
			strconv.Itoa(tr.Points),
			strconv.FormatFloat(slope, 'f', 4, 64),
			formatValue(&week),
			formatValue(&r2),
			tr.Direction,
		})
	}
	return g
}

// formatEntries renders a day's exercises as "Squat 225x5, Plank".
func formatEntries(entries []model.ExerciseEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		s := e.Name
		switch {
		case e.Weight != nil && e.Reps != nil:
			s += fmt.Sprintf(" %sx%d", formatValue(e.Weight), *e.Reps)
		case e.Weight != nil:
			s += " " + formatValue(e.Weight)
		case e.Reps != nil:
			s += fmt.Sprintf(" x%d", *e.Reps)
		}
		if e.Notes != nil && *e.Notes != "" {
			s += " (" + *e.Notes + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
