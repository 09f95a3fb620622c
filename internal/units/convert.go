package units

import "github.com/derickschaefer/liftlog/internal/model"

// ─── Record conversion ────────────────────────────────────────────────────────
//
// Every weight-bearing record has a pair of helpers: ...ToDisplay for output
// and ...ToCanonical for input. Non-weight values pass through untouched and
// the inputs are never mutated.

// RowToDisplay converts the weights in r from pounds into unit.
func RowToDisplay(r model.LogRow, unit Unit) model.LogRow {
	return convertRow(r, unit, ToDisplayPtr)
}

// RowToCanonical converts the weights in r from unit into pounds.
func RowToCanonical(r model.LogRow, unit Unit) model.LogRow {
	return convertRow(r, unit, ToCanonicalPtr)
}

// RowsToDisplay is RowToDisplay over a slice.
func RowsToDisplay(rows []model.LogRow, unit Unit) []model.LogRow {
	out := make([]model.LogRow, len(rows))
	for i, r := range rows {
		out[i] = RowToDisplay(r, unit)
	}
	return out
}

func convertRow(r model.LogRow, unit Unit, conv func(*float64, Unit) *float64) model.LogRow {
	r.Bodyweight = conv(r.Bodyweight, unit)
	if r.Exercises != nil {
		ex := make([]model.ExerciseEntry, len(r.Exercises))
		for i, e := range r.Exercises {
			e.Weight = conv(e.Weight, unit)
			ex[i] = e
		}
		r.Exercises = ex
	}
	return r
}

// PointsToDisplay converts the weight fields of filled points into unit.
func PointsToDisplay(points []model.FilledPoint, unit Unit) []model.FilledPoint {
	out := make([]model.FilledPoint, len(points))
	for i, p := range points {
		p.Bodyweight = ToDisplayPtr(p.Bodyweight, unit)
		p.ExerciseWeight = ToDisplayPtr(p.ExerciseWeight, unit)
		p.EstimatedOneRepMax = ToDisplayPtr(p.EstimatedOneRepMax, unit)
		out[i] = p
	}
	return out
}

// GoalsToDisplay converts the target bodyweight into unit.
func GoalsToDisplay(g model.Goals, unit Unit) model.Goals {
	g.TargetBodyweight = ToDisplayPtr(g.TargetBodyweight, unit)
	return g
}

// GoalsToCanonical converts the target bodyweight from unit into pounds.
func GoalsToCanonical(g model.Goals, unit Unit) model.Goals {
	g.TargetBodyweight = ToCanonicalPtr(g.TargetBodyweight, unit)
	return g
}

// TemplateToDisplay converts planned weights into unit.
func TemplateToDisplay(t model.Template, unit Unit) model.Template {
	return convertTemplate(t, unit, ToDisplayPtr)
}

// TemplateToCanonical converts planned weights from unit into pounds.
func TemplateToCanonical(t model.Template, unit Unit) model.Template {
	return convertTemplate(t, unit, ToCanonicalPtr)
}

func convertTemplate(t model.Template, unit Unit, conv func(*float64, Unit) *float64) model.Template {
	if t.Exercises != nil {
		ex := make([]model.TemplateExercise, len(t.Exercises))
		for i, e := range t.Exercises {
			e.Weight = conv(e.Weight, unit)
			ex[i] = e
		}
		t.Exercises = ex
	}
	return t
}
