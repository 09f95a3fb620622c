// Package derive projects raw log rows into per-exercise values, estimates
// one-rep maxes, and shapes the request payload for the analysis backend.
// All functions are pure and tolerant: absent or malformed values become
// nil outputs, never errors.
package derive

import (
	"sort"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/units"
)

// Brzycki coefficients.
const (
	brzyckiA = 1.0278
	brzyckiB = 0.0278

	// MaxFormulaReps caps the rep count fed to the formula. The denominator
	// reaches zero near 37 reps.
	MaxFormulaReps = 20
)

// ─── One-rep max ──────────────────────────────────────────────────────────────

// EstimateOneRepMax returns weight / (1.0278 - 0.0278 × reps).
//
// The result is nil when either input is nil or when reps < 1. A single rep
// is its own max, so a zero weight estimates zero. Rep counts above
// MaxFormulaReps are clamped to MaxFormulaReps.
func EstimateOneRepMax(weight *float64, reps *int) *float64 {
	if weight == nil || reps == nil {
		return nil
	}
	w, r := *weight, *reps
	if r < 1 {
		return nil
	}
	if r == 1 {
		return &w
	}
	if r > MaxFormulaReps {
		r = MaxFormulaReps
	}
	est := w / (brzyckiA - brzyckiB*float64(r))
	return &est
}

// ─── Exercise projection ──────────────────────────────────────────────────────

// ExerciseDay is one row projected down to a single exercise.
type ExerciseDay struct {
	Date   calendar.Date `json:"date"`
	Weight *float64      `json:"weight"`
	Reps   *int          `json:"reps"`
}

// ProjectExercise returns one ExerciseDay per row, in input order. Days on
// which the exercise was not logged carry nil weight and reps.
func ProjectExercise(rows []model.LogRow, exerciseName string) []ExerciseDay {
	out := make([]ExerciseDay, len(rows))
	for i, r := range rows {
		out[i] = ExerciseDay{Date: r.Date}
		if e, ok := r.Entry(exerciseName); ok {
			out[i].Weight = e.Weight
			out[i].Reps = e.Reps
		}
	}
	return out
}

// Point maps a row onto a FilledPoint, projecting exerciseName's entry and
// deriving its estimated one-rep max. An empty exerciseName leaves the
// exercise fields nil.
func Point(r model.LogRow, exerciseName string) model.FilledPoint {
	p := model.FilledPoint{
		Date:       r.Date,
		Bodyweight: r.Bodyweight,
		Calories:   r.Calories,
		Protein:    r.Protein,
	}
	if exerciseName == "" {
		return p
	}
	if e, ok := r.Entry(exerciseName); ok {
		p.ExerciseWeight = e.Weight
		p.ExerciseReps = e.Reps
		p.EstimatedOneRepMax = EstimateOneRepMax(e.Weight, e.Reps)
	}
	return p
}

// ─── Analysis payload ─────────────────────────────────────────────────────────

// AnalysisSet is the exercise portion of one payload log.
type AnalysisSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	Est1RM float64 `json:"est1rm"`
}

// AnalysisLog is one day in the analysis payload.
type AnalysisLog struct {
	Date       calendar.Date `json:"date"`
	Bodyweight *float64      `json:"bodyweight"`
	Calories   *int          `json:"calories"`
	Protein    *int          `json:"protein"`
	Exercise   *AnalysisSet  `json:"exercise"`
}

// AnalysisPayload is the JSON body POSTed to the analysis backend.
// Weights are in pounds.
type AnalysisPayload struct {
	Exercise string        `json:"exercise"`
	Logs     []AnalysisLog `json:"logs"`
}

// BuildAnalysisPayload reshapes rows into the backend payload, sorted by
// date. A log's exercise object is present only when weight and reps were
// both recorded and a one-rep max could be estimated.
func BuildAnalysisPayload(exerciseName string, rows []model.LogRow) AnalysisPayload {
	sorted := make([]model.LogRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	logs := make([]AnalysisLog, 0, len(sorted))
	for _, r := range sorted {
		l := AnalysisLog{
			Date:       r.Date,
			Bodyweight: r.Bodyweight,
			Calories:   r.Calories,
			Protein:    r.Protein,
		}
		if e, ok := r.Entry(exerciseName); ok {
			if est := EstimateOneRepMax(e.Weight, e.Reps); est != nil {
				l.Exercise = &AnalysisSet{
					Weight: *e.Weight,
					Reps:   *e.Reps,
					Est1RM: units.Round1(*est),
				}
			}
		}
		logs = append(logs, l)
	}
	return AnalysisPayload{Exercise: exerciseName, Logs: logs}
}
