// Package model defines the canonical data types used throughout liftlog.
// Weights are always stored in pounds; conversion to the display unit happens
// only in render and at the CLI/HTTP boundary.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/derickschaefer/liftlog/internal/calendar"
)

// ─── Log Types ────────────────────────────────────────────────────────────────

// ExerciseEntry is one exercise's performance on a given day.
type ExerciseEntry struct {
	Name   string   `json:"name"`
	Weight *float64 `json:"weight"` // lbs
	Reps   *int     `json:"reps"`
	Notes  *string  `json:"notes"`
}

// LogRow is one user-submitted day of data. At most one exists per user
// per date, and at most one entry per exercise within it.
type LogRow struct {
	Date       calendar.Date   `json:"date"`
	Bodyweight *float64        `json:"bodyweight"` // lbs
	Calories   *int            `json:"calories"`
	Protein    *int            `json:"protein"` // grams
	Exercises  []ExerciseEntry `json:"exercises"`
}

// Entry returns the entry for name (case-insensitive), if present.
func (r LogRow) Entry(name string) (ExerciseEntry, bool) {
	want := normName(name)
	for _, e := range r.Exercises {
		if normName(e.Name) == want {
			return e, true
		}
	}
	return ExerciseEntry{}, false
}

// IsEmpty reports whether the row carries no values at all.
func (r LogRow) IsEmpty() bool {
	return r.Bodyweight == nil && r.Calories == nil && r.Protein == nil && len(r.Exercises) == 0
}

// ─── Catalog Types ────────────────────────────────────────────────────────────

// Exercise is an entry in a user's exercise catalog.
type Exercise struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TemplateExercise is one planned exercise inside a Template.
type TemplateExercise struct {
	Name   string   `json:"name"`
	Sets   int      `json:"sets"`
	Reps   int      `json:"reps"`
	Weight *float64 `json:"weight,omitempty"` // lbs
}

// Template is a reusable workout.
type Template struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Exercises []TemplateExercise `json:"exercises"`
	CreatedAt time.Time          `json:"created_at"`
}

// Goals are a user's current targets.
type Goals struct {
	TargetBodyweight *float64  `json:"target_bodyweight"` // lbs
	DailyCalories    *int      `json:"daily_calories"`
	DailyProtein     *int      `json:"daily_protein"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// ─── Series Types ─────────────────────────────────────────────────────────────

// FilledPoint is one calendar day of a gap-filled series. Every field but
// Date is nil on days without a log row.
type FilledPoint struct {
	Date               calendar.Date `json:"date"`
	Bodyweight         *float64      `json:"bodyweight"`
	Calories           *int          `json:"calories"`
	Protein            *int          `json:"protein"`
	ExerciseWeight     *float64      `json:"exercise_weight"`
	ExerciseReps       *int          `json:"exercise_reps"`
	EstimatedOneRepMax *float64      `json:"estimated_one_rep_max"`
}

// Field names a chartable value of a FilledPoint.
type Field string

const (
	FieldBodyweight Field = "bodyweight"
	FieldCalories   Field = "calories"
	FieldProtein    Field = "protein"
	FieldWeight     Field = "weight"
	FieldReps       Field = "reps"
	FieldOneRepMax  Field = "e1rm"
)

// Fields lists every chartable field in display order.
var Fields = []Field{FieldBodyweight, FieldCalories, FieldProtein, FieldWeight, FieldReps, FieldOneRepMax}

// ParseField resolves a field name.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	if f == "1rm" || f == "est1rm" {
		return FieldOneRepMax, nil
	}
	return "", fmt.Errorf("unknown field %q (use bodyweight|calories|protein|weight|reps|e1rm)", s)
}

// IsWeight reports whether the field holds a weight in lbs.
func (f Field) IsWeight() bool {
	return f == FieldBodyweight || f == FieldWeight || f == FieldOneRepMax
}

// Value extracts the field from p. ok is false when the value is absent.
func (f Field) Value(p FilledPoint) (float64, bool) {
	switch f {
	case FieldBodyweight:
		return derefF(p.Bodyweight)
	case FieldCalories:
		return derefI(p.Calories)
	case FieldProtein:
		return derefI(p.Protein)
	case FieldWeight:
		return derefF(p.ExerciseWeight)
	case FieldReps:
		return derefI(p.ExerciseReps)
	case FieldOneRepMax:
		return derefF(p.EstimatedOneRepMax)
	}
	return 0, false
}

// With returns p with the field set to v. Integer fields are rounded.
func (f Field) With(p FilledPoint, v *float64) FilledPoint {
	var iv *int
	if v != nil {
		iv = Int(int(math.Round(*v)))
	}
	switch f {
	case FieldBodyweight:
		p.Bodyweight = v
	case FieldCalories:
		p.Calories = iv
	case FieldProtein:
		p.Protein = iv
	case FieldWeight:
		p.ExerciseWeight = v
	case FieldReps:
		p.ExerciseReps = iv
	case FieldOneRepMax:
		p.EstimatedOneRepMax = v
	}
	return p
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries performance and cache metadata for a command result.
type ResultStats struct {
	CacheHit   bool  `json:"cache_hit"`
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Unit        string      `json:"unit,omitempty"` // display unit of weights in Data
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindLogRows   = "log_rows"
	KindSeries    = "series"
	KindExercises = "exercises"
	KindTemplates = "templates"
	KindGoals     = "goals"
	KindSummary   = "summary"
	KindTrend     = "trend"
	KindInsight   = "insight"
	KindTable     = "table"
)

// Table is a generic two-dimensional result (KindTable).
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// InsightReport is the natural-language analysis of one exercise (KindInsight).
// Source is "backend" when the analysis service answered and "local" when the
// message was built from the local statistics instead.
type InsightReport struct {
	Exercise string `json:"exercise"`
	Window   string `json:"window"`
	Source   string `json:"source"`
	Message  string `json:"message"`
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameExercise reports whether two exercise names refer to the same exercise.
func SameExercise(a, b string) bool {
	return normName(a) == normName(b)
}

func derefF(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func derefI(p *int) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return float64(*p), true
}
