// Package seed generates plausible synthetic training history for demos,
// screenshots and tests. Output for a given non-zero Seed is deterministic.
package seed

import (
	"math"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/units"
)

// DefaultExercises are rotated through when Options.Exercises is empty.
var DefaultExercises = []string{"Squat", "Bench Press", "Deadlift"}

// Options controls Generate. Zero values select the defaults noted on
// each field.
type Options struct {
	Days      int           // history length ending at End (default 90)
	End       calendar.Date // last day (default today, UTC)
	Exercises []string      // rotated one per training day (default DefaultExercises)
	Seed      int64         // 0 picks a random seed
	SkipRate  float64       // chance a day has no row at all (default 0.2)

	StartBodyweight float64 // lbs (default 185)
}

// Generate returns rows in ascending date order. Bodyweight follows a slow
// random walk, calories and protein vary within everyday ranges, and each
// exercise gains 5 lbs every second session.
func Generate(opts Options) []model.LogRow {
	opts = withDefaults(opts)
	f := gofakeit.New(opts.Seed)

	start := opts.End.AddDays(-(opts.Days - 1))
	bw := opts.StartBodyweight
	sessions := make([]int, len(opts.Exercises))
	rows := make([]model.LogRow, 0, opts.Days)

	for i := 0; i < opts.Days; i++ {
		date := start.AddDays(i)
		bw = math.Min(math.Max(bw+f.Float64Range(-0.8, 0.7), 100), 400)
		if f.Float64() < opts.SkipRate {
			continue
		}

		row := model.LogRow{Date: date}
		if f.Float64() < 0.85 {
			row.Bodyweight = model.Float(units.Round1(bw))
		}
		if f.Float64() < 0.9 {
			row.Calories = model.Int(f.Number(180, 300) * 10)
			row.Protein = model.Int(f.Number(120, 210))
		}

		// Every other day is a training day.
		if i%2 == 0 {
			ex := (i / 2) % len(opts.Exercises)
			row.Exercises = []model.ExerciseEntry{liftEntry(f, opts.Exercises[ex], ex, sessions[ex])}
			sessions[ex]++
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func liftEntry(f *gofakeit.Faker, name string, idx, session int) model.ExerciseEntry {
	weight := 135 + 40*float64(idx) + 5*float64(session/2)
	e := model.ExerciseEntry{
		Name:   name,
		Weight: model.Float(weight),
		Reps:   model.Int(f.Number(3, 8)),
	}
	if f.Float64() < 0.1 {
		e.Notes = model.String(f.Sentence(4))
	}
	return e
}

func withDefaults(o Options) Options {
	if o.Days <= 0 {
		o.Days = 90
	}
	if o.End.IsZero() {
		o.End = calendar.Today(nil)
	}
	if len(o.Exercises) == 0 {
		o.Exercises = DefaultExercises
	}
	if o.SkipRate <= 0 {
		o.SkipRate = 0.2
	}
	if o.SkipRate > 1 {
		o.SkipRate = 1
	}
	if o.StartBodyweight <= 0 {
		o.StartBodyweight = 185
	}
	return o
}
