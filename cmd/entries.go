package cmd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/units"
)

// Performance tokens: "225x5", "x12" (reps only) or "225" (weight only).
var (
	setRe    = regexp.MustCompile(`^(\d+(?:\.\d+)?)?x(\d+)$`)
	weightRe = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	planRe   = regexp.MustCompile(`^(\d+)x(\d+)(?:@(\d+(?:\.\d+)?))?$`)
)

// parseEntry reads a logged exercise such as "Bench Press 185x5; paused".
// The weight is in unit and is converted to pounds.
func parseEntry(raw string, unit units.Unit) (model.ExerciseEntry, error) {
	var e model.ExerciseEntry
	body, note, hasNote := strings.Cut(raw, ";")
	fields := strings.Fields(body)
	if len(fields) < 2 {
		return e, fmt.Errorf("exercise %q: expected \"<name> <weight>x<reps>\"", raw)
	}
	perf := strings.ToLower(fields[len(fields)-1])
	e.Name = strings.Join(fields[:len(fields)-1], " ")

	switch {
	case setRe.MatchString(perf):
		m := setRe.FindStringSubmatch(perf)
		if m[1] != "" {
			w, _ := strconv.ParseFloat(m[1], 64)
			e.Weight = model.Float(units.ToCanonical(w, unit))
		}
		r, _ := strconv.Atoi(m[2])
		e.Reps = model.Int(r)
	case weightRe.MatchString(perf):
		w, _ := strconv.ParseFloat(perf, 64)
		e.Weight = model.Float(units.ToCanonical(w, unit))
	default:
		return e, fmt.Errorf("exercise %q: cannot read %q as <weight>x<reps>, x<reps> or <weight>", raw, perf)
	}
	if n := strings.TrimSpace(note); hasNote && n != "" {
		e.Notes = model.String(n)
	}
	return e, nil
}

// parsePlan reads a template exercise such as "Squat 3x5@225" (sets x reps
// at an optional weight in unit).
func parsePlan(raw string, unit units.Unit) (model.TemplateExercise, error) {
	var p model.TemplateExercise
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return p, fmt.Errorf("template exercise %q: expected \"<name> <sets>x<reps>[@weight]\"", raw)
	}
	m := planRe.FindStringSubmatch(strings.ToLower(fields[len(fields)-1]))
	if m == nil {
		return p, fmt.Errorf("template exercise %q: expected <sets>x<reps>[@weight], got %q", raw, fields[len(fields)-1])
	}
	p.Name = strings.Join(fields[:len(fields)-1], " ")
	p.Sets, _ = strconv.Atoi(m[1])
	p.Reps, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		w, _ := strconv.ParseFloat(m[3], 64)
		p.Weight = model.Float(units.ToCanonical(w, unit))
	}
	return p, nil
}

// mergeRow overlays add onto base. Entries in add replace same-named
// entries in base; other base entries are kept.
func mergeRow(base, add model.LogRow) model.LogRow {
	out := base
	out.Date = add.Date
	if add.Bodyweight != nil {
		out.Bodyweight = add.Bodyweight
	}
	if add.Calories != nil {
		out.Calories = add.Calories
	}
	if add.Protein != nil {
		out.Protein = add.Protein
	}
	out.Exercises = nil
	for _, e := range base.Exercises {
		if _, replaced := add.Entry(e.Name); !replaced {
			out.Exercises = append(out.Exercises, e)
		}
	}
	out.Exercises = append(out.Exercises, add.Exercises...)
	return out
}
