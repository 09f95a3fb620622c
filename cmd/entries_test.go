package cmd

import (
	"testing"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/units"
)

func TestParseEntry(t *testing.T) {
	e, err := parseEntry("Bench Press 185x5; paused reps", units.Pounds)
	if err != nil {
		t.Fatalf("parseEntry: %v", err)
	}
	if e.Name != "Bench Press" || *e.Weight != 185 || *e.Reps != 5 {
		t.Errorf("got %+v", e)
	}
	if e.Notes == nil || *e.Notes != "paused reps" {
		t.Errorf("note: got %v", e.Notes)
	}

	e, err = parseEntry("Pull Up x12", units.Pounds)
	if err != nil {
		t.Fatalf("reps only: %v", err)
	}
	if e.Weight != nil || *e.Reps != 12 {
		t.Errorf("reps only: got weight=%v reps=%v", e.Weight, e.Reps)
	}

	e, err = parseEntry("Farmer Carry 70", units.Pounds)
	if err != nil {
		t.Fatalf("weight only: %v", err)
	}
	if *e.Weight != 70 || e.Reps != nil {
		t.Errorf("weight only: got weight=%v reps=%v", e.Weight, e.Reps)
	}
}

func TestParseEntryConvertsKilograms(t *testing.T) {
	e, err := parseEntry("Squat 100x3", units.Kilograms)
	if err != nil {
		t.Fatalf("parseEntry: %v", err)
	}
	if units.Round1(*e.Weight) != 220.5 {
		t.Errorf("100 kg should be stored as about 220.46 lbs, got %v", *e.Weight)
	}
}

func TestParseEntryRejects(t *testing.T) {
	for _, raw := range []string{"Squat", "225x5", "Squat five", "Squat 225x", "Squat 5x5x5"} {
		if _, err := parseEntry(raw, units.Pounds); err == nil {
			t.Errorf("parseEntry(%q): expected error", raw)
		}
	}
}

func TestParsePlan(t *testing.T) {
	p, err := parsePlan("Overhead Press 3x8@95", units.Pounds)
	if err != nil {
		t.Fatalf("parsePlan: %v", err)
	}
	if p.Name != "Overhead Press" || p.Sets != 3 || p.Reps != 8 || *p.Weight != 95 {
		t.Errorf("got %+v", p)
	}

	p, err = parsePlan("Chin Up 3x8", units.Pounds)
	if err != nil {
		t.Fatalf("no weight: %v", err)
	}
	if p.Weight != nil {
		t.Errorf("no weight: got %v", *p.Weight)
	}

	if _, err := parsePlan("Squat 225x5@", units.Pounds); err == nil {
		t.Error("dangling @: expected error")
	}
}

func TestMergeRow(t *testing.T) {
	day := calendar.MustParse("2024-03-01")
	base := model.LogRow{
		Date:       day,
		Bodyweight: model.Float(181),
		Calories:   model.Int(2400),
		Exercises: []model.ExerciseEntry{
			{Name: "Squat", Weight: model.Float(225), Reps: model.Int(5)},
			{Name: "Bench Press", Weight: model.Float(185), Reps: model.Int(5)},
		},
	}
	add := model.LogRow{
		Date:    day,
		Protein: model.Int(190),
		Exercises: []model.ExerciseEntry{
			{Name: "squat", Weight: model.Float(235), Reps: model.Int(3)},
		},
	}

	got := mergeRow(base, add)
	if *got.Bodyweight != 181 || *got.Calories != 2400 || *got.Protein != 190 {
		t.Errorf("daily fields not merged: %+v", got)
	}
	if len(got.Exercises) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.Exercises))
	}
	sq, ok := got.Entry("Squat")
	if !ok || *sq.Weight != 235 {
		t.Errorf("squat should be replaced by the new entry, got %+v", sq)
	}
	if _, ok := got.Entry("Bench Press"); !ok {
		t.Error("bench press should be kept")
	}
	if len(base.Exercises) != 2 || *base.Exercises[0].Weight != 225 {
		t.Error("base row was mutated")
	}
}
