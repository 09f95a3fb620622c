package transform_test

import (
	"math"
	"testing"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/transform"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

var gap = math.NaN()

// daily builds consecutive daily Values from start. NaN inputs become nil.
func daily(start string, values ...float64) []transform.Value {
	d := calendar.MustParse(start)
	out := make([]transform.Value, len(values))
	for i, v := range values {
		out[i].Date = d.AddDays(i)
		if !math.IsNaN(v) {
			out[i].Value = model.Float(v)
		}
	}
	return out
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// expect checks out against want, where NaN in want means nil.
func expect(t *testing.T, out []transform.Value, want ...float64) {
	t.Helper()
	if len(out) != len(want) {
		t.Fatalf("length: got %d want %d", len(out), len(want))
	}
	for i, w := range want {
		got := out[i].Value
		switch {
		case math.IsNaN(w) && got != nil:
			t.Errorf("[%d] %s: expected nil, got %g", i, out[i].Date, *got)
		case !math.IsNaN(w) && got == nil:
			t.Errorf("[%d] %s: expected %g, got nil", i, out[i].Date, w)
		case !math.IsNaN(w) && !approxEqual(*got, w, 1e-9):
			t.Errorf("[%d] %s: expected %g, got %g", i, out[i].Date, w, *got)
		}
	}
}

// ─── FromPoints ───────────────────────────────────────────────────────────────

func TestFromPointsKeepsGaps(t *testing.T) {
	d := calendar.MustParse("2024-05-01")
	pts := []model.FilledPoint{
		{Date: d, Calories: model.Int(2200)},
		{Date: d.AddDays(1)},
		{Date: d.AddDays(2), Calories: model.Int(2400)},
	}
	out := transform.FromPoints(pts, model.FieldCalories)
	expect(t, out, 2200, gap, 2400)
	if !out[1].Date.Equal(d.AddDays(1)) {
		t.Errorf("date not preserved: %s", out[1].Date)
	}
}

func TestPresentSkipsNil(t *testing.T) {
	got := transform.Present(daily("2024-05-01", 1, gap, 3))
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("got %v", got)
	}
}

// ─── Roll ─────────────────────────────────────────────────────────────────────

func TestMovingAverage(t *testing.T) {
	out, err := transform.MovingAverage(daily("2024-05-01", 1, 2, 3, 4, 5), 3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect(t, out, 1, 1.5, 2, 3, 4)
}

func TestMovingAverageSkipsGaps(t *testing.T) {
	out, err := transform.MovingAverage(daily("2024-05-01", 150, gap, gap, 153), 3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Day 4's window is (gap, gap, 153): the gaps are not zero.
	expect(t, out, 150, 150, 150, 153)
}

func TestRollMinPeriods(t *testing.T) {
	out, err := transform.Roll(daily("2024-05-01", 1, gap, 3, 4), 3, 2, transform.RollMean)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect(t, out, gap, gap, 2, 3.5)
}

func TestRollStats(t *testing.T) {
	vals := daily("2024-05-01", 4, 2, 6)
	cases := []struct {
		stat transform.RollStat
		last float64
	}{
		{transform.RollMin, 2},
		{transform.RollMax, 6},
		{transform.RollSum, 12},
		{transform.RollStd, 2},
	}
	for _, tc := range cases {
		out, err := transform.Roll(vals, 3, 1, tc.stat)
		if err != nil {
			t.Fatalf("%s: %v", tc.stat, err)
		}
		if got := out[2].Value; got == nil || !approxEqual(*got, tc.last, 1e-9) {
			t.Errorf("%s: got %v want %g", tc.stat, got, tc.last)
		}
	}
}

func TestRollErrors(t *testing.T) {
	vals := daily("2024-05-01", 1, 2)
	if _, err := transform.Roll(vals, 0, 1, transform.RollMean); err == nil {
		t.Error("window 0: expected error")
	}
	if _, err := transform.Roll(vals, 2, 3, transform.RollMean); err == nil {
		t.Error("min-periods > window: expected error")
	}
	if _, err := transform.Roll(vals, 2, 1, "median"); err == nil {
		t.Error("unknown stat: expected error")
	}
}

// ─── Resample ─────────────────────────────────────────────────────────────────

func TestResampleWeeklyMondayStart(t *testing.T) {
	// 2024-05-01 is a Wednesday; 2024-05-06 is the next Monday.
	vals := daily("2024-05-01", 1, 2, 3, 4, 5, 10, 20)
	out, err := transform.Resample(vals, transform.ResampleWeekly, transform.ResampleMean)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect(t, out, 3, 15)
	if out[0].Date.Key() != "2024-04-29" || out[1].Date.Key() != "2024-05-06" {
		t.Errorf("bucket dates: %s, %s", out[0].Date, out[1].Date)
	}
}

func TestResampleMonthlyMethods(t *testing.T) {
	vals := daily("2024-01-30", 1, 5, 2, 7)
	cases := []struct {
		method transform.ResampleMethod
		want   []float64
	}{
		{transform.ResampleMean, []float64{3, 4.5}},
		{transform.ResampleLast, []float64{5, 7}},
		{transform.ResampleSum, []float64{6, 9}},
		{transform.ResampleMax, []float64{5, 7}},
	}
	for _, tc := range cases {
		out, err := transform.Resample(vals, transform.ResampleMonthly, tc.method)
		if err != nil {
			t.Fatalf("%s: %v", tc.method, err)
		}
		expect(t, out, tc.want...)
		if out[1].Date.Key() != "2024-02-01" {
			t.Errorf("%s: second bucket dated %s", tc.method, out[1].Date)
		}
	}
}

func TestResampleEmptyBucketIsNil(t *testing.T) {
	vals := daily("2024-05-06", gap, gap, gap, gap, gap, gap, gap, 5)
	out, err := transform.Resample(vals, transform.ResampleWeekly, transform.ResampleSum)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect(t, out, gap, 5)
}

func TestResampleEmptyInput(t *testing.T) {
	out, err := transform.Resample(nil, transform.ResampleWeekly, transform.ResampleMean)
	if err != nil || out == nil || len(out) != 0 {
		t.Errorf("got %v, %v", out, err)
	}
}

func TestResampleUnknown(t *testing.T) {
	vals := daily("2024-05-01", 1)
	if _, err := transform.Resample(vals, "quarterly", transform.ResampleMean); err == nil {
		t.Error("unknown frequency: expected error")
	}
	if _, err := transform.Resample(vals, transform.ResampleWeekly, "median"); err == nil {
		t.Error("unknown method: expected error")
	}
}

// ─── Change ───────────────────────────────────────────────────────────────────

func TestDiff(t *testing.T) {
	out, err := transform.Diff(daily("2024-05-01", 150, 151.5, gap, 149), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect(t, out, 1.5, gap, gap)
}

func TestPctChange(t *testing.T) {
	out, err := transform.PctChange(daily("2024-05-01", 100, 110, 0, 5), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect(t, out, 10, -100, gap)
}

func TestChangeErrors(t *testing.T) {
	if _, err := transform.Diff(daily("2024-05-01", 1, 2), 0); err == nil {
		t.Error("period 0: expected error")
	}
	if _, err := transform.PctChange(daily("2024-05-01", 1), 1); err == nil {
		t.Error("too few values: expected error")
	}
}

// ─── Composition ──────────────────────────────────────────────────────────────

func TestResampleThenDiff(t *testing.T) {
	vals := daily("2024-04-29", 150, 150, 150, 150, 150, 150, 150, 148, 148, 148, 148, 148, 148, 148)
	weekly, err := transform.Resample(vals, transform.ResampleWeekly, transform.ResampleMean)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	out, err := transform.Diff(weekly, 1)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	expect(t, out, -2)
}
