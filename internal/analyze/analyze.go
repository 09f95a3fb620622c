// Package analyze computes statistical summaries and trend analysis over
// gap-filled daily series. All functions are pure; no I/O.
package analyze

import (
	"fmt"
	"math"
	"sort"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/transform"
)

// ─── Summary ──────────────────────────────────────────────────────────────────

// Summary holds descriptive statistics for one field over a window.
// Statistic fields are nil when no day in the window had a value.
type Summary struct {
	Label      string   `json:"label"`
	Count      int      `json:"count"`       // days in the window
	Logged     int      `json:"logged"`      // days with a value
	Missing    int      `json:"missing"`     // days without
	MissingPct float64  `json:"missing_pct"` // percent of days without
	Mean       *float64 `json:"mean"`
	Std        *float64 `json:"std"`
	Min        *float64 `json:"min"`
	P25        *float64 `json:"p25"`
	Median     *float64 `json:"median"`
	P75        *float64 `json:"p75"`
	Max        *float64 `json:"max"`
	First      *float64 `json:"first"`
	Last       *float64 `json:"last"`
	Change     *float64 `json:"change"`     // Last - First
	ChangePct  *float64 `json:"change_pct"` // nil when First is zero
}

// Summarize computes descriptive statistics over vals.
// Nil values are counted as missing and excluded from every statistic.
func Summarize(label string, vals []transform.Value) Summary {
	s := Summary{Label: label, Count: len(vals)}
	present := transform.Present(vals)
	s.Logged = len(present)
	s.Missing = s.Count - s.Logged
	if s.Count > 0 {
		s.MissingPct = float64(s.Missing) / float64(s.Count) * 100
	}
	if len(present) == 0 {
		return s
	}

	sorted := make([]float64, len(present))
	copy(sorted, present)
	sort.Float64s(sorted)

	mean := transform.Mean(present)
	s.Mean = &mean
	s.Std = ptr(transform.StdDev(present, mean))
	s.Min = ptr(sorted[0])
	s.Max = ptr(sorted[len(sorted)-1])
	s.P25 = ptr(percentile(sorted, 25))
	s.Median = ptr(percentile(sorted, 50))
	s.P75 = ptr(percentile(sorted, 75))

	first, last := present[0], present[len(present)-1]
	s.First, s.Last = &first, &last
	s.Change = ptr(last - first)
	if first != 0 {
		s.ChangePct = ptr((last - first) / math.Abs(first) * 100)
	}
	return s
}

// ─── Trend ────────────────────────────────────────────────────────────────────

// TrendMethod selects the regression algorithm.
type TrendMethod string

const (
	TrendLinear   TrendMethod = "linear"
	TrendTheilSen TrendMethod = "theil-sen"
)

// FlatPerWeek is the largest weekly slope magnitude still reported as flat.
const FlatPerWeek = 0.05

// TrendResult holds the output of a trend analysis.
type TrendResult struct {
	Label        string      `json:"label"`
	Method       TrendMethod `json:"method"`
	Points       int         `json:"points"`
	Slope        float64     `json:"slope"` // units per day
	Intercept    float64     `json:"intercept"`
	R2           float64     `json:"r2"`
	SlopePerWeek float64     `json:"slope_per_week"`
	Direction    string      `json:"direction"` // "up", "down", "flat"
}

// Trend fits a line to the present values. X is days since the first
// present value, so gaps in logging do not distort the slope.
func Trend(label string, vals []transform.Value, method TrendMethod) (TrendResult, error) {
	if method == "" {
		method = TrendLinear
	}
	tr := TrendResult{Label: label, Method: method}

	var pts []point
	var d0 calendar.Date
	for _, v := range vals {
		if v.Value == nil {
			continue
		}
		if len(pts) == 0 {
			d0 = v.Date
		}
		pts = append(pts, point{float64(calendar.DaysBetween(d0, v.Date)), *v.Value})
	}
	tr.Points = len(pts)
	if len(pts) < 2 {
		return tr, fmt.Errorf("trend: need at least 2 logged days, got %d", len(pts))
	}

	switch method {
	case TrendTheilSen:
		tr.Slope = theilSenSlope(pts)
		xMean := meanPts(pts, func(p point) float64 { return p.x })
		yMean := meanPts(pts, func(p point) float64 { return p.y })
		tr.Intercept = yMean - tr.Slope*xMean
	case TrendLinear:
		tr.Slope, tr.Intercept = olsRegress(pts)
	default:
		return tr, fmt.Errorf("trend: unknown method %q (use linear, theil-sen)", method)
	}

	tr.R2 = r2(pts, tr.Slope, tr.Intercept)
	tr.SlopePerWeek = tr.Slope * 7

	switch {
	case tr.SlopePerWeek > FlatPerWeek:
		tr.Direction = "up"
	case tr.SlopePerWeek < -FlatPerWeek:
		tr.Direction = "down"
	default:
		tr.Direction = "flat"
	}
	return tr, nil
}

// ─── Goals ────────────────────────────────────────────────────────────────────

// Progress compares the latest value of a series to a target.
type Progress struct {
	Target    float64 `json:"target"`
	Current   float64 `json:"current"`
	Remaining float64 `json:"remaining"` // Target - Current
	Reached   bool    `json:"reached"`
}

// GoalProgress reports how far the summary's last value is from goal.
// It returns nil when there is no goal or no value. A goal counts as
// reached within half a unit.
func GoalProgress(s Summary, goal *float64) *Progress {
	if goal == nil || s.Last == nil {
		return nil
	}
	p := &Progress{Target: *goal, Current: *s.Last, Remaining: *goal - *s.Last}
	p.Reached = math.Abs(p.Remaining) <= 0.5
	return p
}

// Adherence returns the percentage of logged days whose value is within
// tolPct percent of target. ok is false when nothing was logged.
func Adherence(vals []transform.Value, target, tolPct float64) (pct float64, ok bool) {
	present := transform.Present(vals)
	if len(present) == 0 || target == 0 {
		return 0, false
	}
	hit := 0
	for _, v := range present {
		if math.Abs(v-target)/math.Abs(target)*100 <= tolPct {
			hit++
		}
	}
	return float64(hit) / float64(len(present)) * 100, true
}

// ─── Math helpers ─────────────────────────────────────────────────────────────

func ptr(v float64) *float64 { return &v }

func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	idx := p / 100 * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

type point struct{ x, y float64 }

func olsRegress(pts []point) (slope, intercept float64) {
	n := float64(len(pts))
	var xSum, ySum, xySum, x2Sum float64
	for _, p := range pts {
		xSum += p.x
		ySum += p.y
		xySum += p.x * p.y
		x2Sum += p.x * p.x
	}
	denom := n*x2Sum - xSum*xSum
	if denom == 0 {
		return 0, ySum / n
	}
	slope = (n*xySum - xSum*ySum) / denom
	intercept = (ySum - slope*xSum) / n
	return
}

func theilSenSlope(pts []point) float64 {
	var slopes []float64
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			dx := pts[j].x - pts[i].x
			if dx == 0 {
				continue
			}
			slopes = append(slopes, (pts[j].y-pts[i].y)/dx)
		}
	}
	if len(slopes) == 0 {
		return 0
	}
	sort.Float64s(slopes)
	return percentile(slopes, 50)
}

func r2(pts []point, slope, intercept float64) float64 {
	yMean := meanPts(pts, func(p point) float64 { return p.y })
	var ssTot, ssRes float64
	for _, p := range pts {
		pred := slope*p.x + intercept
		ssTot += (p.y - yMean) * (p.y - yMean)
		ssRes += (p.y - pred) * (p.y - pred)
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}

func meanPts(pts []point, f func(point) float64) float64 {
	var s float64
	for _, p := range pts {
		s += f(p)
	}
	return s / float64(len(pts))
}
