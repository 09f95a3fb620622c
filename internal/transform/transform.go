// Package transform implements stateless operators over gap-filled daily
// series. Each operator takes a slice of Values and returns a new slice;
// absent values are nil and are never treated as zero.
package transform

import (
	"fmt"
	"math"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
)

// Value is one dated value of a single field. Value is nil when absent.
type Value struct {
	Date  calendar.Date `json:"date"`
	Value *float64      `json:"value"`
}

// FromPoints extracts field from each point, one Value per point.
func FromPoints(points []model.FilledPoint, field model.Field) []Value {
	out := make([]Value, len(points))
	for i, p := range points {
		out[i].Date = p.Date
		if v, ok := field.Value(p); ok {
			out[i].Value = model.Float(v)
		}
	}
	return out
}

// Present returns the non-nil values in order.
func Present(vals []Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.Value != nil {
			out = append(out, *v.Value)
		}
	}
	return out
}

// ─── Rolling Window ───────────────────────────────────────────────────────────

// RollStat selects the statistic for rolling window computation.
type RollStat string

const (
	RollMean RollStat = "mean"
	RollStd  RollStat = "std"
	RollMin  RollStat = "min"
	RollMax  RollStat = "max"
	RollSum  RollStat = "sum"
)

// Roll computes a trailing window statistic. Each window covers the current
// day and the (window-1) preceding days. Nil values are skipped; a window
// with fewer than minPeriods values yields nil.
func Roll(vals []Value, window, minPeriods int, stat RollStat) ([]Value, error) {
	if window < 1 {
		return nil, fmt.Errorf("roll: window must be >= 1, got %d", window)
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	if minPeriods > window {
		return nil, fmt.Errorf("roll: min-periods (%d) cannot exceed window (%d)", minPeriods, window)
	}
	agg, err := rollFunc(stat)
	if err != nil {
		return nil, err
	}

	out := make([]Value, len(vals))
	for i, v := range vals {
		start := max(i-window+1, 0)
		present := Present(vals[start : i+1])
		out[i].Date = v.Date
		if len(present) >= minPeriods {
			out[i].Value = model.Float(agg(present))
		}
	}
	return out, nil
}

// MovingAverage is Roll with RollMean.
func MovingAverage(vals []Value, window, minPeriods int) ([]Value, error) {
	return Roll(vals, window, minPeriods, RollMean)
}

func rollFunc(stat RollStat) (func([]float64) float64, error) {
	switch stat {
	case RollMean:
		return Mean, nil
	case RollStd:
		return func(v []float64) float64 { return StdDev(v, Mean(v)) }, nil
	case RollMin:
		return func(v []float64) float64 { mn, _ := MinMax(v); return mn }, nil
	case RollMax:
		return func(v []float64) float64 { _, mx := MinMax(v); return mx }, nil
	case RollSum:
		return Sum, nil
	}
	return nil, fmt.Errorf("roll: unknown stat %q (use mean, std, min, max, sum)", stat)
}

// ─── Resample ─────────────────────────────────────────────────────────────────

// ResampleFreq is the bucket size for resampling.
type ResampleFreq string

const (
	ResampleWeekly  ResampleFreq = "weekly"
	ResampleMonthly ResampleFreq = "monthly"
)

// ResampleMethod is the aggregation applied within a bucket.
type ResampleMethod string

const (
	ResampleMean ResampleMethod = "mean"
	ResampleLast ResampleMethod = "last"
	ResampleSum  ResampleMethod = "sum"
	ResampleMax  ResampleMethod = "max"
)

// Resample aggregates daily values into weeks (Monday start) or calendar
// months. Each output Value is dated at its bucket's first day. Buckets with
// no present values yield nil. vals must be in ascending date order.
func Resample(vals []Value, freq ResampleFreq, method ResampleMethod) ([]Value, error) {
	if freq != ResampleWeekly && freq != ResampleMonthly {
		return nil, fmt.Errorf("resample: unknown frequency %q (use weekly, monthly)", freq)
	}
	var agg func([]float64) float64
	switch method {
	case ResampleMean:
		agg = Mean
	case ResampleLast:
		agg = func(v []float64) float64 { return v[len(v)-1] }
	case ResampleSum:
		agg = Sum
	case ResampleMax:
		agg = func(v []float64) float64 { _, mx := MinMax(v); return mx }
	default:
		return nil, fmt.Errorf("resample: unknown method %q (use mean, last, sum, max)", method)
	}

	var out []Value
	var bucket []float64
	flush := func() {
		if len(bucket) > 0 {
			out[len(out)-1].Value = model.Float(agg(bucket))
		}
		bucket = bucket[:0]
	}
	for _, v := range vals {
		start := bucketStart(v.Date, freq)
		if len(out) == 0 || !out[len(out)-1].Date.Equal(start) {
			if len(out) > 0 {
				flush()
			}
			out = append(out, Value{Date: start})
		}
		if v.Value != nil {
			bucket = append(bucket, *v.Value)
		}
	}
	if len(out) > 0 {
		flush()
	}
	if out == nil {
		out = []Value{}
	}
	return out, nil
}

func bucketStart(d calendar.Date, freq ResampleFreq) calendar.Date {
	if freq == ResampleMonthly {
		return calendar.New(d.Year(), d.Month(), 1)
	}
	// time.Weekday has Sunday=0; shift so Monday is offset 0.
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// ─── Change ───────────────────────────────────────────────────────────────────

// Diff returns v[t] - v[t-period]. Leading values without a prior period
// are dropped; a nil operand yields nil.
func Diff(vals []Value, period int) ([]Value, error) {
	return lagged("diff", vals, period, func(curr, prev float64) (float64, bool) {
		return curr - prev, true
	})
}

// PctChange returns (v[t] - v[t-period]) / |v[t-period]| * 100. A nil or
// zero prior value yields nil.
func PctChange(vals []Value, period int) ([]Value, error) {
	return lagged("pct-change", vals, period, func(curr, prev float64) (float64, bool) {
		if prev == 0 {
			return 0, false
		}
		return (curr - prev) / math.Abs(prev) * 100, true
	})
}

func lagged(op string, vals []Value, period int, f func(curr, prev float64) (float64, bool)) ([]Value, error) {
	if period < 1 {
		return nil, fmt.Errorf("%s: period must be >= 1, got %d", op, period)
	}
	if len(vals) <= period {
		return nil, fmt.Errorf("%s: need more than %d values, got %d", op, period, len(vals))
	}
	out := make([]Value, 0, len(vals)-period)
	for i := period; i < len(vals); i++ {
		o := Value{Date: vals[i].Date}
		if c, p := vals[i].Value, vals[i-period].Value; c != nil && p != nil {
			if v, ok := f(*c, *p); ok {
				o.Value = model.Float(v)
			}
		}
		out = append(out, o)
	}
	return out, nil
}

// ─── Math helpers ─────────────────────────────────────────────────────────────

// Mean returns the arithmetic mean, or NaN for no values.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return Sum(vals) / float64(len(vals))
}

// Sum returns the sum of vals.
func Sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

// StdDev returns the sample standard deviation around m.
func StdDev(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sq float64
	for _, v := range vals {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)-1))
}

// MinMax returns the smallest and largest of vals, which must be non-empty.
func MinMax(vals []float64) (float64, float64) {
	mn, mx := vals[0], vals[0]
	for _, v := range vals[1:] {
		mn = math.Min(mn, v)
		mx = math.Max(mx, v)
	}
	return mn, mx
}
