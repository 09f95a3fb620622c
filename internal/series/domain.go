package series

import (
	"math"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
)

// ─── Y Domain ─────────────────────────────────────────────────────────────────

// Domain is a padded Y-axis range with a suggested tick count.
// Empty is set when the series had no values for the field; renderers should
// then suppress the axis or show a placeholder rather than draw Min..Max.
type Domain struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	TickCount int     `json:"tick_count"`
	Empty     bool    `json:"empty"`
}

// Default bounds for weight-style fields with no data.
const (
	emptyWeightMin = 100
	emptyWeightMax = 200
)

// Granularity returns the rounding step used for a field's axis. Strength
// estimates span a wider range than bodyweight, so they pad by 10, not 5.
func Granularity(field model.Field) float64 {
	if field == model.FieldOneRepMax {
		return 10
	}
	return 5
}

// ComputeDomain pads the observed range of field out to the next multiple of
// the field's granularity g, plus one more g on each side:
//
//	min = floor(lo/g)*g - g
//	max = ceil(hi/g)*g + g
func ComputeDomain(points []model.FilledPoint, field model.Field) Domain {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		v, ok := field.Value(p)
		if !ok {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if math.IsInf(lo, 1) {
		if field.IsWeight() {
			return Domain{
				Min:       emptyWeightMin,
				Max:       emptyWeightMax,
				TickCount: tickCountFor(emptyWeightMax - emptyWeightMin),
				Empty:     true,
			}
		}
		return Domain{Empty: true}
	}

	g := Granularity(field)
	d := Domain{
		Min: math.Floor(lo/g)*g - g,
		Max: math.Ceil(hi/g)*g + g,
	}
	d.TickCount = tickCountFor(d.Max - d.Min)
	return d
}

// tickCountFor picks a tick count from the padded span.
func tickCountFor(span float64) int {
	switch {
	case span <= 15:
		return 4
	case span <= 30:
		return 6
	case span <= 50:
		return 8
	default:
		return 10
	}
}

// TickValues returns d.TickCount evenly spaced values from Min to Max.
// An empty domain has no ticks.
func TickValues(d Domain) []float64 {
	if d.Empty || d.TickCount < 2 || d.Max <= d.Min {
		return nil
	}
	step := (d.Max - d.Min) / float64(d.TickCount-1)
	out := make([]float64, d.TickCount)
	for i := range out {
		out[i] = d.Min + float64(i)*step
	}
	out[len(out)-1] = d.Max
	return out
}

// ─── X Ticks ──────────────────────────────────────────────────────────────────

// Tick budgets for WindowAll.
const (
	MaxTicksDesktop = 12
	MaxTicksNarrow  = 8
)

// TickInterval returns the spacing in days between X-axis ticks.
// totalDays is only consulted for WindowAll.
func TickInterval(window Window, totalDays int, narrow bool) int {
	switch window {
	case Window7d:
		return 1
	case Window30d:
		return 7
	case Window90d:
		if narrow {
			return 14
		}
		return 7
	case Window180d:
		if narrow {
			return 30
		}
		return 14
	case Window365d:
		if narrow {
			return 60
		}
		return 30
	}
	maxTicks := MaxTicksDesktop
	if narrow {
		maxTicks = MaxTicksNarrow
	}
	interval := int(math.Ceil(float64(totalDays) / float64(maxTicks)))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// ComputeXTicks returns tick dates starting at start and advancing by the
// window's interval until the cursor passes today. narrow is the caller's
// viewport-class flag.
func ComputeXTicks(start, today calendar.Date, window Window, narrow bool) []calendar.Date {
	total := calendar.DaysBetween(start, today) + 1
	if total <= 0 {
		return []calendar.Date{}
	}
	step := TickInterval(window, total, narrow)
	ticks := make([]calendar.Date, 0, total/step+1)
	for d := start; !d.After(today); d = d.AddDays(step) {
		ticks = append(ticks, d)
	}
	return ticks
}

// XTickKeys is ComputeXTicks rendered as YYYY-MM-DD strings.
func XTickKeys(start, today calendar.Date, window Window, narrow bool) []string {
	ticks := ComputeXTicks(start, today, window, narrow)
	out := make([]string, len(ticks))
	for i, d := range ticks {
		out[i] = d.Key()
	}
	return out
}
