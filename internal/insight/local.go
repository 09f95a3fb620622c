package insight

import (
	"fmt"
	"strings"

	"github.com/derickschaefer/liftlog/internal/analyze"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/transform"
	"github.com/derickschaefer/liftlog/internal/units"
)

// Local builds a markdown insight from local statistics. It is the offline
// stand-in for the analysis backend and never fails; sparse data yields a
// shorter message. p must be in pounds; weights are reported in unit.
func Local(p series.Prepared, unit units.Unit) Insight {
	if unit == "" {
		unit = units.Pounds
	}
	w := func(v float64) string { return fmt.Sprintf("%s %s", trim(units.ToDisplay(v, unit)), unit) }

	var b strings.Builder
	name := p.Exercise
	if name == "" {
		name = "Bodyweight"
	}
	fmt.Fprintf(&b, "**%s**, %s to %s (%s).", name, p.Start, p.Today, p.Window)

	if p.Exercise != "" {
		e1rm := analyze.Summarize(string(model.FieldOneRepMax), transform.FromPoints(p.Points, model.FieldOneRepMax))
		switch {
		case e1rm.Logged == 0:
			fmt.Fprintf(&b, " No %s sessions in this window.", p.Exercise)
		case e1rm.Logged == 1:
			fmt.Fprintf(&b, " One session logged, estimated 1RM %s.", w(*e1rm.Last))
		default:
			fmt.Fprintf(&b, " %d sessions logged. Estimated 1RM went from %s to %s", e1rm.Logged, w(*e1rm.First), w(*e1rm.Last))
			if e1rm.ChangePct != nil {
				fmt.Fprintf(&b, " (%+.1f%%)", *e1rm.ChangePct)
			}
			b.WriteString(".")
			if tr, err := analyze.Trend("e1rm", transform.FromPoints(p.Points, model.FieldOneRepMax), analyze.TrendTheilSen); err == nil {
				b.WriteString(" " + trendSentence("Strength", tr, unit))
			}
		}
	}

	bw := analyze.Summarize(string(model.FieldBodyweight), transform.FromPoints(p.Points, model.FieldBodyweight))
	if bw.Logged >= 2 {
		fmt.Fprintf(&b, "\n\nBodyweight moved from %s to %s over %d weigh-ins.", w(*bw.First), w(*bw.Last), bw.Logged)
		if tr, err := analyze.Trend("bodyweight", transform.FromPoints(p.Points, model.FieldBodyweight), analyze.TrendLinear); err == nil {
			b.WriteString(" " + trendSentence("Bodyweight", tr, unit))
		}
	} else if bw.Logged == 1 {
		fmt.Fprintf(&b, "\n\nOne weigh-in: %s.", w(*bw.Last))
	}

	cal := analyze.Summarize(string(model.FieldCalories), transform.FromPoints(p.Points, model.FieldCalories))
	if cal.Mean != nil {
		fmt.Fprintf(&b, " Average intake %.0f kcal on %d logged days.", *cal.Mean, cal.Logged)
	}
	return Insight{Message: b.String()}
}

func trendSentence(subject string, tr analyze.TrendResult, unit units.Unit) string {
	if tr.Direction == "flat" {
		return subject + " is holding steady."
	}
	perWeek := tr.SlopePerWeek
	if unit == units.Kilograms {
		perWeek *= units.KgPerLb
	}
	return fmt.Sprintf("%s is trending %s about %s %s/week.", subject, tr.Direction, trim(abs(perWeek)), unit)
}

func trim(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
