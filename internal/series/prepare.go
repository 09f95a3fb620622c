package series

import (
	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/units"
)

// Request selects what Prepare builds.
type Request struct {
	Window   Window        `json:"window"`
	Exercise string        `json:"exercise"`
	Field    model.Field   `json:"field"`
	Narrow   bool          `json:"narrow"`
	Today    calendar.Date `json:"today"`
}

// Prepared is a complete chart-ready series. All weights are in pounds.
type Prepared struct {
	Window           Window              `json:"window"`
	Exercise         string              `json:"exercise,omitempty"`
	Field            model.Field         `json:"field"`
	Start            calendar.Date       `json:"start"`
	Today            calendar.Date       `json:"today"`
	Points           []model.FilledPoint `json:"points"`
	Domain           Domain              `json:"domain"`
	BodyweightDomain Domain              `json:"bodyweight_domain"`
	StrengthDomain   Domain              `json:"strength_domain"`
	XTicks           []string            `json:"x_ticks"`

	// Rows are the window's source rows, kept for payload building.
	Rows []model.LogRow `json:"-"`
}

// Prepare runs the full pipeline over rows: range selection, gap filling,
// then domain and tick computation. An empty Field means bodyweight; a zero
// Today means today in UTC; an empty Window means 30d.
func Prepare(rows []model.LogRow, req Request) Prepared {
	req = req.Normalized()

	start, filtered := SelectRange(rows, req.Window, req.Today)
	points := FillGaps(filtered, req.Exercise, start, req.Today)

	return Prepared{
		Window:           req.Window,
		Exercise:         req.Exercise,
		Field:            req.Field,
		Start:            start,
		Today:            req.Today,
		Points:           points,
		Domain:           ComputeDomain(points, req.Field),
		BodyweightDomain: ComputeDomain(points, model.FieldBodyweight),
		StrengthDomain:   ComputeDomain(points, model.FieldOneRepMax),
		XTicks:           XTickKeys(start, req.Today, req.Window, req.Narrow),
		Rows:             filtered,
	}
}

// Bounds returns the date range a store query needs to serve req: from is
// zero (unbounded) for WindowAll, to is always req.Today. req must be
// normalized.
func (req Request) Bounds() (from, to calendar.Date) {
	if n, ok := req.Window.Days(); ok {
		from = req.Today.AddDays(-(n - 1))
	}
	return from, req.Today
}

// Normalized fills in the defaults Prepare applies.
func (req Request) Normalized() Request {
	if req.Window == "" {
		req.Window = Window30d
	}
	if req.Field == "" {
		req.Field = model.FieldBodyweight
	}
	if req.Today.IsZero() {
		req.Today = calendar.Today(nil)
	}
	return req
}

// InUnit returns a copy of p with points and weight domains converted into
// unit. Tick counts and dates are unchanged. Rows stay in pounds.
func (p Prepared) InUnit(unit units.Unit) Prepared {
	if unit == units.Pounds || unit == "" {
		return p
	}
	p.Points = units.PointsToDisplay(p.Points, unit)
	if p.Field.IsWeight() {
		p.Domain = p.Domain.inUnit(unit)
	}
	p.BodyweightDomain = p.BodyweightDomain.inUnit(unit)
	p.StrengthDomain = p.StrengthDomain.inUnit(unit)
	return p
}

func (d Domain) inUnit(unit units.Unit) Domain {
	d.Min = units.ToDisplay(d.Min, unit)
	d.Max = units.ToDisplay(d.Max, unit)
	return d
}
