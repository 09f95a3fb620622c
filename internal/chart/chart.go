// Package chart renders prepared series as ASCII terminal charts.
// Two renderers are available:
//
//   - Plot: multi-line chart of one field of a series.Prepared, scaled to the
//     prepared Y domain and labelled with the prepared X ticks
//   - Bar: horizontal bar chart, one bar per value, for resampled totals
//
// Both treat absent values as gaps, never as zeros.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/transform"
	"github.com/derickschaefer/liftlog/internal/units"
)

// ─── Bar ─────────────────────────────────────────────────────────────────────

// BarOptions controls horizontal bar chart rendering.
type BarOptions struct {
	// Width is the total character width available for the chart.
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// MaxBars keeps only the last MaxBars values. If 0, no limit is applied.
	MaxBars int
}

// Bar renders a horizontal bar chart of vals to w, one bar per present value.
// Bars grow from zero, so values must be non-negative.
//
//	calories  weekly mean
//	2024-04-29  2180.0  ████████████████
//	2024-05-06  2410.5  ██████████████████
func Bar(w io.Writer, title string, vals []transform.Value, opts BarOptions) error {
	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}

	var valid []transform.Value
	for _, v := range vals {
		if v.Value != nil {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return fmt.Errorf("chart bar: no values to render")
	}
	if opts.MaxBars > 0 && len(valid) > opts.MaxBars {
		valid = valid[len(valid)-opts.MaxBars:]
	}

	maxVal := 0.0
	valWidth := 0
	for _, v := range valid {
		if *v.Value < 0 {
			return fmt.Errorf("chart bar: negative value %g on %s", *v.Value, v.Date)
		}
		maxVal = math.Max(maxVal, *v.Value)
		valWidth = max(valWidth, len(formatFloat(*v.Value)))
	}
	if maxVal == 0 {
		maxVal = 1
	}

	const dateWidth = len(calendar.Layout)
	barAreaWidth := max(totalWidth-dateWidth-valWidth-4, 4)

	fmt.Fprintf(w, "%s  %s – %s\n", title, valid[0].Date, valid[len(valid)-1].Date)
	for _, v := range valid {
		barLen := int(math.Round(*v.Value / maxVal * float64(barAreaWidth)))
		barLen = min(max(barLen, 1), barAreaWidth)
		fmt.Fprintf(w, "%-*s  %*s  %s\n",
			dateWidth, v.Date.Key(),
			valWidth, formatFloat(*v.Value),
			strings.Repeat("█", barLen),
		)
	}
	return nil
}

// ─── Plot ─────────────────────────────────────────────────────────────────────

// PlotOptions controls multi-line ASCII plot rendering.
type PlotOptions struct {
	// Width is the total character width of the chart (including Y-axis label).
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// Height is the number of data rows in the chart body. If 0, defaults to 12.
	Height int
	// Title overrides the default title (the field name).
	Title string
	// Unit converts weight fields for display. Empty means pounds.
	Unit units.Unit
}

// Plot renders field of p to w. The Y axis spans the prepared domain for
// field and the X axis is labelled at the prepared tick dates. When the
// domain is empty a placeholder line is printed instead of an axis.
func Plot(w io.Writer, p series.Prepared, field model.Field, opts PlotOptions) error {
	width := opts.Width
	if width <= 0 {
		width = termWidth()
	}
	height := opts.Height
	if height <= 0 {
		height = 12
	}
	title := opts.Title
	if title == "" {
		title = string(field)
		if p.Exercise != "" && field != model.FieldBodyweight && field != model.FieldCalories && field != model.FieldProtein {
			title = p.Exercise + " " + title
		}
	}

	domain := p.Domain
	if field != p.Field {
		domain = series.ComputeDomain(p.Points, field)
	}

	fmt.Fprintf(w, "%s  (%s to %s, %s)\n", title, p.Start, p.Today, p.Window)
	if domain.Empty || len(p.Points) == 0 {
		fmt.Fprintf(w, "  no %s data in this window\n", field)
		return nil
	}

	conv := func(v float64) float64 { return v }
	if field.IsWeight() && opts.Unit == units.Kilograms {
		conv = func(v float64) float64 { return units.ToDisplay(v, units.Kilograms) }
	}
	minVal, maxVal := conv(domain.Min), conv(domain.Max)

	ticks := series.TickValues(domain)
	yLabelWidth := 0
	for i, t := range ticks {
		ticks[i] = conv(t)
		yLabelWidth = max(yLabelWidth, len(formatFloat(ticks[i])))
	}
	plotWidth := max(width-yLabelWidth-2, 10)

	vals := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		if v, ok := field.Value(pt); ok {
			vals[i] = conv(v)
		} else {
			vals[i] = math.NaN()
		}
	}
	cols := sampleCols(vals, plotWidth)
	grid := buildGrid(cols, minVal, maxVal, height)

	labels := make([]string, height)
	for _, t := range ticks {
		row := int(math.Round(rowForValue(t, minVal, maxVal, height)))
		if row >= 0 && row < height && labels[row] == "" {
			labels[row] = formatFloat(t)
		}
	}

	for row := 0; row < height; row++ {
		axisCh := "┤"
		if labels[row] == "" {
			axisCh = "│"
		}
		fmt.Fprintf(w, "%*s%s%s\n", yLabelWidth, labels[row], axisCh, string(grid[row]))
	}
	fmt.Fprintf(w, "%s└%s\n", strings.Repeat(" ", yLabelWidth), strings.Repeat("─", plotWidth))
	fmt.Fprintf(w, "%s %s\n", strings.Repeat(" ", yLabelWidth), xAxisLabels(p, plotWidth))
	return nil
}

// ─── Grid building ────────────────────────────────────────────────────────────

// sampleCols reduces vals to exactly n columns. Each column holds the mean of
// its bucket, or NaN if the bucket has no values. With fewer values than
// columns, values are stretched across several columns.
func sampleCols(vals []float64, n int) []float64 {
	total := len(vals)
	cols := make([]float64, n)
	for col := 0; col < n; col++ {
		lo := col * total / n
		hi := max((col+1)*total/n-1, lo)
		hi = min(hi, total-1)
		sum, count := 0.0, 0
		for i := lo; i <= hi; i++ {
			if !math.IsNaN(vals[i]) {
				sum += vals[i]
				count++
			}
		}
		if count == 0 {
			cols[col] = math.NaN()
		} else {
			cols[col] = sum / float64(count)
		}
	}
	return cols
}

// rowForValue returns the float row index (0=top=max) for a given value.
func rowForValue(v, minVal, maxVal float64, height int) float64 {
	if maxVal == minVal {
		return float64(height) / 2
	}
	return (maxVal - v) / (maxVal - minVal) * float64(height-1)
}

// buildGrid renders columns into a height×width rune grid. Adjacent points
// are joined with box-drawing characters; NaN columns stay blank.
func buildGrid(cols []float64, minVal, maxVal float64, height int) [][]rune {
	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", len(cols)))
	}

	const gap = -1
	rowOf := make([]int, len(cols))
	for col, v := range cols {
		if math.IsNaN(v) {
			rowOf[col] = gap
			continue
		}
		r := int(math.Round(rowForValue(v, minVal, maxVal, height)))
		rowOf[col] = min(max(r, 0), height-1)
	}

	neighbour := func(col int) int {
		if col < 0 || col >= len(cols) {
			return gap
		}
		return rowOf[col]
	}

	for col, r := range rowOf {
		if r == gap {
			continue
		}
		prev, next := neighbour(col-1), neighbour(col+1)

		switch {
		case prev == gap && next == gap:
			grid[r][col] = '·'
		case (prev == gap || prev == r) && (next == gap || next == r):
			grid[r][col] = '─'
		case next != gap && next > r && (prev == gap || prev <= r):
			grid[r][col] = '╮'
		case next != gap && next < r && (prev == gap || prev >= r):
			grid[r][col] = '╯'
		case prev != gap && prev > r:
			grid[r][col] = '╭'
		case prev != gap && prev < r:
			grid[r][col] = '╰'
		default:
			grid[r][col] = '─'
		}

		// Vertical connector down/up to the previous column's row.
		if prev != gap && prev != r {
			lo, hi := min(r, prev), max(r, prev)
			for fill := lo + 1; fill < hi; fill++ {
				if grid[fill][col] == ' ' {
					grid[fill][col] = '│'
				}
			}
		}
	}
	return grid
}

// ─── Axis helpers ─────────────────────────────────────────────────────────────

// xAxisLabels places each prepared X tick (as MM-DD) under its column.
// Labels that would overlap the previous one are dropped.
func xAxisLabels(p series.Prepared, plotWidth int) string {
	buf := []rune(strings.Repeat(" ", plotWidth))
	total := len(p.Points)
	if total == 0 {
		return string(buf)
	}
	nextFree := 0
	for _, key := range p.XTicks {
		d, err := calendar.Parse(key)
		if err != nil {
			continue
		}
		idx := calendar.DaysBetween(p.Start, d)
		if idx < 0 || idx >= total {
			continue
		}
		label := key[5:]
		pos := idx * plotWidth / total
		if pos < nextFree || pos+len(label) > plotWidth {
			continue
		}
		copy(buf[pos:], []rune(label))
		nextFree = pos + len(label) + 1
	}
	return strings.TrimRight(string(buf), " ")
}

// ─── Utilities ────────────────────────────────────────────────────────────────

// formatFloat formats a value for axis labels with at most one decimal.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// termWidth returns the terminal width from $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}
