// Package render converts Result values into human-readable or machine-parseable
// output. Every kind is first reduced to a grid of cells; the table, csv, tsv,
// md and html writers all draw from that grid. JSON and JSONL encode the data
// directly. Weights are converted into Result.Unit before any format runs.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/derickschaefer/liftlog/internal/analyze"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/units"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
	FormatHTML  = "html"
)

// Formats lists every supported format.
var Formats = []string{FormatTable, FormatJSON, FormatJSONL, FormatCSV, FormatTSV, FormatMD, FormatHTML}

// ValidFormat reports whether f is a supported format name.
func ValidFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// mdRenderer turns insight prose into HTML. Raw HTML in the message is
// escaped because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	result = Display(result)
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	case FormatHTML:
		return renderHTML(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── Unit conversion ──────────────────────────────────────────────────────────

// Display returns a copy of result whose weights are expressed in
// result.Unit. A result without a unit, or in pounds, is returned as is.
func Display(result *model.Result) *model.Result {
	unit := units.Unit(result.Unit)
	if unit == "" || unit == units.Pounds {
		return result
	}
	out := *result
	switch d := result.Data.(type) {
	case []model.LogRow:
		out.Data = units.RowsToDisplay(d, unit)
	case model.LogRow:
		out.Data = units.RowToDisplay(d, unit)
	case series.Prepared:
		out.Data = d.InUnit(unit)
	case []model.FilledPoint:
		out.Data = units.PointsToDisplay(d, unit)
	case model.Goals:
		out.Data = units.GoalsToDisplay(d, unit)
	case model.Template:
		out.Data = units.TemplateToDisplay(d, unit)
	case []model.Template:
		tpls := make([]model.Template, len(d))
		for i, t := range d {
			tpls[i] = units.TemplateToDisplay(t, unit)
		}
		out.Data = tpls
	case []analyze.Summary:
		sums := make([]analyze.Summary, len(d))
		for i, s := range d {
			sums[i] = summaryInUnit(s, unit)
		}
		out.Data = sums
	case []analyze.TrendResult:
		trends := make([]analyze.TrendResult, len(d))
		for i, tr := range d {
			trends[i] = trendInUnit(tr, unit)
		}
		out.Data = trends
	}
	return &out
}

func labelIsWeight(label string) bool {
	f, err := model.ParseField(label)
	return err == nil && f.IsWeight()
}

func summaryInUnit(s analyze.Summary, unit units.Unit) analyze.Summary {
	if !labelIsWeight(s.Label) {
		return s
	}
	for _, p := range []**float64{&s.Mean, &s.Std, &s.Min, &s.P25, &s.Median, &s.P75, &s.Max, &s.First, &s.Last, &s.Change} {
		*p = units.ToDisplayPtr(*p, unit)
	}
	return s
}

func trendInUnit(tr analyze.TrendResult, unit units.Unit) analyze.TrendResult {
	if !labelIsWeight(tr.Label) || unit != units.Kilograms {
		return tr
	}
	tr.Slope *= units.KgPerLb
	tr.SlopePerWeek *= units.KgPerLb
	tr.Intercept = units.ToDisplay(tr.Intercept, unit)
	return tr
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL writes one record per line: filled points for a series, and
// the elements of any list payload. Other payloads become a single line.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch d := result.Data.(type) {
	case series.Prepared:
		return encodeEach(enc, d.Points)
	case []model.LogRow:
		return encodeEach(enc, d)
	case []model.Exercise:
		return encodeEach(enc, d)
	case []model.Template:
		return encodeEach(enc, d)
	case []analyze.Summary:
		return encodeEach(enc, d)
	case []analyze.TrendResult:
		return encodeEach(enc, d)
	case model.Table:
		for _, row := range d.Rows {
			rec := make(map[string]string, len(d.Columns))
			for i, c := range d.Columns {
				if i < len(row) {
					rec[c] = row[i]
				}
			}
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(result.Data)
	}
}

func encodeEach[T any](enc *json.Encoder, items []T) error {
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	if rep, ok := result.Data.(model.InsightReport); ok {
		fmt.Fprintf(w, "%s  (%s, %s)\n\n%s\n", rep.Exercise, rep.Window, rep.Source, strings.TrimSpace(rep.Message))
		return nil
	}
	g, err := tabulate(result)
	if err != nil {
		return err
	}
	if g == nil {
		return renderJSON(w, result)
	}
	if g.caption != "" {
		fmt.Fprintln(w, g.caption)
	}

	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader(g.titles())
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetColumnAlignment(g.alignments())
	tw.SetAutoWrapText(false)
	for _, row := range g.rows {
		tw.Append(row)
	}
	tw.Render()
	return nil
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	g, err := tabulate(result)
	if err != nil {
		return err
	}
	if g == nil {
		// Fallback: serialize as JSON on a single line
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	} else {
		_ = cw.Write(g.keys())
		for _, row := range g.rows {
			_ = cw.Write(row)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	if rep, ok := result.Data.(model.InsightReport); ok {
		fmt.Fprintf(w, "## %s (%s)\n\n%s\n", rep.Exercise, rep.Window, strings.TrimSpace(rep.Message))
		return nil
	}
	g, err := tabulate(result)
	if err != nil {
		return err
	}
	if g == nil {
		return renderJSON(w, result)
	}
	titles := g.titles()
	seps := make([]string, len(titles))
	for i, t := range titles {
		titles[i] = mdEscape(t)
		seps[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n|%s|\n", strings.Join(titles, " | "), strings.Join(seps, "|"))
	for _, row := range g.rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = mdEscape(c)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

// ─── HTML ─────────────────────────────────────────────────────────────────────

func renderHTML(w io.Writer, result *model.Result) error {
	if rep, ok := result.Data.(model.InsightReport); ok {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(rep.Message), &buf); err != nil {
			return fmt.Errorf("rendering insight: %w", err)
		}
		fmt.Fprintf(w, "<section class=\"insight\">\n<h2>%s <small>%s</small></h2>\n%s</section>\n",
			html.EscapeString(rep.Exercise), html.EscapeString(rep.Window), buf.String())
		return nil
	}
	g, err := tabulate(result)
	if err != nil {
		return err
	}
	if g == nil {
		fmt.Fprint(w, "<pre>")
		b, _ := json.MarshalIndent(result.Data, "", "  ")
		fmt.Fprint(w, html.EscapeString(string(b)))
		fmt.Fprintln(w, "</pre>")
		return nil
	}
	fmt.Fprintln(w, "<table>")
	fmt.Fprint(w, "<thead><tr>")
	for _, t := range g.titles() {
		fmt.Fprintf(w, "<th>%s</th>", html.EscapeString(t))
	}
	fmt.Fprintln(w, "</tr></thead>")
	fmt.Fprintln(w, "<tbody>")
	for _, row := range g.rows {
		fmt.Fprint(w, "<tr>")
		for _, c := range row {
			fmt.Fprintf(w, "<td>%s</td>", html.EscapeString(c))
		}
		fmt.Fprintln(w, "</tr>")
	}
	fmt.Fprintln(w, "</tbody>")
	fmt.Fprintln(w, "</table>")
	return nil
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		src := "computed"
		if result.Stats.CacheHit {
			src = "cache"
		}
		fmt.Fprintf(w, "\n[%s • %d items • %dms • %s]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
			src,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// formatValue formats a measurement for display. Whole numbers print
// without decimals, others with at most two (181.25, 99.8). Missing values
// render as "-".
func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(math.Round(*v*100)/100, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
