package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/app"
	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
	"github.com/derickschaefer/liftlog/internal/render"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/store"
)

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// outputWriter returns stdout, or the --out file when one is set. The
// returned close func is always safe to call.
func outputWriter(stdout io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// newResult wraps data in a Result envelope stamped with the display unit.
func newResult(deps *app.Deps, kind, command string, data interface{}, items int) *model.Result {
	return &model.Result{
		Kind:        kind,
		GeneratedAt: time.Now(),
		Command:     command,
		Unit:        string(deps.Config.Unit),
		Data:        data,
		Stats:       model.ResultStats{Items: items},
	}
}

// emit renders result to stdout (or --out) and prints the footer to stderr.
func emit(cmd *cobra.Command, deps *app.Deps, result *model.Result, started time.Time) error {
	if result.Stats.DurationMs == 0 {
		result.Stats.DurationMs = time.Since(started).Milliseconds()
	}
	w, closeFn, err := outputWriter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := render.Render(w, result, resolveFormat(deps.Config.Format)); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if !deps.Config.Quiet {
		render.PrintFooter(cmd.ErrOrStderr(), result, deps.Config.Verbose)
	}
	return nil
}

// say prints a confirmation line unless --quiet is set.
func say(cmd *cobra.Command, format string, args ...interface{}) {
	if globalFlags.Quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

// printKVTable renders a two-column key/value listing with aligned keys.
func printKVTable(w io.Writer, rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Fprintf(w, "  %s%s  %s\n", r[0], padding, r[1])
	}
}

func humanBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// ─── Dates ────────────────────────────────────────────────────────────────────

// parseDay resolves a date argument: YYYY-MM-DD, "today", "yesterday", or
// empty for today in the configured timezone.
func parseDay(deps *app.Deps, s string) (calendar.Date, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "today" || s == "yesterday" {
		today, err := deps.Today()
		if err != nil {
			return calendar.Date{}, err
		}
		if s == "yesterday" {
			return today.AddDays(-1), nil
		}
		return today, nil
	}
	return calendar.Parse(s)
}

// ─── Series flags ─────────────────────────────────────────────────────────────

// seriesFlags are the selection flags shared by series, chart and analyze.
type seriesFlags struct {
	window   string
	exercise string
	field    string
	narrow   bool
}

func (f *seriesFlags) bind(c *cobra.Command, defaultField string) {
	c.Flags().StringVar(&f.window, "window", "",
		"time window: 7d|30d|90d|180d|365d|all (default: config default_window)")
	c.Flags().StringVar(&f.exercise, "exercise", "", "exercise to project (case-insensitive)")
	c.Flags().StringVar(&f.field, "field", defaultField,
		"field: bodyweight|calories|protein|weight|reps|e1rm")
	c.Flags().BoolVar(&f.narrow, "narrow", false, "use the narrow-screen X tick schedule")
	_ = c.RegisterFlagCompletionFunc("exercise", completeExercises)
}

// request builds a normalized series.Request from the flags and config.
func (f *seriesFlags) request(deps *app.Deps) (series.Request, error) {
	today, err := deps.Today()
	if err != nil {
		return series.Request{}, err
	}
	req := series.Request{
		Exercise: canonicalExercise(deps, f.exercise),
		Narrow:   f.narrow || deps.Config.Narrow,
		Today:    today,
	}
	window := f.window
	if window == "" {
		window = deps.Config.Window
	}
	if window != "" {
		if req.Window, err = series.ParseWindow(window); err != nil {
			return req, err
		}
	}
	if f.field != "" {
		if req.Field, err = model.ParseField(f.field); err != nil {
			return req, err
		}
	}
	return req.Normalized(), nil
}

// canonicalExercise returns the catalog spelling of name when the catalog
// has it, otherwise name trimmed.
func canonicalExercise(deps *app.Deps, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || deps.Store == nil {
		return name
	}
	if ex, err := deps.Store.FindExercise(deps.Config.User, name); err == nil {
		return ex.Name
	}
	return name
}

// ensureExercise adds name to the catalog if it is not there yet.
func ensureExercise(deps *app.Deps, name string) error {
	if _, err := deps.Store.FindExercise(deps.Config.User, name); err == nil {
		return nil
	}
	_, err := deps.Store.PutExercise(deps.Config.User, model.Exercise{Name: name})
	if err != nil && !errors.Is(err, store.ErrExists) {
		return err
	}
	return nil
}
