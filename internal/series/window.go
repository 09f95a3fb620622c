// Package series turns stored log rows into chart-ready daily series.
//
// The pipeline runs in three pure stages:
//
//   - SelectRange picks the window's start date and the rows inside it
//   - FillGaps emits exactly one FilledPoint per calendar day
//   - ComputeDomain and ComputeXTicks derive axis bounds and tick dates
//
// Prepare chains the stages. Nothing here performs I/O, holds state between
// calls, or returns an error: empty input yields empty series and default
// axes.
package series

import (
	"fmt"
	"sort"
	"strings"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
)

// Window is a requested chart range ending today.
type Window string

const (
	Window7d   Window = "7d"
	Window30d  Window = "30d"
	Window90d  Window = "90d"
	Window180d Window = "180d"
	Window365d Window = "365d"
	WindowAll  Window = "all"
)

// Windows lists every supported window, shortest first.
var Windows = []Window{Window7d, Window30d, Window90d, Window180d, Window365d, WindowAll}

var windowDays = map[Window]int{
	Window7d:   7,
	Window30d:  30,
	Window90d:  90,
	Window180d: 180,
	Window365d: 365,
}

// ParseWindow resolves a window name such as "30d" or "all".
func ParseWindow(s string) (Window, error) {
	w := Window(strings.ToLower(strings.TrimSpace(s)))
	if w == WindowAll {
		return w, nil
	}
	if _, ok := windowDays[w]; ok {
		return w, nil
	}
	return "", fmt.Errorf("unknown window %q (use 7d|30d|90d|180d|365d|all)", s)
}

// Days returns the window length. ok is false for WindowAll.
func (w Window) Days() (int, bool) {
	n, ok := windowDays[w]
	return n, ok
}

// ─── Range Selector ───────────────────────────────────────────────────────────

// SelectRange computes the window's first day and returns the rows dated on
// or after it, sorted ascending. For an N-day window the start is
// today-(N-1). For WindowAll it is the earliest row's date, or today when
// rows is empty. Rows are assumed not to be future-dated, so no upper bound
// is applied here. The input slice is never modified.
func SelectRange(rows []model.LogRow, window Window, today calendar.Date) (calendar.Date, []model.LogRow) {
	start := today
	if n, ok := window.Days(); ok {
		start = today.AddDays(-(n - 1))
	} else {
		for i, r := range rows {
			if i == 0 || r.Date.Before(start) {
				start = r.Date
			}
		}
	}

	filtered := make([]model.LogRow, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(start) {
			filtered = append(filtered, r)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Date.Before(filtered[j].Date) })
	return start, filtered
}
