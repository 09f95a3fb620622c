package series

import (
	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/derive"
	"github.com/derickschaefer/liftlog/internal/model"
)

// ─── Gap Filler ───────────────────────────────────────────────────────────────

// FillGaps returns one FilledPoint for every calendar day from start to today
// inclusive, in ascending order. Days with a row carry its values (with
// exerciseName's entry projected and its one-rep max derived); all other
// days carry nil fields.
//
// The result has DaysBetween(start, today)+1 points, or none when start is
// after today. Rows outside [start, today] are ignored. If two rows share a
// date the later one in rows wins.
func FillGaps(rows []model.LogRow, exerciseName string, start, today calendar.Date) []model.FilledPoint {
	n := calendar.DaysBetween(start, today) + 1
	if n <= 0 {
		return []model.FilledPoint{}
	}

	byDate := make(map[calendar.Date]model.LogRow, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	out := make([]model.FilledPoint, n)
	day := start
	for i := range out {
		if r, ok := byDate[day]; ok {
			out[i] = derive.Point(r, exerciseName)
		} else {
			out[i] = model.FilledPoint{Date: day}
		}
		day = day.AddDays(1)
	}
	return out
}
