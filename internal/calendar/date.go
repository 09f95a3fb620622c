// Package calendar provides a day-granularity calendar date value.
//
// A Date carries only year, month and day. All arithmetic works on a
// proleptic Gregorian day number, so adding days never passes through a
// timezone-aware time.Time and cannot drift across DST transitions.
// Conversion from an instant happens exactly once, in FromTime, against an
// explicit reference location.
package calendar

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the canonical text form of a Date.
const Layout = "2006-01-02"

// Now is the clock used by Today. Tests replace it to pin "today".
var Now = time.Now

// Date is a calendar date with no time-of-day and no location.
// The zero value is not a valid date; see IsZero.
// Dates are comparable and may be used as map keys.
type Date struct {
	year  int
	month time.Month
	day   int
}

// New returns the date for y-m-d. Out-of-range months and days are
// normalised the same way time.Date does (January 32 is February 1).
func New(year int, month time.Month, day int) Date {
	m := int(month) - 1
	year += floorDiv(m, 12)
	m = floorMod(m, 12) + 1
	return fromDayNumber(dayNumber(year, m, 1) + int64(day-1))
}

// FromTime extracts the calendar date of t as observed in loc.
// A nil loc means UTC.
func FromTime(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Date{year: y, month: m, day: d}
}

// Today returns the current date in loc.
func Today(loc *time.Location) Date {
	return FromTime(Now(), loc)
}

// Parse reads a YYYY-MM-DD string by explicit field extraction.
func Parse(s string) (Date, error) {
	bad := fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, bad
	}
	y, ok1 := digits(s[0:4])
	m, ok2 := digits(s[5:7])
	d, ok3 := digits(s[8:10])
	if !ok1 || !ok2 || !ok3 {
		return Date{}, bad
	}
	if m < 1 || m > 12 || d < 1 || d > daysIn(y, m) {
		return Date{}, bad
	}
	return Date{year: y, month: time.Month(m), day: d}, nil
}

// MustParse is Parse for constants and tests. It panics on bad input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Year() int { return d.year }
func (d Date) Month() time.Month { return d.month }
func (d Date) Day() int { return d.day }
func (d Date) IsZero() bool { return d == Date{} }
func (d Date) Equal(o Date) bool { return d == o }
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Compare returns -1, 0 or +1 as d is before, equal to, or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return sign(d.year - o.year)
	case d.month != o.month:
		return sign(int(d.month) - int(o.month))
	default:
		return sign(d.day - o.day)
	}
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return fromDayNumber(d.number() + int64(n))
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	// 1970-01-01 was a Thursday.
	return time.Weekday(floorMod64(d.number()+4, 7))
}

// Key returns the YYYY-MM-DD form used for lookups and on the wire.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

func (d Date) String() string { return d.Key() }

// Time returns midnight of d in loc. Only for display and interop;
// never use the result for day arithmetic.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// DaysBetween returns b - a in whole days.
func DaysBetween(a, b Date) int {
	return int(b.number() - a.number())
}

// MarshalJSON encodes d as "YYYY-MM-DD", or null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Key())
}

// UnmarshalJSON decodes "YYYY-MM-DD". null leaves d as the zero date.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText lets Date act as a JSON map key.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Key()), nil
}

// ─── Day-number arithmetic ────────────────────────────────────────────────────

func (d Date) number() int64 {
	return dayNumber(d.year, int(d.month), d.day)
}

// dayNumber returns days since 1970-01-01 for a proleptic Gregorian date.
// Algorithm from H. Hinnant, "chrono-Compatible Low-Level Date Algorithms".
func dayNumber(y, m, d int) int64 {
	if m <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	mp := (m + 9) % 12
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return int64(era)*146097 + int64(doe) - 719468
}

func fromDayNumber(z int64) Date {
	z += 719468
	era := z / 146097
	if z < 0 && z%146097 != 0 {
		era--
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	if m <= 2 {
		y++
	}
	return Date{year: int(y), month: time.Month(m), day: int(d)}
}

func daysIn(y, m int) int {
	switch m {
	case 2:
		if y%4 == 0 && (y%100 != 0 || y%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func digits(s string) (int, bool) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

func floorMod64(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
