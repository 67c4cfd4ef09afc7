// Package calendar holds the day-granularity date arithmetic shared by the
// ledger, the schedule engine, and the estimator. All values are midnight UTC.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of a calendar day.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day.
func Today() time.Time {
	return Day(time.Now())
}

// Date builds a calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Parse reads a YYYY-MM-DD day.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseFlexible accepts YYYY-MM-DD or RFC3339 and returns the calendar day.
func ParseFlexible(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC3339", s)
	}
	return Day(t), nil
}

// DaysIn returns the number of days in the month containing t.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns min(day, last day of t's month).
func ClampDay(t time.Time, day int) int {
	if last := DaysIn(t); day > last {
		return last
	}
	return day
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1)
}

// AddMonths shifts a month start by n months.
func AddMonths(monthStart time.Time, n int) time.Time {
	return Date(monthStart.Year(), monthStart.Month()+time.Month(n), 1)
}

// WeekOfMonth returns 1..5 for the seven-day block of the month containing t.
func WeekOfMonth(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// WeekBounds returns the first and last day numbers of week w in month m.
func WeekBounds(monthStart time.Time, w int) (first, last int) {
	first = (w-1)*7 + 1
	last = w * 7
	if days := DaysIn(monthStart); last > days {
		last = days
	}
	return first, last
}

// PatternRange turns a "YYYY", "YYYY-MM" or "YYYY-MM-DD" prefix into the
// half-open day range [from, to) it covers.
func PatternRange(pattern string) (from, to time.Time, err error) {
	pattern = strings.TrimSpace(pattern)
	switch len(pattern) {
	case 4:
		from, err = time.Parse("2006", pattern)
		if err == nil {
			to = from.AddDate(1, 0, 0)
		}
	case 7:
		from, err = time.Parse("2006-01", pattern)
		if err == nil {
			to = from.AddDate(0, 1, 0)
		}
	case 10:
		from, err = time.Parse(DateLayout, pattern)
		if err == nil {
			to = from.AddDate(0, 0, 1)
		}
	default:
		err = fmt.Errorf("invalid date pattern %q", pattern)
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date pattern %q, use YYYY, YYYY-MM or YYYY-MM-DD", pattern)
	}
	return from, to, nil
}
