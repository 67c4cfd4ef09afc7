// Package recurrence decides on which calendar days a recurring schedule fires.
//
// Each frequency has its own Matcher. The functions here are pure: they look
// only at the schedule and the day, never at the store.
package recurrence

import (
	"fmt"
	"time"

	"finledger/internal/calendar"
	"finledger/internal/models"
)

// Matcher reports whether a schedule's cadence selects the given day.
type Matcher interface {
	Matches(s *models.RecurringSchedule, day time.Time) bool
}

// DailyMatcher fires every day.
type DailyMatcher struct{}

// Matches always returns true.
func (DailyMatcher) Matches(_ *models.RecurringSchedule, _ time.Time) bool {
	return true
}

// WeeklyMatcher fires on the schedule's weekday, 0 being Sunday.
type WeeklyMatcher struct{}

// Matches compares the weekday of day against DayOfWeek.
func (WeeklyMatcher) Matches(s *models.RecurringSchedule, day time.Time) bool {
	if s.DayOfWeek == nil {
		return false
	}
	return int(day.Weekday()) == *s.DayOfWeek
}

// MonthlyMatcher fires on DayOfMonth, or on the last day of months that
// are too short for it.
type MonthlyMatcher struct{}

// Matches compares day against the clamped day of month.
func (MonthlyMatcher) Matches(s *models.RecurringSchedule, day time.Time) bool {
	if s.DayOfMonth == nil {
		return false
	}
	return day.Day() == calendar.ClampDay(day, *s.DayOfMonth)
}

var matchers = map[models.Frequency]Matcher{
	models.FrequencyDaily:   DailyMatcher{},
	models.FrequencyWeekly:  WeeklyMatcher{},
	models.FrequencyMonthly: MonthlyMatcher{},
}

// MatcherFor returns the matcher of a frequency.
func MatcherFor(f models.Frequency) (Matcher, error) {
	m, ok := matchers[f]
	if !ok {
		return nil, fmt.Errorf("unsupported frequency: %s", f)
	}
	return m, nil
}

// ShouldFire reports whether the schedule's cadence selects today. It does
// not look at activity, end date, occurrences, or the processed guard.
func ShouldFire(s *models.RecurringSchedule, today time.Time) bool {
	m, err := MatcherFor(s.Frequency)
	if err != nil {
		return false
	}
	return m.Matches(s, calendar.Day(today))
}

// Expired reports whether the schedule can never fire again as of today.
func Expired(s *models.RecurringSchedule, today time.Time) bool {
	if s.EndDate != nil && calendar.Day(today).After(calendar.Day(*s.EndDate)) {
		return true
	}
	return s.RemainingOccurrences != nil && *s.RemainingOccurrences <= 0
}

// ProcessedOn reports whether the schedule already fired on day.
func ProcessedOn(s *models.RecurringSchedule, day time.Time) bool {
	return s.LastProcessedDate != nil && calendar.SameDay(*s.LastProcessedDate, day)
}

// Due combines every rule: active, not expired, cadence matches, and not
// yet processed today.
func Due(s *models.RecurringSchedule, today time.Time) bool {
	return s.IsActive && !Expired(s, today) && ShouldFire(s, today) && !ProcessedOn(s, today)
}

// Occurrences counts the days in [from, to] on which the schedule would
// still fire, honoring end date, remaining occurrences, and a firing
// already recorded on from.
func Occurrences(s *models.RecurringSchedule, from, to time.Time) int {
	if !s.IsActive {
		return 0
	}
	m, err := MatcherFor(s.Frequency)
	if err != nil {
		return 0
	}

	from, to = calendar.Day(from), calendar.Day(to)
	if s.EndDate != nil && calendar.Day(*s.EndDate).Before(to) {
		to = calendar.Day(*s.EndDate)
	}

	limit := -1
	if s.RemainingOccurrences != nil {
		limit = *s.RemainingOccurrences
	}

	count := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if limit >= 0 && count >= limit {
			break
		}
		if !m.Matches(s, day) || ProcessedOn(s, day) {
			continue
		}
		count++
	}
	return count
}
