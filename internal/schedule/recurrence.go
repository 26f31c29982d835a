// Package schedule expands schedule records into per-date occurrences and
// derives the free time between them. Every function is pure: the target
// date and "now" are always passed in.
package schedule

import (
	"classcal/internal/model"
)

// Matches reports whether rec occurs on day.
//
//   - daily:         every day
//   - weekly:        rec.Day names day's weekday
//   - once, none:    rec.Date is day
//   - biweekly:      weekday matches, day is not before the anchor and the
//     number of whole weeks since the anchor is even
//   - monthly:       day is not before the anchor and shares its day-of-month
//
// Any other recurrence value never matches.
func Matches(rec model.ScheduleRecord, day model.Date) bool {
	switch rec.Recurrence.Normalize() {
	case model.RecurrenceDaily:
		return true

	case model.RecurrenceWeekly:
		return weekdayMatches(rec.Day, day)

	case model.RecurrenceOnce, model.RecurrenceNone:
		return !rec.Date.IsZero() && rec.Date == day

	case model.RecurrenceBiweekly:
		if rec.Date.IsZero() || !weekdayMatches(rec.Day, day) {
			return false
		}
		days := rec.Date.DaysUntil(day)
		if days < 0 {
			return false
		}
		return (days/7)%2 == 0

	case model.RecurrenceMonthly:
		if rec.Date.IsZero() || day.Before(rec.Date) {
			return false
		}
		return day.Day == rec.Date.Day
	}
	return false
}

func weekdayMatches(name string, day model.Date) bool {
	wd, ok := model.ParseWeekday(name)
	return ok && wd == day.Weekday()
}
