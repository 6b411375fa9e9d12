package schedule

import (
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

// nextByCalendar returns start advanced by the smallest number of calendar
// units that lands strictly after from. Monthly occurrences step one month at
// a time from the previous occurrence, so a day clamped on a short month stays
// clamped afterwards (Jan 31, Feb 29, Mar 29).
func nextByCalendar(start time.Time, unit domain.RepeatKind, from time.Time) time.Time {
	if start.After(from) {
		return start
	}

	n := skipUnits(start, from.In(start.Location()), unit)
	for {
		candidate := addUnits(start, unit, n)
		if candidate.After(from) {
			return candidate
		}
		n++
	}
}

// skipUnits counts whole calendar units between the civil dates of start and
// from, minus one, so the candidate it selects is never after from.
func skipUnits(start, from time.Time, unit domain.RepeatKind) int {
	var n int
	switch unit {
	case domain.RepeatDaily:
		n = civilDays(from) - civilDays(start) - 1
	case domain.RepeatWeekly:
		n = (civilDays(from)-civilDays(start))/7 - 1
	default:
		n = (from.Year()-start.Year())*12 + int(from.Month()) - int(start.Month()) - 1
	}

	if n < 0 {
		return 0
	}
	return n
}

func civilDays(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func addUnits(start time.Time, unit domain.RepeatKind, n int) time.Time {
	switch unit {
	case domain.RepeatDaily:
		return start.AddDate(0, 0, n)
	case domain.RepeatWeekly:
		return start.AddDate(0, 0, 7*n)
	default:
		return stepMonths(start, n)
	}
}

// stepMonths applies n single-month steps to t keeping the wall clock. Each
// step clamps the day to the last day of its month and the clamped day is
// carried into the next step.
func stepMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	loc := t.Location()

	for range n {
		month++
		if month > time.December {
			month = time.January
			year++
		}
		day = min(day, daysIn(year, month))
	}

	return time.Date(year, month, day, hour, minute, sec, t.Nanosecond(), loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
