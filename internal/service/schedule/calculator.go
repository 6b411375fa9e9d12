package schedule

import (
	"iter"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

// occurrenceStep separates consecutive occurrences when a sequence is walked.
// The interval rule returns its start instant when asked from exactly that
// instant, so the next lookup must begin strictly after the previous result.
const occurrenceStep = time.Millisecond

// Calculator computes reminder firing instants. It holds no mutable state and
// is safe for concurrent use.
type Calculator struct {
	defaultLocation *time.Location
}

// NewCalculator returns a Calculator that falls back to defaultLocation when a
// config carries a missing or unknown time zone. A nil location means time.Local.
func NewCalculator(defaultLocation *time.Location) *Calculator {
	if defaultLocation == nil {
		defaultLocation = time.Local
	}
	return &Calculator{
		defaultLocation: defaultLocation,
	}
}

// NextTrigger returns the earliest instant strictly after from that satisfies
// the rule of cfg and is not after cfg.EndAt. The second result is false when
// no such instant exists.
func (c *Calculator) NextTrigger(cfg *domain.ReminderConfig, from time.Time) (time.Time, bool) {
	if cfg == nil {
		return time.Time{}, false
	}

	candidate, ok := c.candidate(cfg, from)
	if !ok {
		return time.Time{}, false
	}

	if cfg.EndAt != nil && candidate.After(*cfg.EndAt) {
		return time.Time{}, false
	}

	return candidate, true
}

func (c *Calculator) candidate(cfg *domain.ReminderConfig, from time.Time) (time.Time, bool) {
	if cfg.ScheduleKind != domain.ScheduleRepeating || cfg.RepeatKind == domain.RepeatNone {
		return afterOnly(cfg.StartAt, from)
	}

	switch {
	case cfg.RepeatKind == domain.RepeatInterval:
		return nextByInterval(cfg.StartAt, cfg.Interval(), from)
	case cfg.RepeatKind.IsCalendar():
		start := cfg.StartAt.In(c.Location(cfg.TimeZone))
		return nextByCalendar(start, cfg.RepeatKind, from), true
	default:
		return afterOnly(cfg.StartAt, from)
	}
}

// Location resolves a zone identifier, falling back to the default location.
func (c *Calculator) Location(timeZone string) *time.Location {
	if timeZone == "" {
		return c.defaultLocation
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return c.defaultLocation
	}
	return loc
}

// DefaultLocation is the zone used for configs without a valid time zone.
func (c *Calculator) DefaultLocation() *time.Location {
	return c.defaultLocation
}

// NextAfterOccurrence returns the occurrence following occurrence, stepping
// past it the same way Occurrences does.
func (c *Calculator) NextAfterOccurrence(cfg *domain.ReminderConfig, occurrence time.Time) (time.Time, bool) {
	return c.NextTrigger(cfg, occurrence.Add(occurrenceStep))
}

// Occurrences lazily yields the firing instants of cfg after from in strictly
// ascending order. A one-time rule yields at most one instant.
func (c *Calculator) Occurrences(cfg *domain.ReminderConfig, from time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		cursor := from
		for {
			next, ok := c.NextTrigger(cfg, cursor)
			if !ok || !yield(next) {
				return
			}
			if cfg.IsOneShot() {
				return
			}
			cursor = next.Add(occurrenceStep)
		}
	}
}

// UpcomingOccurrences returns up to limit instants of Occurrences.
func (c *Calculator) UpcomingOccurrences(cfg *domain.ReminderConfig, from time.Time, limit int) []time.Time {
	if limit <= 0 {
		return []time.Time{}
	}

	result := make([]time.Time, 0, min(limit, 16))
	for at := range c.Occurrences(cfg, from) {
		result = append(result, at)
		if len(result) >= limit {
			break
		}
	}
	return result
}

func afterOnly(at, from time.Time) (time.Time, bool) {
	if at.After(from) {
		return at, true
	}
	return time.Time{}, false
}

func nextByInterval(start time.Time, interval time.Duration, from time.Time) (time.Time, bool) {
	if interval <= 0 {
		return time.Time{}, false
	}
	if !from.After(start) {
		return start, true
	}

	steps := from.Sub(start)/interval + 1
	return start.Add(steps * interval), true
}
