package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxSurfacedActions is the number of actions shown with a delivered reminder.
const MaxSurfacedActions = 3

type Action struct {
	Label   string
	Kind    ActionKind
	Payload string
}

// ReminderConfig is the reminder rule attached to one counter item.
type ReminderConfig struct {
	ItemID                int64
	Enabled               bool
	Title                 string
	Body                  string
	ScheduleKind          ScheduleKind
	StartAt               time.Time
	TimeZone              string
	RepeatKind            RepeatKind
	RepeatIntervalMinutes *int
	EndAt                 *time.Time
	Actions               []Action
}

// NewDefaultConfig builds the config used when a reminder is enabled for an
// item that has none yet: a single firing one hour from now.
func NewDefaultConfig(itemID int64, itemTitle, timeZone string, now time.Time) *ReminderConfig {
	return &ReminderConfig{
		ItemID:       itemID,
		Enabled:      false,
		Title:        itemTitle,
		ScheduleKind: ScheduleOneTime,
		StartAt:      now.Add(time.Hour),
		TimeZone:     timeZone,
		RepeatKind:   RepeatNone,
	}
}

// Clone returns a deep copy so callers can modify it without touching the original.
func (c *ReminderConfig) Clone() *ReminderConfig {
	out := *c
	if c.RepeatIntervalMinutes != nil {
		v := *c.RepeatIntervalMinutes
		out.RepeatIntervalMinutes = &v
	}
	if c.EndAt != nil {
		v := *c.EndAt
		out.EndAt = &v
	}
	if c.Actions != nil {
		out.Actions = append([]Action(nil), c.Actions...)
	}
	return &out
}

// Interval returns the repeat interval, or zero when it is missing or not positive.
func (c *ReminderConfig) Interval() time.Duration {
	if c.RepeatIntervalMinutes == nil || *c.RepeatIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(*c.RepeatIntervalMinutes) * time.Minute
}

func (c *ReminderConfig) IsOneShot() bool {
	return c.ScheduleKind == ScheduleOneTime || c.RepeatKind == RepeatNone
}

func (c *ReminderConfig) SurfacedActions() []Action {
	if len(c.Actions) <= MaxSurfacedActions {
		return c.Actions
	}
	return c.Actions[:MaxSurfacedActions]
}

// Validate checks input accepted from API callers. Schedule computation never
// calls it; a malformed config there degrades to a fallback zone or no trigger.
func (c *ReminderConfig) Validate() error {
	var errs []error

	if c.ItemID <= 0 {
		errs = append(errs, ErrInvalidItemID)
	}
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, ErrTitleRequired)
	}
	if !c.ScheduleKind.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidScheduleKind, c.ScheduleKind))
	}
	if !c.RepeatKind.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidRepeatKind, c.RepeatKind))
	}
	if c.ScheduleKind == ScheduleRepeating && c.RepeatKind == RepeatInterval && c.Interval() == 0 {
		errs = append(errs, ErrInvalidInterval)
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidTimeZone, c.TimeZone))
		}
	}
	if c.EndAt != nil && c.EndAt.Before(c.StartAt) {
		errs = append(errs, ErrEndBeforeStart)
	}
	for i, a := range c.Actions {
		if !a.Kind.IsValid() || strings.TrimSpace(a.Label) == "" {
			errs = append(errs, fmt.Errorf("%w at index %d", ErrInvalidAction, i))
		}
	}

	return errors.Join(errs...)
}

// Occurrence is one derived firing shown in the upcoming feed.
type Occurrence struct {
	ItemID      int64
	ScheduledAt time.Time
	Title       string
	Body        string
}

func NewOccurrence(cfg *ReminderConfig, at time.Time) Occurrence {
	return Occurrence{
		ItemID:      cfg.ItemID,
		ScheduledAt: at,
		Title:       cfg.Title,
		Body:        cfg.Body,
	}
}
