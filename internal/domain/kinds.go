package domain

// ScheduleKind tells whether a reminder fires once or follows a repeat rule.
type ScheduleKind string

const (
	ScheduleOneTime   ScheduleKind = "one_time"
	ScheduleRepeating ScheduleKind = "repeating"
)

func (k ScheduleKind) String() string {
	return string(k)
}

func (k ScheduleKind) IsValid() bool {
	return k == ScheduleOneTime || k == ScheduleRepeating
}

// ParseScheduleKind decodes a stored value. Unknown values decode to one-time.
func ParseScheduleKind(s string) ScheduleKind {
	k := ScheduleKind(s)
	if !k.IsValid() {
		return ScheduleOneTime
	}
	return k
}

// RepeatKind is the calendar or fixed-interval unit of a repeating reminder.
type RepeatKind string

const (
	RepeatNone     RepeatKind = "none"
	RepeatDaily    RepeatKind = "daily"
	RepeatWeekly   RepeatKind = "weekly"
	RepeatMonthly  RepeatKind = "monthly"
	RepeatInterval RepeatKind = "interval"
)

func (k RepeatKind) String() string {
	return string(k)
}

func (k RepeatKind) IsValid() bool {
	switch k {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatInterval:
		return true
	default:
		return false
	}
}

// IsCalendar reports whether the unit is added with zone-aware calendar arithmetic.
func (k RepeatKind) IsCalendar() bool {
	return k == RepeatDaily || k == RepeatWeekly || k == RepeatMonthly
}

// ParseRepeatKind decodes a stored value. Unknown values decode to none.
func ParseRepeatKind(s string) RepeatKind {
	k := RepeatKind(s)
	if !k.IsValid() {
		return RepeatNone
	}
	return k
}

type ActionKind string

const (
	ActionOpenItem ActionKind = "open_item"
	ActionMarkDone ActionKind = "mark_done"
	ActionSnooze   ActionKind = "snooze"
)

func (k ActionKind) String() string {
	return string(k)
}

func (k ActionKind) IsValid() bool {
	return k == ActionOpenItem || k == ActionMarkDone || k == ActionSnooze
}
