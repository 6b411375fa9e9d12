package domain

import "errors"

var (
	ErrConfigNotFound       = errors.New("reminder config not found")
	ErrInvalidItemID        = errors.New("item id must be positive")
	ErrTitleRequired        = errors.New("title is required")
	ErrInvalidScheduleKind  = errors.New("invalid schedule kind")
	ErrInvalidRepeatKind    = errors.New("invalid repeat kind")
	ErrInvalidInterval      = errors.New("repeat interval minutes must be positive")
	ErrInvalidTimeZone      = errors.New("invalid time zone")
	ErrEndBeforeStart       = errors.New("end_at must not be before start_at")
	ErrInvalidAction        = errors.New("invalid action")
	ErrUnknownAction        = errors.New("unknown action kind")
	ErrInvalidSnoozeMinutes = errors.New("snooze minutes must be positive")
)
