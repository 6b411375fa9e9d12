package timer

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

//go:generate mockgen -source=timer.go -destination=mock.go -package=timer

// NamePrefix is prepended to the item id to form the timer name, so repeated
// installs for one item replace each other.
const NamePrefix = "reminder_notification_"

var (
	ErrTimeout     = errors.New("timer service call timed out")
	ErrInvalidName = errors.New("invalid timer name")
)

type FireKind string

const (
	FireScheduled FireKind = "scheduled"
	FireSnooze    FireKind = "snooze"
)

// Payload is handed back to the delivery handler when a timer fires.
type Payload struct {
	ItemID      int64     `json:"item_id"`
	Kind        FireKind  `json:"kind"`
	ScheduledAt time.Time `json:"scheduled_at"`
	// Token identifies the timer generation that produced the firing.
	Token string `json:"token,omitempty"`
}

// Service keeps at most one pending one-shot timer per name.
type Service interface {
	// InstallOrReplace arms a timer that fires after delay, superseding any
	// pending timer with the same name.
	InstallOrReplace(ctx context.Context, name string, delay time.Duration, payload Payload) error
	// Cancel removes the pending timer for name. It is a no-op when none exists.
	Cancel(ctx context.Context, name string) error
	// Claim reports whether token belongs to the current timer of name and
	// consumes it. Firings of superseded or cancelled timers return false.
	Claim(ctx context.Context, name, token string) (bool, error)
}

func Name(itemID int64) string {
	return NamePrefix + strconv.FormatInt(itemID, 10)
}

func ParseName(name string) (int64, error) {
	raw, ok := strings.CutPrefix(name, NamePrefix)
	if !ok {
		return 0, ErrInvalidName
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidName
	}
	return id, nil
}

// IsRetryable reports whether a failed timer call may succeed when repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
