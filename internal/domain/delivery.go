package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=delivery.go -destination=delivery_mock.go -package=domain

// Notification is what a presenter shows for one delivered occurrence.
type Notification struct {
	ItemID      int64
	Title       string
	Body        string
	ScheduledAt time.Time
	Snoozed     bool
	// Actions holds at most MaxSurfacedActions entries.
	Actions []Action
}

type Presenter interface {
	Present(ctx context.Context, n Notification) error
}

type DeliveryOutcome string

const (
	OutcomePresented     DeliveryOutcome = "presented"
	OutcomePresentFailed DeliveryOutcome = "present_failed"
	OutcomeStale         DeliveryOutcome = "stale"
	OutcomeMissing       DeliveryOutcome = "missing"
	OutcomeDisabled      DeliveryOutcome = "disabled"
)

type DeliveryRecord struct {
	ItemID      int64
	Kind        string
	Outcome     DeliveryOutcome
	ScheduledAt time.Time
	DeliveredAt time.Time
}

// Lateness is how long after its scheduled instant the occurrence was delivered.
func (r DeliveryRecord) Lateness() time.Duration {
	return max(r.DeliveredAt.Sub(r.ScheduledAt), 0)
}

type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, record DeliveryRecord) error
	Close() error
}
