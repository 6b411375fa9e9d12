package scheduler

import (
	"context"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

//go:generate mockgen -source=coordinator.go -destination=coordinator_mock.go -package=scheduler

// Coordinator is the timer-facing surface used by the use case and delivery layers.
type Coordinator interface {
	Schedule(ctx context.Context, cfg *domain.ReminderConfig, overrideStartAt *time.Time) error
	ScheduleAfter(ctx context.Context, itemID int64, after time.Time) error
	ScheduleSnooze(ctx context.Context, itemID int64, minutes int) error
	Cancel(ctx context.Context, itemID int64) error
	RescheduleAll(ctx context.Context) (RescheduleResult, error)
}

var _ Coordinator = (*Service)(nil)
