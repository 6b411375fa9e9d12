package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	reminderMeterName = "reminder.scheduler"
)

type ReminderMetrics struct {
	timerOperations       metric.Int64Counter
	deliveries            metric.Int64Counter
	actions               metric.Int64Counter
	rescheduleAllDuration metric.Float64Histogram
	rescheduleAllItems    metric.Int64Counter
	upcomingDuration      metric.Float64Histogram
}

func NewReminderMetrics() (*ReminderMetrics, error) {
	meter := otel.Meter(reminderMeterName)

	timerOperations, err := meter.Int64Counter(
		"reminder_timer_operations_total",
		metric.WithDescription("Timer installs and cancellations by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter(
		"reminder_deliveries_total",
		metric.WithDescription("Timer firings handled by the delivery handler"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, err
	}

	actions, err := meter.Int64Counter(
		"reminder_actions_total",
		metric.WithDescription("Reminder actions invoked by users"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, err
	}

	rescheduleAllDuration, err := meter.Float64Histogram(
		"reminder_reschedule_all_duration_seconds",
		metric.WithDescription("Duration of a reschedule-all pass"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
		),
	)
	if err != nil {
		return nil, err
	}

	rescheduleAllItems, err := meter.Int64Counter(
		"reminder_reschedule_all_items_total",
		metric.WithDescription("Configs processed by reschedule-all passes"),
		metric.WithUnit("{config}"),
	)
	if err != nil {
		return nil, err
	}

	upcomingDuration, err := meter.Float64Histogram(
		"reminder_upcoming_query_duration_seconds",
		metric.WithDescription("Time spent building the upcoming feed"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
		),
	)
	if err != nil {
		return nil, err
	}

	return &ReminderMetrics{
		timerOperations:       timerOperations,
		deliveries:            deliveries,
		actions:               actions,
		rescheduleAllDuration: rescheduleAllDuration,
		rescheduleAllItems:    rescheduleAllItems,
		upcomingDuration:      upcomingDuration,
	}, nil
}

// RecordTimerOperation counts an install, cancel or skip against the timer service.
func (m *ReminderMetrics) RecordTimerOperation(ctx context.Context, operation, outcome string) {
	if m == nil {
		return
	}
	m.timerOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func (m *ReminderMetrics) RecordDelivery(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func (m *ReminderMetrics) RecordAction(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func (m *ReminderMetrics) RecordRescheduleAll(ctx context.Context, duration time.Duration, scheduled, failed int) {
	if m == nil {
		return
	}
	m.rescheduleAllDuration.Record(ctx, duration.Seconds())
	m.rescheduleAllItems.Add(ctx, int64(scheduled), metric.WithAttributes(attribute.String("outcome", "success")))
	m.rescheduleAllItems.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", "failed")))
}

func (m *ReminderMetrics) RecordUpcomingDuration(ctx context.Context, duration time.Duration) {
	if m == nil {
		return
	}
	m.upcomingDuration.Record(ctx, duration.Seconds())
}
