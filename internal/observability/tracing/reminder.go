package tracing

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const reminderTracerName = "github.com/KasumiMercury/primind-reminder-scheduler/internal/service"

func ReminderTracer() trace.Tracer {
	return otel.Tracer(reminderTracerName)
}

func StartScheduleSpan(ctx context.Context, itemID int64, override bool) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.schedule",
		trace.WithAttributes(
			attribute.Int64("item_id", itemID),
			attribute.Bool("schedule.override", override),
		),
	)
}

func StartCancelSpan(ctx context.Context, itemID int64) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.cancel",
		trace.WithAttributes(
			attribute.Int64("item_id", itemID),
		),
	)
}

func StartRescheduleAllSpan(ctx context.Context) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.reschedule_all")
}

func StartDeliverySpan(ctx context.Context, itemID int64, kind string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.delivery",
		trace.WithAttributes(
			attribute.Int64("item_id", itemID),
			attribute.String("delivery.kind", kind),
		),
	)
}

func StartUpcomingSpan(ctx context.Context, limit int) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.upcoming",
		trace.WithAttributes(
			attribute.Int("upcoming.limit", limit),
		),
	)
}

func StartExternalAPISpan(ctx context.Context, operation, url string) (context.Context, trace.Span) {
	return ReminderTracer().Start(ctx, "reminder.external_api."+operation,
		trace.WithAttributes(
			attribute.String("url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordScheduleResult(span trace.Span, triggerAt time.Time, installed bool, err error) {
	span.SetAttributes(attribute.Bool("schedule.installed", installed))
	if installed {
		span.SetAttributes(attribute.String("schedule.trigger_at", triggerAt.Format(time.RFC3339)))
	}
	RecordError(span, err)
}

func RecordRescheduleAllResult(span trace.Span, total, scheduled, failed int, err error) {
	span.SetAttributes(
		attribute.Int("reschedule.total", total),
		attribute.Int("reschedule.scheduled", scheduled),
		attribute.Int("reschedule.failed", failed),
	)
	RecordError(span, err)
}

func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// InjectToHTTPRequest propagates the span context of ctx to an outgoing request.
func InjectToHTTPRequest(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// ExtractFromHTTPRequest returns ctx enriched with the span context carried by req.
func ExtractFromHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(req.Header))
}
