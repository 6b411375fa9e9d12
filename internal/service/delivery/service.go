package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/counter"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/timer"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/metrics"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/tracing"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/scheduler"
)

const DefaultSnoozeMinutes = 10

// Service handles timer firings and the actions users take on delivered
// reminders.
type Service struct {
	configRepo           domain.ConfigRepository
	timers               timer.Service
	coordinator          scheduler.Coordinator
	presenter            domain.Presenter
	counterRepo          counter.Repository
	recorder             domain.DeliveryRecorder
	reminderMetrics      *metrics.ReminderMetrics
	defaultSnoozeMinutes int
	now                  func() time.Time
}

func NewService(
	configRepo domain.ConfigRepository,
	timers timer.Service,
	coordinator scheduler.Coordinator,
	presenter domain.Presenter,
	counterRepo counter.Repository,
	recorder domain.DeliveryRecorder,
	reminderMetrics *metrics.ReminderMetrics,
	defaultSnoozeMinutes int,
) *Service {
	if defaultSnoozeMinutes <= 0 {
		defaultSnoozeMinutes = DefaultSnoozeMinutes
	}
	return &Service{
		configRepo:           configRepo,
		timers:               timers,
		coordinator:          coordinator,
		presenter:            presenter,
		counterRepo:          counterRepo,
		recorder:             recorder,
		reminderMetrics:      reminderMetrics,
		defaultSnoozeMinutes: defaultSnoozeMinutes,
		now:                  time.Now,
	}
}

// HandleFire delivers one timer firing. Firings of superseded timers and of
// configs that no longer exist are dropped. After presenting, the next
// occurrence is armed; a presenter failure does not prevent that.
//
// The config is read before the generation token is claimed, so an error
// returned without an outcome always leaves the token in place and a
// redelivered firing can still be claimed.
func (s *Service) HandleFire(ctx context.Context, payload timer.Payload) (domain.DeliveryOutcome, error) {
	ctx, span := tracing.StartDeliverySpan(ctx, payload.ItemID, string(payload.Kind))
	defer span.End()

	cfg, err := s.configRepo.Get(ctx, payload.ItemID)
	missing := errors.Is(err, domain.ErrConfigNotFound)
	if err != nil && !missing {
		tracing.RecordError(span, err)
		return "", fmt.Errorf("load config: %w", err)
	}

	claimed, err := s.timers.Claim(ctx, timer.Name(payload.ItemID), payload.Token)
	if err != nil {
		tracing.RecordError(span, err)
		return "", fmt.Errorf("claim timer: %w", err)
	}
	if !claimed {
		slog.InfoContext(ctx, "stale timer firing dropped",
			slog.String("event", "reminder.delivery.stale"),
			slog.Int64("item_id", payload.ItemID),
			slog.Time("scheduled_at", payload.ScheduledAt),
		)
		s.finish(ctx, payload, domain.OutcomeStale)
		return domain.OutcomeStale, nil
	}

	if missing {
		s.finish(ctx, payload, domain.OutcomeMissing)
		return domain.OutcomeMissing, nil
	}

	snoozed := payload.Kind == timer.FireSnooze
	if !cfg.Enabled && !snoozed {
		s.finish(ctx, payload, domain.OutcomeDisabled)
		return domain.OutcomeDisabled, nil
	}

	outcome := domain.OutcomePresented
	notification := domain.Notification{
		ItemID:      cfg.ItemID,
		Title:       cfg.Title,
		Body:        cfg.Body,
		ScheduledAt: payload.ScheduledAt,
		Snoozed:     snoozed,
		Actions:     cfg.SurfacedActions(),
	}
	if err := s.presenter.Present(ctx, notification); err != nil {
		outcome = domain.OutcomePresentFailed
		slog.ErrorContext(ctx, "failed to present reminder",
			slog.String("event", "reminder.delivery.present.fail"),
			slog.Int64("item_id", cfg.ItemID),
			slog.String("error", err.Error()),
		)
	}
	s.finish(ctx, payload, outcome)

	if err := s.coordinator.ScheduleAfter(ctx, cfg.ItemID, payload.ScheduledAt); err != nil {
		tracing.RecordError(span, err)
		return outcome, fmt.Errorf("re-arm reminder: %w", err)
	}

	tracing.RecordError(span, nil)
	return outcome, nil
}

// HandleAction runs an action chosen on a delivered reminder.
func (s *Service) HandleAction(ctx context.Context, itemID int64, kind domain.ActionKind, payload string) error {
	var err error

	switch kind {
	case domain.ActionMarkDone:
		err = s.counterRepo.ResetCount(ctx, itemID)
	case domain.ActionSnooze:
		err = s.coordinator.ScheduleSnooze(ctx, itemID, s.snoozeMinutes(payload))
	case domain.ActionOpenItem:
		slog.InfoContext(ctx, "open item requested",
			slog.String("event", "reminder.action.open_item"),
			slog.Int64("item_id", itemID),
		)
	default:
		s.reminderMetrics.RecordAction(ctx, string(kind), "unknown")
		return fmt.Errorf("%w: %q", domain.ErrUnknownAction, kind)
	}

	if err != nil {
		s.reminderMetrics.RecordAction(ctx, string(kind), "failed")
		slog.ErrorContext(ctx, "reminder action failed",
			slog.String("event", "reminder.action.fail"),
			slog.Int64("item_id", itemID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s action: %w", kind, err)
	}

	s.reminderMetrics.RecordAction(ctx, string(kind), "success")
	slog.InfoContext(ctx, "reminder action handled",
		slog.String("event", "reminder.action"),
		slog.Int64("item_id", itemID),
		slog.String("kind", string(kind)),
	)

	return nil
}

// snoozeMinutes reads the minutes carried by a snooze action payload.
func (s *Service) snoozeMinutes(payload string) int {
	minutes, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil || minutes <= 0 {
		return s.defaultSnoozeMinutes
	}
	return minutes
}

func (s *Service) finish(ctx context.Context, payload timer.Payload, outcome domain.DeliveryOutcome) {
	s.reminderMetrics.RecordDelivery(ctx, string(payload.Kind), string(outcome))

	record := domain.DeliveryRecord{
		ItemID:      payload.ItemID,
		Kind:        string(payload.Kind),
		Outcome:     outcome,
		ScheduledAt: payload.ScheduledAt,
		DeliveredAt: s.now(),
	}
	if err := s.recorder.RecordDelivery(ctx, record); err != nil {
		slog.WarnContext(ctx, "failed to record delivery",
			slog.String("event", "reminder.delivery.record.fail"),
			slog.Int64("item_id", payload.ItemID),
			slog.String("error", err.Error()),
		)
	}

	slog.InfoContext(ctx, "timer firing handled",
		slog.String("event", "reminder.delivery"),
		slog.Int64("item_id", payload.ItemID),
		slog.String("kind", string(payload.Kind)),
		slog.String("outcome", string(outcome)),
		slog.Duration("lateness", record.Lateness()),
	)
}
