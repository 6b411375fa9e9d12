package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/infra/timer"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/metrics"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/tracing"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/schedule"
)

// Service keeps exactly one pending timer per item in line with the item's
// reminder config.
type Service struct {
	configRepo      domain.ConfigRepository
	timers          timer.Service
	calculator      *schedule.Calculator
	limiter         *rate.Limiter
	reminderMetrics *metrics.ReminderMetrics
	locks           *keyedMutex
	now             func() time.Time
}

// NewService builds the coordinator. A nil limiter leaves reschedule-all unpaced.
func NewService(
	configRepo domain.ConfigRepository,
	timers timer.Service,
	calculator *schedule.Calculator,
	limiter *rate.Limiter,
	reminderMetrics *metrics.ReminderMetrics,
) *Service {
	return &Service{
		configRepo:      configRepo,
		timers:          timers,
		calculator:      calculator,
		limiter:         limiter,
		reminderMetrics: reminderMetrics,
		locks:           newKeyedMutex(),
		now:             time.Now,
	}
}

// Schedule installs the timer for the next occurrence of cfg, or the one at
// overrideStartAt when given. A disabled config cancels the item's timer. A
// rule with no further occurrence installs nothing and leaves any pending
// timer, such as a snooze, in place.
func (s *Service) Schedule(ctx context.Context, cfg *domain.ReminderConfig, overrideStartAt *time.Time) error {
	ctx, span := tracing.StartScheduleSpan(ctx, cfg.ItemID, overrideStartAt != nil)
	defer span.End()

	unlock := s.locks.Lock(cfg.ItemID)
	defer unlock()

	now := s.now()

	var (
		triggerAt time.Time
		ok        bool
	)
	if overrideStartAt != nil {
		triggerAt, ok = *overrideStartAt, true
	} else {
		triggerAt, ok = s.calculator.NextTrigger(cfg, now)
	}

	installed, err := s.apply(ctx, cfg, triggerAt, ok, now, timer.FireScheduled)
	tracing.RecordScheduleResult(span, triggerAt, installed, err)
	return err
}

// ScheduleAfter re-arms the item for the first occurrence later than both now
// and the delivered occurrence after, so an early firing cannot re-arm the
// occurrence it just delivered. The config is read under the item lock: a
// disable or delete that lands while the firing is being delivered wins, and
// a missing or disabled config leaves no timer.
func (s *Service) ScheduleAfter(ctx context.Context, itemID int64, after time.Time) error {
	ctx, span := tracing.StartScheduleSpan(ctx, itemID, false)
	defer span.End()

	unlock := s.locks.Lock(itemID)
	defer unlock()

	cfg, err := s.configRepo.Get(ctx, itemID)
	if errors.Is(err, domain.ErrConfigNotFound) {
		err = s.cancel(ctx, itemID)
		tracing.RecordError(span, err)
		return err
	}
	if err != nil {
		err = fmt.Errorf("load config for re-arm: %w", err)
		tracing.RecordError(span, err)
		return err
	}

	now := s.now()

	var (
		triggerAt time.Time
		ok        bool
	)
	if after.Before(now) {
		triggerAt, ok = s.calculator.NextTrigger(cfg, now)
	} else {
		triggerAt, ok = s.calculator.NextAfterOccurrence(cfg, after)
	}
	installed, err := s.apply(ctx, cfg, triggerAt, ok, now, timer.FireScheduled)
	tracing.RecordScheduleResult(span, triggerAt, installed, err)
	return err
}

// Cancel removes the item's pending timer. Cancelling an item without a
// timer succeeds.
func (s *Service) Cancel(ctx context.Context, itemID int64) error {
	ctx, span := tracing.StartCancelSpan(ctx, itemID)
	defer span.End()

	unlock := s.locks.Lock(itemID)
	defer unlock()

	err := s.cancel(ctx, itemID)
	tracing.RecordError(span, err)
	return err
}

// ScheduleSnooze arms a one-off firing minutes from now for an existing
// config, even when the config is disabled. The stored config is unchanged.
func (s *Service) ScheduleSnooze(ctx context.Context, itemID int64, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidSnoozeMinutes, minutes)
	}

	ctx, span := tracing.StartScheduleSpan(ctx, itemID, true)
	defer span.End()

	unlock := s.locks.Lock(itemID)
	defer unlock()

	cfg, err := s.configRepo.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) {
			slog.InfoContext(ctx, "snooze ignored for missing config",
				slog.String("event", "reminder.snooze.skip"),
				slog.Int64("item_id", itemID),
			)
			return nil
		}
		err = fmt.Errorf("load config for snooze: %w", err)
		tracing.RecordError(span, err)
		return err
	}

	forced := cfg.Clone()
	forced.Enabled = true

	now := s.now()
	triggerAt := now.Add(time.Duration(minutes) * time.Minute)

	installed, err := s.apply(ctx, forced, triggerAt, true, now, timer.FireSnooze)
	tracing.RecordScheduleResult(span, triggerAt, installed, err)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "reminder snoozed",
		slog.String("event", "reminder.snooze"),
		slog.Int64("item_id", itemID),
		slog.Int("minutes", minutes),
		slog.Time("trigger_at", triggerAt),
	)

	return nil
}

// RescheduleAll reinstalls timers for every enabled config. It is the
// recovery path after restarts or failed timer calls and is safe to repeat.
func (s *Service) RescheduleAll(ctx context.Context) (RescheduleResult, error) {
	ctx, span := tracing.StartRescheduleAllSpan(ctx)
	defer span.End()

	start := time.Now()

	configs, err := s.configRepo.GetEnabled(ctx)
	if err != nil {
		err = fmt.Errorf("load enabled configs: %w", err)
		tracing.RecordError(span, err)
		return RescheduleResult{}, err
	}

	result := RescheduleResult{Total: len(configs)}
	var errs []error

	for _, cfg := range configs {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				errs = append(errs, err)
				result.Failed += result.Total - result.Scheduled - result.Failed
				break
			}
		}

		if err := s.Schedule(ctx, cfg, nil); err != nil {
			slog.WarnContext(ctx, "failed to reschedule reminder",
				slog.String("event", "reminder.reschedule.fail"),
				slog.Int64("item_id", cfg.ItemID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("item %d: %w", cfg.ItemID, err))
			result.Failed++
			continue
		}
		result.Scheduled++
	}

	joined := errors.Join(errs...)
	elapsed := time.Since(start)

	s.reminderMetrics.RecordRescheduleAll(ctx, elapsed, result.Scheduled, result.Failed)
	tracing.RecordRescheduleAllResult(span, result.Total, result.Scheduled, result.Failed, joined)

	slog.InfoContext(ctx, "reschedule all completed",
		slog.String("event", "reminder.reschedule_all"),
		slog.Int("total", result.Total),
		slog.Int("scheduled", result.Scheduled),
		slog.Int("failed", result.Failed),
		slog.Duration("elapsed", elapsed),
	)

	return result, joined
}

// apply must be called with the item lock held.
func (s *Service) apply(
	ctx context.Context,
	cfg *domain.ReminderConfig,
	triggerAt time.Time,
	ok bool,
	now time.Time,
	kind timer.FireKind,
) (bool, error) {
	if !cfg.Enabled {
		return false, s.cancel(ctx, cfg.ItemID)
	}

	if !ok {
		slog.DebugContext(ctx, "no further occurrence",
			slog.String("event", "reminder.schedule.none"),
			slog.Int64("item_id", cfg.ItemID),
		)
		s.reminderMetrics.RecordTimerOperation(ctx, "install", "none")
		return false, nil
	}

	delay := max(triggerAt.Sub(now), 0)

	payload := timer.Payload{
		ItemID:      cfg.ItemID,
		Kind:        kind,
		ScheduledAt: triggerAt,
	}

	if err := s.timers.InstallOrReplace(ctx, timer.Name(cfg.ItemID), delay, payload); err != nil {
		s.reminderMetrics.RecordTimerOperation(ctx, "install", "failed")
		slog.ErrorContext(ctx, "failed to install timer",
			slog.String("event", "reminder.timer.install.fail"),
			slog.Int64("item_id", cfg.ItemID),
			slog.Bool("retryable", timer.IsRetryable(err)),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("install timer for item %d: %w", cfg.ItemID, err)
	}

	s.reminderMetrics.RecordTimerOperation(ctx, "install", "success")
	slog.InfoContext(ctx, "timer installed",
		slog.String("event", "reminder.timer.install"),
		slog.Int64("item_id", cfg.ItemID),
		slog.String("kind", string(kind)),
		slog.Time("trigger_at", triggerAt),
		slog.Duration("delay", delay),
	)

	return true, nil
}

func (s *Service) cancel(ctx context.Context, itemID int64) error {
	if err := s.timers.Cancel(ctx, timer.Name(itemID)); err != nil {
		s.reminderMetrics.RecordTimerOperation(ctx, "cancel", "failed")
		slog.ErrorContext(ctx, "failed to cancel timer",
			slog.String("event", "reminder.timer.cancel.fail"),
			slog.Int64("item_id", itemID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("cancel timer for item %d: %w", itemID, err)
	}

	s.reminderMetrics.RecordTimerOperation(ctx, "cancel", "success")
	return nil
}
