package upcoming

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/metrics"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/tracing"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/schedule"
)

// Service builds the read-only upcoming feed. It never touches timers.
type Service struct {
	configRepo      domain.ConfigRepository
	calculator      *schedule.Calculator
	reminderMetrics *metrics.ReminderMetrics
}

func NewService(
	configRepo domain.ConfigRepository,
	calculator *schedule.Calculator,
	reminderMetrics *metrics.ReminderMetrics,
) *Service {
	return &Service{
		configRepo:      configRepo,
		calculator:      calculator,
		reminderMetrics: reminderMetrics,
	}
}

// GetUpcoming returns at most limit occurrences after from across all
// enabled configs admitted by filter, in ascending time order.
func (s *Service) GetUpcoming(ctx context.Context, limit int, from time.Time, filter ItemFilter) ([]domain.Occurrence, error) {
	if limit <= 0 {
		return []domain.Occurrence{}, nil
	}

	ctx, span := tracing.StartUpcomingSpan(ctx, limit)
	defer span.End()

	start := time.Now()
	defer func() {
		s.reminderMetrics.RecordUpcomingDuration(ctx, time.Since(start))
	}()

	configs, err := s.configRepo.GetEnabled(ctx)
	if err != nil {
		err = fmt.Errorf("load enabled configs: %w", err)
		tracing.RecordError(span, err)
		return nil, err
	}

	result := s.merge(configs, limit, from, filter)

	slog.DebugContext(ctx, "upcoming feed built",
		slog.String("event", "reminder.upcoming"),
		slog.Int("configs", len(configs)),
		slog.Int("limit", limit),
		slog.Int("count", len(result)),
	)

	tracing.RecordError(span, nil)
	return result, nil
}

func (s *Service) merge(configs []*domain.ReminderConfig, limit int, from time.Time, filter ItemFilter) []domain.Occurrence {
	q := newMergeQueue(len(configs))
	defer q.stopAll()

	for _, cfg := range configs {
		if !cfg.Enabled || !filter.Allows(cfg.ItemID) {
			continue
		}
		src, ok := newMergeSource(cfg, s.calculator.Occurrences(cfg, from))
		if !ok {
			continue
		}
		q.items = append(q.items, src)
		src.index = len(q.items) - 1
	}
	heap.Init(q)

	result := make([]domain.Occurrence, 0, min(limit, 64))
	for q.Len() > 0 && len(result) < limit {
		src := q.items[0]
		result = append(result, domain.NewOccurrence(src.cfg, src.next))
		src.taken++

		if src.taken >= limit || !src.advance() {
			heap.Pop(q)
			src.stop()
			continue
		}
		heap.Fix(q, 0)
	}

	return result
}
