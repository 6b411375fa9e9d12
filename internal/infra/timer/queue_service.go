package timer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// QueueService implements Service on top of a remote TaskQueue. Replacement is
// atomic through the Registry: once a new generation is stored, a firing of
// the previous task can no longer be claimed even if its deletion fails.
type QueueService struct {
	queue    TaskQueue
	registry Registry
	now      func() time.Time
}

func NewQueueService(queue TaskQueue, registry Registry) *QueueService {
	return &QueueService{
		queue:    queue,
		registry: registry,
		now:      time.Now,
	}
}

func (s *QueueService) InstallOrReplace(ctx context.Context, name string, delay time.Duration, payload Payload) error {
	prev, err := s.registry.Current(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to read timer registry: %w", err)
	}

	token := uuid.NewString()
	payload.Token = token
	scheduleAt := s.now().Add(delay)

	resp, err := s.queue.CreateTask(ctx, &Task{
		ID:         name + "-" + token,
		ScheduleAt: scheduleAt,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	gen := &Generation{
		Token:       token,
		TaskName:    resp.Name,
		ScheduledAt: scheduleAt,
	}
	if err := s.registry.Set(ctx, name, gen); err != nil {
		// The unregistered task can never be claimed; removing it only saves a no-op delivery.
		if delErr := s.queue.DeleteTask(ctx, resp.Name); delErr != nil {
			slog.WarnContext(ctx, "failed to delete unregistered task",
				slog.String("event", "timer.queue.orphan"),
				slog.String("task_name", resp.Name),
				slog.String("error", delErr.Error()),
			)
		}
		return fmt.Errorf("failed to register timer generation: %w", err)
	}

	if prev != nil {
		s.deleteSuperseded(ctx, name, prev)
	}

	slog.DebugContext(ctx, "queue timer installed",
		slog.String("event", "timer.queue.install"),
		slog.String("name", name),
		slog.String("task_name", resp.Name),
		slog.Time("schedule_at", scheduleAt),
	)

	return nil
}

func (s *QueueService) Cancel(ctx context.Context, name string) error {
	prev, err := s.registry.Current(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to read timer registry: %w", err)
	}
	if prev == nil {
		return nil
	}

	if err := s.registry.Remove(ctx, name); err != nil {
		return fmt.Errorf("failed to remove timer generation: %w", err)
	}

	s.deleteSuperseded(ctx, name, prev)

	return nil
}

func (s *QueueService) Claim(ctx context.Context, name, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	ok, err := s.registry.Release(ctx, name, token)
	if err != nil {
		return false, fmt.Errorf("failed to release timer generation: %w", err)
	}
	return ok, nil
}

func (s *QueueService) deleteSuperseded(ctx context.Context, name string, gen *Generation) {
	if gen.TaskName == "" {
		return
	}
	if err := s.queue.DeleteTask(ctx, gen.TaskName); err != nil {
		slog.WarnContext(ctx, "failed to delete superseded task",
			slog.String("event", "timer.queue.delete.fail"),
			slog.String("name", name),
			slog.String("task_name", gen.TaskName),
			slog.String("error", err.Error()),
		)
	}
}
