package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/logging"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/scheduler"
)

const module = logging.Module("reconcile")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Service periodically reinstalls every enabled timer so that timers lost
// while the process or the timer backend was down come back.
type Service struct {
	coordinator scheduler.Coordinator
	spec        string
	loc         *time.Location

	mu      sync.Mutex
	running sync.Mutex
	c       *cron.Cron
}

// NewService validates spec. An empty spec disables the periodic run while
// RunOnce keeps working.
func NewService(coordinator scheduler.Coordinator, spec string, loc *time.Location) (*Service, error) {
	if spec != "" {
		if _, err := parser.Parse(spec); err != nil {
			return nil, fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
		}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		coordinator: coordinator,
		spec:        spec,
		loc:         loc,
	}, nil
}

// RunOnce reschedules all enabled reminders. Overlapping runs are skipped.
func (s *Service) RunOnce(ctx context.Context) (scheduler.RescheduleResult, bool) {
	if !s.running.TryLock() {
		slog.WarnContext(ctx, "reconcile already running, skipped",
			slog.String("event", "reconcile.skip"),
		)
		return scheduler.RescheduleResult{}, false
	}
	defer s.running.Unlock()

	ctx = logging.WithModule(ctx, module)
	start := time.Now()

	result, err := s.coordinator.RescheduleAll(ctx)
	attrs := []any{
		slog.String("event", "reconcile.done"),
		slog.Int("total", result.Total),
		slog.Int("scheduled", result.Scheduled),
		slog.Int("failed", result.Failed),
		slog.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		slog.WarnContext(ctx, "reconcile finished with errors", append(attrs, slog.String("error", err.Error()))...)
		return result, true
	}
	slog.InfoContext(ctx, "reconcile finished", attrs...)
	return result, true
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || s.spec == "" {
		return
	}

	s.c = cron.New(cron.WithParser(parser), cron.WithLocation(s.loc))
	if _, err := s.c.AddFunc(s.spec, func() { s.RunOnce(context.WithoutCancel(ctx)) }); err != nil {
		// spec was parsed in NewService
		slog.ErrorContext(ctx, "failed to register reconcile job",
			slog.String("event", "reconcile.register.fail"),
			slog.String("error", err.Error()),
		)
		s.c = nil
		return
	}
	s.c.Start()

	slog.InfoContext(ctx, "reconcile scheduled",
		slog.String("event", "reconcile.start"),
		slog.String("spec", s.spec),
		slog.String("tz", s.loc.String()),
	)
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
}

func (s *Service) entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return 0
	}
	return len(s.c.Entries())
}
