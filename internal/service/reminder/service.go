package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/service/scheduler"
)

// Service implements the reminder use cases. Every mutation persists first
// and then brings the item's timer in line with the stored config.
type Service struct {
	configRepo      domain.ConfigRepository
	coordinator     scheduler.Coordinator
	defaultTimeZone string
	now             func() time.Time
}

func NewService(configRepo domain.ConfigRepository, coordinator scheduler.Coordinator, defaultTimeZone string) *Service {
	return &Service{
		configRepo:      configRepo,
		coordinator:     coordinator,
		defaultTimeZone: defaultTimeZone,
		now:             time.Now,
	}
}

func (s *Service) Get(ctx context.Context, itemID int64) (*domain.ReminderConfig, error) {
	return s.configRepo.Get(ctx, itemID)
}

func (s *Service) List(ctx context.Context) ([]*domain.ReminderConfig, error) {
	return s.configRepo.GetAll(ctx)
}

func (s *Service) Upsert(ctx context.Context, cfg *domain.ReminderConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return s.save(ctx, cfg)
}

// SetEnabled toggles the reminder of an item, creating a default one-time
// config when the item has none. A blank title is filled from itemTitle.
func (s *Service) SetEnabled(ctx context.Context, itemID int64, itemTitle string, enabled bool) (*domain.ReminderConfig, error) {
	cfg, err := s.configRepo.Get(ctx, itemID)
	switch {
	case errors.Is(err, domain.ErrConfigNotFound):
		cfg = domain.NewDefaultConfig(itemID, itemTitle, s.defaultTimeZone, s.now())
	case err != nil:
		return nil, fmt.Errorf("load config: %w", err)
	default:
		cfg = cfg.Clone()
	}

	cfg.Enabled = enabled
	if strings.TrimSpace(cfg.Title) == "" {
		cfg.Title = itemTitle
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (s *Service) Disable(ctx context.Context, itemID int64) error {
	if err := s.configRepo.Disable(ctx, itemID); err != nil {
		if !errors.Is(err, domain.ErrConfigNotFound) {
			return fmt.Errorf("disable config: %w", err)
		}
	}

	return s.coordinator.Cancel(ctx, itemID)
}

// DisableAll disables every config and cancels the timers of those that
// were enabled.
func (s *Service) DisableAll(ctx context.Context) (int, error) {
	enabled, err := s.configRepo.GetEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("load enabled configs: %w", err)
	}

	if err := s.configRepo.DisableAll(ctx); err != nil {
		return 0, fmt.Errorf("disable all configs: %w", err)
	}

	var errs []error
	for _, cfg := range enabled {
		if err := s.coordinator.Cancel(ctx, cfg.ItemID); err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", cfg.ItemID, err))
		}
	}

	slog.InfoContext(ctx, "all reminders disabled",
		slog.String("event", "reminder.disable_all"),
		slog.Int("count", len(enabled)),
		slog.Int("cancel_failed", len(errs)),
	)

	return len(enabled), errors.Join(errs...)
}

// Delete removes the config of a deleted item together with its timer.
func (s *Service) Delete(ctx context.Context, itemID int64) error {
	if err := s.configRepo.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("delete config: %w", err)
	}

	return s.coordinator.Cancel(ctx, itemID)
}

func (s *Service) save(ctx context.Context, cfg *domain.ReminderConfig) error {
	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return fmt.Errorf("persist config: %w", err)
	}

	slog.InfoContext(ctx, "reminder config saved",
		slog.String("event", "reminder.config.save"),
		slog.Int64("item_id", cfg.ItemID),
		slog.Bool("enabled", cfg.Enabled),
		slog.String("schedule_kind", cfg.ScheduleKind.String()),
		slog.String("repeat_kind", cfg.RepeatKind.String()),
	)

	if cfg.Enabled {
		return s.coordinator.Schedule(ctx, cfg, nil)
	}
	return s.coordinator.Cancel(ctx, cfg.ItemID)
}
