package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

func intPtr(v int) *int { return &v }

func sampleConfig(itemID int64, enabled bool) *domain.ReminderConfig {
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	return &domain.ReminderConfig{
		ItemID:                itemID,
		Enabled:               enabled,
		Title:                 "hydrate",
		Body:                  "one glass",
		ScheduleKind:          domain.ScheduleRepeating,
		StartAt:               time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		TimeZone:              "Europe/Berlin",
		RepeatKind:            domain.RepeatInterval,
		RepeatIntervalMinutes: intPtr(90),
		EndAt:                 &end,
		Actions: []domain.Action{
			{Label: "Done", Kind: domain.ActionMarkDone},
			{Label: "Later", Kind: domain.ActionSnooze, Payload: "10"},
		},
	}
}

func assertConfigEqual(t *testing.T, got, want *domain.ReminderConfig) {
	t.Helper()

	if got.ItemID != want.ItemID || got.Enabled != want.Enabled || got.Title != want.Title ||
		got.Body != want.Body || got.ScheduleKind != want.ScheduleKind || got.TimeZone != want.TimeZone ||
		got.RepeatKind != want.RepeatKind {
		t.Errorf("config: got %+v, want %+v", got, want)
	}
	if !got.StartAt.Equal(want.StartAt) {
		t.Errorf("StartAt: got %v, want %v", got.StartAt, want.StartAt)
	}
	if (got.RepeatIntervalMinutes == nil) != (want.RepeatIntervalMinutes == nil) ||
		(got.RepeatIntervalMinutes != nil && *got.RepeatIntervalMinutes != *want.RepeatIntervalMinutes) {
		t.Errorf("RepeatIntervalMinutes: got %v, want %v", got.RepeatIntervalMinutes, want.RepeatIntervalMinutes)
	}
	if (got.EndAt == nil) != (want.EndAt == nil) || (got.EndAt != nil && !got.EndAt.Equal(*want.EndAt)) {
		t.Errorf("EndAt: got %v, want %v", got.EndAt, want.EndAt)
	}
	if len(got.Actions) != len(want.Actions) {
		t.Fatalf("actions: got %d, want %d", len(got.Actions), len(want.Actions))
	}
	for i := range want.Actions {
		if got.Actions[i] != want.Actions[i] {
			t.Errorf("action %d: got %+v, want %+v", i, got.Actions[i], want.Actions[i])
		}
	}
}

// exerciseRepository runs the behaviour every ConfigRepository backend shares.
func exerciseRepository(t *testing.T, repo domain.ConfigRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing config", func(t *testing.T) {
		if _, err := repo.Get(ctx, 404); !errors.Is(err, domain.ErrConfigNotFound) {
			t.Errorf("Get() error: got %v, want %v", err, domain.ErrConfigNotFound)
		}
		if err := repo.Disable(ctx, 404); !errors.Is(err, domain.ErrConfigNotFound) {
			t.Errorf("Disable() error: got %v, want %v", err, domain.ErrConfigNotFound)
		}
	})

	t.Run("upsert and get", func(t *testing.T) {
		want := sampleConfig(1, true)
		if err := repo.Upsert(ctx, want); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		got, err := repo.Get(ctx, 1)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		assertConfigEqual(t, got, want)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		cfg := sampleConfig(1, true)
		cfg.Title = "renamed"
		cfg.EndAt = nil
		cfg.Actions = nil
		if err := repo.Upsert(ctx, cfg); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		got, err := repo.Get(ctx, 1)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		assertConfigEqual(t, got, cfg)
	})

	t.Run("enabled listing follows disable", func(t *testing.T) {
		for _, cfg := range []*domain.ReminderConfig{sampleConfig(2, true), sampleConfig(3, false)} {
			if err := repo.Upsert(ctx, cfg); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
		}

		assertIDs(t, "GetEnabled", mustList(t, repo.GetEnabled), []int64{1, 2})
		assertIDs(t, "GetAll", mustList(t, repo.GetAll), []int64{1, 2, 3})

		if err := repo.Disable(ctx, 2); err != nil {
			t.Fatalf("Disable() error = %v", err)
		}
		assertIDs(t, "GetEnabled after Disable", mustList(t, repo.GetEnabled), []int64{1})

		got, err := repo.Get(ctx, 2)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Enabled {
			t.Errorf("Enabled after Disable: got true, want false")
		}
		if got.Title != "hydrate" {
			t.Errorf("Title after Disable: got %q, want %q", got.Title, "hydrate")
		}
	})

	t.Run("disable all", func(t *testing.T) {
		if err := repo.DisableAll(ctx); err != nil {
			t.Fatalf("DisableAll() error = %v", err)
		}
		assertIDs(t, "GetEnabled after DisableAll", mustList(t, repo.GetEnabled), nil)
		assertIDs(t, "GetAll after DisableAll", mustList(t, repo.GetAll), []int64{1, 2, 3})
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		for range 2 {
			if err := repo.Delete(ctx, 3); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
		}
		if _, err := repo.Get(ctx, 3); !errors.Is(err, domain.ErrConfigNotFound) {
			t.Errorf("Get() after Delete error: got %v, want %v", err, domain.ErrConfigNotFound)
		}
		assertIDs(t, "GetAll after Delete", mustList(t, repo.GetAll), []int64{1, 2})
	})

	t.Run("watch receives changes", func(t *testing.T) {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		changes, err := repo.Watch(watchCtx)
		if err != nil {
			t.Fatalf("Watch() error = %v", err)
		}

		if err := repo.Upsert(ctx, sampleConfig(9, true)); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		select {
		case change := <-changes:
			if change.ItemID != 9 || change.Kind != domain.ChangeUpserted {
				t.Errorf("change: got %+v, want item 9 upserted", change)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no change received")
		}

		cancel()
		for range changes {
		}
	})
}

func mustList(t *testing.T, fn func(context.Context) ([]*domain.ReminderConfig, error)) []*domain.ReminderConfig {
	t.Helper()
	configs, err := fn(context.Background())
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	return configs
}

func assertIDs(t *testing.T, label string, configs []*domain.ReminderConfig, want []int64) {
	t.Helper()
	if len(configs) != len(want) {
		t.Fatalf("%s: got %d configs, want %d", label, len(configs), len(want))
	}
	for i, cfg := range configs {
		if cfg.ItemID != want[i] {
			t.Errorf("%s[%d]: got item %d, want %d", label, i, cfg.ItemID, want[i])
		}
	}
}
