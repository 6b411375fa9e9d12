package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

func TestUnmarshalConfig_LenientDecoding(t *testing.T) {
	data := []byte(`{
		"item_id": 3,
		"enabled": true,
		"title": "t",
		"schedule_kind": "FORTNIGHTLY",
		"start_at": "2024-01-01T09:00:00Z",
		"repeat_kind": "hourly",
		"actions": [
			{"label": "Done", "kind": "mark_done"},
			{"label": "Call", "kind": "phone"},
			{"label": "Later", "kind": "snooze", "payload": "15"}
		]
	}`)

	cfg, err := unmarshalConfig(data)
	if err != nil {
		t.Fatalf("unmarshalConfig() error = %v", err)
	}

	if cfg.ScheduleKind != domain.ScheduleOneTime {
		t.Errorf("ScheduleKind: got %v, want %v", cfg.ScheduleKind, domain.ScheduleOneTime)
	}
	if cfg.RepeatKind != domain.RepeatNone {
		t.Errorf("RepeatKind: got %v, want %v", cfg.RepeatKind, domain.RepeatNone)
	}
	if len(cfg.Actions) != 2 {
		t.Fatalf("actions: got %d, want 2", len(cfg.Actions))
	}
	if cfg.Actions[1].Payload != "15" {
		t.Errorf("snooze payload: got %q, want %q", cfg.Actions[1].Payload, "15")
	}
}

func TestUnmarshalConfig_Garbage(t *testing.T) {
	if _, err := unmarshalConfig([]byte("{not json")); !errors.Is(err, ErrInvalidConfigData) {
		t.Errorf("unmarshalConfig() error: got %v, want %v", err, ErrInvalidConfigData)
	}
}

func TestNewConfigRecord_MillisecondPrecision(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	start := time.Date(2024, 1, 1, 9, 0, 0, 123456789, tokyo)

	rec := newConfigRecord(&domain.ReminderConfig{ItemID: 1, StartAt: start}, start)

	want := time.Date(2024, 1, 1, 0, 0, 0, 123000000, time.UTC)
	if !rec.StartAt.Equal(want) {
		t.Errorf("StartAt: got %v, want %v", rec.StartAt, want)
	}
	if rec.StartAt.Location() != time.UTC {
		t.Errorf("StartAt location: got %v, want UTC", rec.StartAt.Location())
	}
}
