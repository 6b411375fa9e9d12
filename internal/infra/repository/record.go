package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

type actionRecord struct {
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Payload string `json:"payload,omitempty"`
}

// configRecord is the stored form of a ReminderConfig. Instants are kept in
// UTC at millisecond precision.
type configRecord struct {
	ItemID                int64          `json:"item_id"`
	Enabled               bool           `json:"enabled"`
	Title                 string         `json:"title"`
	Body                  string         `json:"body"`
	ScheduleKind          string         `json:"schedule_kind"`
	StartAt               time.Time      `json:"start_at"`
	TimeZone              string         `json:"time_zone"`
	RepeatKind            string         `json:"repeat_kind"`
	RepeatIntervalMinutes *int           `json:"repeat_interval_minutes,omitempty"`
	EndAt                 *time.Time     `json:"end_at,omitempty"`
	Actions               []actionRecord `json:"actions,omitempty"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

func storedInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func newConfigRecord(cfg *domain.ReminderConfig, updatedAt time.Time) configRecord {
	rec := configRecord{
		ItemID:       cfg.ItemID,
		Enabled:      cfg.Enabled,
		Title:        cfg.Title,
		Body:         cfg.Body,
		ScheduleKind: cfg.ScheduleKind.String(),
		StartAt:      storedInstant(cfg.StartAt),
		TimeZone:     cfg.TimeZone,
		RepeatKind:   cfg.RepeatKind.String(),
		Actions:      encodeActions(cfg.Actions),
		UpdatedAt:    storedInstant(updatedAt),
	}
	if cfg.RepeatIntervalMinutes != nil {
		v := *cfg.RepeatIntervalMinutes
		rec.RepeatIntervalMinutes = &v
	}
	if cfg.EndAt != nil {
		v := storedInstant(*cfg.EndAt)
		rec.EndAt = &v
	}
	return rec
}

// toDomain decodes leniently: unknown kinds fall back to defaults and
// unknown action kinds are dropped.
func (r configRecord) toDomain() *domain.ReminderConfig {
	cfg := &domain.ReminderConfig{
		ItemID:       r.ItemID,
		Enabled:      r.Enabled,
		Title:        r.Title,
		Body:         r.Body,
		ScheduleKind: domain.ParseScheduleKind(r.ScheduleKind),
		StartAt:      r.StartAt,
		TimeZone:     r.TimeZone,
		RepeatKind:   domain.ParseRepeatKind(r.RepeatKind),
		Actions:      decodeActions(r.Actions),
	}
	if r.RepeatIntervalMinutes != nil {
		v := *r.RepeatIntervalMinutes
		cfg.RepeatIntervalMinutes = &v
	}
	if r.EndAt != nil {
		v := *r.EndAt
		cfg.EndAt = &v
	}
	return cfg
}

func encodeActions(actions []domain.Action) []actionRecord {
	if len(actions) == 0 {
		return nil
	}
	out := make([]actionRecord, 0, len(actions))
	for _, a := range actions {
		out = append(out, actionRecord{
			Label:   a.Label,
			Kind:    a.Kind.String(),
			Payload: a.Payload,
		})
	}
	return out
}

func decodeActions(records []actionRecord) []domain.Action {
	var out []domain.Action
	for _, r := range records {
		kind := domain.ActionKind(r.Kind)
		if !kind.IsValid() {
			continue
		}
		out = append(out, domain.Action{
			Label:   r.Label,
			Kind:    kind,
			Payload: r.Payload,
		})
	}
	return out
}

func marshalConfig(cfg *domain.ReminderConfig, updatedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(newConfigRecord(cfg, updatedAt))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfigData, err)
	}
	return data, nil
}

func unmarshalConfig(data []byte) (*domain.ReminderConfig, error) {
	var rec configRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfigData, err)
	}
	return rec.toDomain(), nil
}
