package handler

import (
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type actionDTO struct {
	Label   string            `json:"label" binding:"required"`
	Kind    domain.ActionKind `json:"kind" binding:"required"`
	Payload string            `json:"payload,omitempty"`
}

type reminderRequest struct {
	Enabled               bool                `json:"enabled"`
	Title                 string              `json:"title" binding:"required"`
	Body                  string              `json:"body"`
	ScheduleKind          domain.ScheduleKind `json:"schedule_kind" binding:"required"`
	StartAt               time.Time           `json:"start_at"`
	TimeZone              string              `json:"time_zone"`
	RepeatKind            domain.RepeatKind   `json:"repeat_kind"`
	RepeatIntervalMinutes *int                `json:"repeat_interval_minutes,omitempty"`
	EndAt                 *time.Time          `json:"end_at,omitempty"`
	Actions               []actionDTO         `json:"actions" binding:"omitempty,dive"`
}

func (r *reminderRequest) toDomain(itemID int64) *domain.ReminderConfig {
	repeatKind := r.RepeatKind
	if repeatKind == "" {
		repeatKind = domain.RepeatNone
	}

	actions := make([]domain.Action, 0, len(r.Actions))
	for _, a := range r.Actions {
		actions = append(actions, domain.Action{Label: a.Label, Kind: a.Kind, Payload: a.Payload})
	}

	return &domain.ReminderConfig{
		ItemID:                itemID,
		Enabled:               r.Enabled,
		Title:                 r.Title,
		Body:                  r.Body,
		ScheduleKind:          r.ScheduleKind,
		StartAt:               r.StartAt,
		TimeZone:              r.TimeZone,
		RepeatKind:            repeatKind,
		RepeatIntervalMinutes: r.RepeatIntervalMinutes,
		EndAt:                 r.EndAt,
		Actions:               actions,
	}
}

type reminderResponse struct {
	ItemID                int64               `json:"item_id"`
	Enabled               bool                `json:"enabled"`
	Title                 string              `json:"title"`
	Body                  string              `json:"body"`
	ScheduleKind          domain.ScheduleKind `json:"schedule_kind"`
	StartAt               time.Time           `json:"start_at"`
	TimeZone              string              `json:"time_zone,omitempty"`
	RepeatKind            domain.RepeatKind   `json:"repeat_kind"`
	RepeatIntervalMinutes *int                `json:"repeat_interval_minutes,omitempty"`
	EndAt                 *time.Time          `json:"end_at,omitempty"`
	Actions               []actionDTO         `json:"actions"`
}

func newReminderResponse(cfg *domain.ReminderConfig) reminderResponse {
	actions := make([]actionDTO, 0, len(cfg.Actions))
	for _, a := range cfg.Actions {
		actions = append(actions, actionDTO{Label: a.Label, Kind: a.Kind, Payload: a.Payload})
	}

	return reminderResponse{
		ItemID:                cfg.ItemID,
		Enabled:               cfg.Enabled,
		Title:                 cfg.Title,
		Body:                  cfg.Body,
		ScheduleKind:          cfg.ScheduleKind,
		StartAt:               cfg.StartAt,
		TimeZone:              cfg.TimeZone,
		RepeatKind:            cfg.RepeatKind,
		RepeatIntervalMinutes: cfg.RepeatIntervalMinutes,
		EndAt:                 cfg.EndAt,
		Actions:               actions,
	}
}

type enableRequest struct {
	ItemTitle string `json:"item_title"`
}

type snoozeRequest struct {
	Minutes int `json:"minutes"`
}

type actionRequest struct {
	Kind    domain.ActionKind `json:"kind" binding:"required"`
	Payload string            `json:"payload"`
}

type occurrenceResponse struct {
	ItemID      int64     `json:"item_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
}

type deliveryResponse struct {
	Outcome     domain.DeliveryOutcome `json:"outcome"`
	RearmFailed bool                   `json:"rearm_failed,omitempty"`
}
