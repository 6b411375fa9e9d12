package presenter

import (
	"context"
	"log/slog"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

// LogPresenter writes delivered reminders to the structured log.
type LogPresenter struct{}

func NewLogPresenter() *LogPresenter {
	return &LogPresenter{}
}

func (p *LogPresenter) Present(ctx context.Context, n domain.Notification) error {
	actions := make([]string, 0, len(n.Actions))
	for _, a := range n.Actions {
		actions = append(actions, a.Label)
	}

	slog.InfoContext(ctx, "reminder delivered",
		slog.String("event", "reminder.present.log"),
		slog.Int64("item_id", n.ItemID),
		slog.String("title", n.Title),
		slog.String("body", n.Body),
		slog.Time("scheduled_at", n.ScheduledAt),
		slog.Bool("snoozed", n.Snoozed),
		slog.Any("actions", actions),
	)
	return nil
}
