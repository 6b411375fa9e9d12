package presenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
	"github.com/KasumiMercury/primind-reminder-scheduler/internal/observability/logging"
)

// ActionFunc handles an action chosen from a delivered reminder.
type ActionFunc func(ctx context.Context, itemID int64, kind domain.ActionKind, payload string) error

type TelegramConfig struct {
	Token       string
	ChatID      int64
	PollTimeout time.Duration
}

type sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// TelegramPresenter sends reminders to one chat with inline buttons for the
// surfaced actions and routes button presses back to an ActionFunc.
type TelegramPresenter struct {
	bot    *tele.Bot
	sender sender
	chatID int64

	mu       sync.RWMutex
	onAction ActionFunc
	started  bool
}

func NewTelegramPresenter(cfg TelegramConfig) (*TelegramPresenter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}

	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	p := &TelegramPresenter{
		bot:    b,
		sender: b,
		chatID: cfg.ChatID,
	}
	b.Handle(tele.OnCallback, p.handleCallback)

	return p, nil
}

// OnAction sets the handler for button presses. The delivery service owns
// the handler and is built after the presenter.
func (p *TelegramPresenter) OnAction(fn ActionFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onAction = fn
}

// Start begins long polling for button presses in the background.
func (p *TelegramPresenter) Start() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	slog.Info("telegram polling started",
		slog.String("event", "telegram.start"),
		slog.Int64("chat_id", p.chatID),
	)
	go p.bot.Start()
}

func (p *TelegramPresenter) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	p.bot.Stop()
}

func (p *TelegramPresenter) Present(ctx context.Context, n domain.Notification) error {
	opts := &tele.SendOptions{}
	if markup := buildMarkup(ctx, n); markup != nil {
		opts.ReplyMarkup = markup
	}

	if _, err := p.sender.Send(&tele.Chat{ID: p.chatID}, renderNotification(n), opts); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	slog.DebugContext(ctx, "reminder sent to telegram",
		slog.String("event", "reminder.present.telegram"),
		slog.Int64("item_id", n.ItemID),
	)
	return nil
}

func (p *TelegramPresenter) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	if m := c.Message(); m != nil && m.Chat != nil && m.Chat.ID != p.chatID {
		return nil
	}

	ctx := logging.WithModule(context.Background(), logging.Module("telegram"))

	itemID, kind, payload, err := ParseCallback(cb.Data)
	if err != nil {
		slog.WarnContext(ctx, "ignoring unknown callback",
			slog.String("event", "telegram.callback.invalid"),
			slog.String("data", cb.Data),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Unknown action"})
	}

	p.mu.RLock()
	handler := p.onAction
	p.mu.RUnlock()
	if handler == nil {
		return c.Respond(&tele.CallbackResponse{Text: "Not ready"})
	}

	if err := handler(ctx, itemID, kind, payload); err != nil {
		slog.ErrorContext(ctx, "telegram action failed",
			slog.String("event", "telegram.callback.fail"),
			slog.Int64("item_id", itemID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Action failed"})
	}

	return c.Respond(&tele.CallbackResponse{Text: ackText(kind)})
}

func renderNotification(n domain.Notification) string {
	var b strings.Builder
	if n.Snoozed {
		b.WriteString("(snoozed) ")
	}
	b.WriteString(n.Title)
	if body := strings.TrimSpace(n.Body); body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	return b.String()
}

func buildMarkup(ctx context.Context, n domain.Notification) *tele.ReplyMarkup {
	btns := make([]tele.Btn, 0, len(n.Actions))
	for _, a := range n.Actions {
		data, err := EncodeCallback(n.ItemID, a)
		if err != nil {
			slog.WarnContext(ctx, "skipping action button",
				slog.Int64("item_id", n.ItemID),
				slog.String("label", a.Label),
				slog.String("error", err.Error()),
			)
			continue
		}
		btns = append(btns, tele.Btn{Text: a.Label, Data: data})
	}
	if len(btns) == 0 {
		return nil
	}

	rm := &tele.ReplyMarkup{}
	rm.Inline(rm.Row(btns...))
	return rm
}

func ackText(kind domain.ActionKind) string {
	switch kind {
	case domain.ActionMarkDone:
		return "Marked done"
	case domain.ActionSnooze:
		return "Snoozed"
	default:
		return "OK"
	}
}
