package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

const watchBufferSize = 64

// changeHub fans config changes out to in-process watchers. A watcher that
// does not keep up loses changes rather than blocking writers.
type changeHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan domain.ConfigChange
}

func newChangeHub() *changeHub {
	return &changeHub{subs: make(map[int]chan domain.ConfigChange)}
}

func (h *changeHub) subscribe(ctx context.Context) <-chan domain.ConfigChange {
	ch := make(chan domain.ConfigChange, watchBufferSize)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (h *changeHub) publish(change domain.ConfigChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- change:
		default:
			slog.Warn("config change dropped for slow watcher",
				slog.String("event", "reminder.watch.drop"),
				slog.Int64("item_id", change.ItemID),
				slog.String("kind", string(change.Kind)),
			)
		}
	}
}
