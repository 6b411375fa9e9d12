package upcoming

import (
	"iter"
	"time"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

// mergeSource is one config's lazy occurrence sequence, positioned at its
// next unconsumed instant.
type mergeSource struct {
	cfg   *domain.ReminderConfig
	next  time.Time
	pull  func() (time.Time, bool)
	stop  func()
	taken int
	index int
}

func newMergeSource(cfg *domain.ReminderConfig, seq iter.Seq[time.Time]) (*mergeSource, bool) {
	pull, stop := iter.Pull(seq)
	next, ok := pull()
	if !ok {
		stop()
		return nil, false
	}
	return &mergeSource{
		cfg:   cfg,
		next:  next,
		pull:  pull,
		stop:  stop,
		index: -1,
	}, true
}

// advance moves to the following instant and reports whether one exists.
func (s *mergeSource) advance() bool {
	next, ok := s.pull()
	if !ok {
		return false
	}
	s.next = next
	return true
}

// mergeQueue is a min-heap of sources ordered by their next instant.
type mergeQueue struct {
	items []*mergeSource
}

func newMergeQueue(capacity int) *mergeQueue {
	return &mergeQueue{
		items: make([]*mergeSource, 0, capacity),
	}
}

func (q *mergeQueue) Len() int {
	return len(q.items)
}

func (q *mergeQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]

	if !a.next.Equal(b.next) {
		return a.next.Before(b.next)
	}

	// Equal instants come out in item id order
	return a.cfg.ItemID < b.cfg.ItemID
}

func (q *mergeQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *mergeQueue) Push(x any) {
	item := x.(*mergeSource)
	item.index = len(q.items)
	q.items = append(q.items, item)
}

func (q *mergeQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	q.items = old[0 : n-1]
	return item
}

func (q *mergeQueue) stopAll() {
	for _, item := range q.items {
		item.stop()
	}
}
