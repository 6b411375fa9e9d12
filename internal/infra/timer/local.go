package timer

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// FireFunc receives the payload of a fired in-process timer.
type FireFunc func(ctx context.Context, payload Payload)

type localTimer struct {
	timer   *time.Timer
	version uint64
}

// LocalService runs timers inside the process with time.AfterFunc. Timers do
// not survive a restart; the reschedule-all pass restores them.
type LocalService struct {
	mu      sync.Mutex
	timers  map[string]*localTimer
	version uint64
	onFire  FireFunc
	stopped bool
}

func NewLocalService() *LocalService {
	return &LocalService{
		timers: make(map[string]*localTimer),
	}
}

// OnFire sets the callback invoked when a timer fires. The delivery handler is
// built after the coordinator that owns this service, so it is bound late.
func (s *LocalService) OnFire(fn FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFire = fn
}

func (s *LocalService) InstallOrReplace(_ context.Context, name string, delay time.Duration, payload Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}

	if prev, ok := s.timers[name]; ok {
		prev.timer.Stop()
	}

	s.version++
	version := s.version
	payload.Token = strconv.FormatUint(version, 10)

	s.timers[name] = &localTimer{
		version: version,
		timer: time.AfterFunc(delay, func() {
			s.fire(name, version, payload)
		}),
	}

	slog.Debug("local timer installed",
		slog.String("event", "timer.local.install"),
		slog.String("name", name),
		slog.Duration("delay", delay),
	)

	return nil
}

func (s *LocalService) Cancel(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[name]; ok {
		prev.timer.Stop()
		delete(s.timers, name)
	}

	return nil
}

// Claim always succeeds: a superseded in-process timer never reaches the
// delivery handler because fire drops it by version.
func (s *LocalService) Claim(_ context.Context, _, _ string) (bool, error) {
	return true, nil
}

// Pending reports whether a timer is armed for name.
func (s *LocalService) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

// Len returns the number of armed timers.
func (s *LocalService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every timer and rejects further installs.
func (s *LocalService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, name)
	}
	s.stopped = true
}

func (s *LocalService) fire(name string, version uint64, payload Payload) {
	s.mu.Lock()
	current, ok := s.timers[name]
	if !ok || current.version != version {
		s.mu.Unlock()
		return
	}
	delete(s.timers, name)
	handler := s.onFire
	s.mu.Unlock()

	if handler == nil {
		slog.Warn("local timer fired without a handler",
			slog.String("event", "timer.local.unhandled"),
			slog.String("name", name),
		)
		return
	}

	handler(context.Background(), payload)
}
