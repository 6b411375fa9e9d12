package timer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type timeoutService struct {
	next    Service
	timeout time.Duration
}

// WithTimeout bounds every call to next. A call that runs out of time returns
// an error matching ErrTimeout.
func WithTimeout(next Service, timeout time.Duration) Service {
	if timeout <= 0 {
		return next
	}
	return &timeoutService{
		next:    next,
		timeout: timeout,
	}
}

func (s *timeoutService) InstallOrReplace(ctx context.Context, name string, delay time.Duration, payload Payload) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return wrapTimeout(ctx, s.next.InstallOrReplace(ctx, name, delay, payload))
}

func (s *timeoutService) Cancel(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return wrapTimeout(ctx, s.next.Cancel(ctx, name))
}

func (s *timeoutService) Claim(ctx context.Context, name, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.next.Claim(ctx, name, token)
	return ok, wrapTimeout(ctx, err)
}

func wrapTimeout(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
