//go:build !gcloud

package config

import (
	"errors"
	"fmt"
)

// UsesRegistry reports whether the timer backend tracks generations in Redis.
func (c *TimerConfig) UsesRegistry() bool {
	return c.Backend == TimerBackendTasks
}

func (c *TimerConfig) Validate() error {
	errs := c.validateCommon()

	switch c.Backend {
	case TimerBackendLocal:
	case TimerBackendTasks:
		if c.PrimindTasksURL == "" {
			errs = append(errs, errors.New("PRIMIND_TASKS_URL is required"))
		}
		if c.CallbackURL == "" {
			errs = append(errs, errors.New("DELIVERY_CALLBACK_URL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownTimer, c.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("timer configuration errors: %w", errors.Join(errs...))
	}
	return nil
}
