package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type ScheduleConfig struct {
	DefaultTimeZone string `koanf:"default_time_zone"`
	// ReconcileCron drives the periodic reschedule-all. Empty disables it.
	ReconcileCron           string `koanf:"reconcile_cron"`
	RescheduleRatePerSecond int    `koanf:"reschedule_rate_per_second"`
	DefaultSnoozeMinutes    int    `koanf:"default_snooze_minutes"`
	UpcomingDefaultLimit    int    `koanf:"upcoming_default_limit"`
	UpcomingMaxLimit        int    `koanf:"upcoming_max_limit"`
}

// Location resolves DefaultTimeZone, falling back to time.Local when empty.
func (c *ScheduleConfig) Location() (*time.Location, error) {
	if c.DefaultTimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.DefaultTimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTimeZone, err)
	}
	return loc, nil
}

func (c *ScheduleConfig) Validate() error {
	var errs []error

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.ReconcileCron != "" {
		if _, err := cron.ParseStandard(c.ReconcileCron); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidCron, err))
		}
	}
	if c.RescheduleRatePerSecond <= 0 {
		errs = append(errs, errors.New("RESCHEDULE_RATE_PER_SECOND must be positive"))
	}
	if c.DefaultSnoozeMinutes <= 0 {
		errs = append(errs, errors.New("DEFAULT_SNOOZE_MINUTES must be positive"))
	}
	if c.UpcomingDefaultLimit <= 0 || c.UpcomingMaxLimit <= 0 {
		errs = append(errs, errors.New("UPCOMING_DEFAULT_LIMIT and UPCOMING_MAX_LIMIT must be positive"))
	} else if c.UpcomingDefaultLimit > c.UpcomingMaxLimit {
		errs = append(errs, errors.New("UPCOMING_DEFAULT_LIMIT must not exceed UPCOMING_MAX_LIMIT"))
	}

	return errors.Join(errs...)
}
