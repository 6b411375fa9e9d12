//go:build gcloud

package config

import (
	"errors"
	"fmt"
)

// UsesRegistry reports whether the timer backend tracks generations in Redis.
// Cloud Tasks always does.
func (c *TimerConfig) UsesRegistry() bool {
	return true
}

func (c *TimerConfig) Validate() error {
	errs := c.validateCommon()

	if c.GCloudProjectID == "" {
		errs = append(errs, errors.New("GCLOUD_PROJECT_ID is required"))
	}
	if c.GCloudLocationID == "" {
		errs = append(errs, errors.New("GCLOUD_LOCATION_ID is required"))
	}
	if c.GCloudQueueID == "" {
		errs = append(errs, errors.New("GCLOUD_QUEUE_ID is required"))
	}
	if c.CallbackURL == "" {
		errs = append(errs, errors.New("DELIVERY_CALLBACK_URL is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("timer configuration errors: %w", errors.Join(errs...))
	}
	return nil
}
