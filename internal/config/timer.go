package config

import (
	"errors"
	"time"
)

const (
	TimerBackendLocal = "local"
	TimerBackendTasks = "tasks"
)

type TimerConfig struct {
	Backend     string        `koanf:"timer_backend"`
	CallTimeout time.Duration `koanf:"timer_call_timeout"`

	PrimindTasksURL string `koanf:"primind_tasks_url"`
	QueueName       string `koanf:"task_queue_name"`
	MaxRetries      int    `koanf:"task_queue_max_retries"`
	// CallbackURL is the delivery endpoint the queue calls when a task fires.
	CallbackURL string `koanf:"delivery_callback_url"`

	GCloudProjectID  string `koanf:"gcloud_project_id"`
	GCloudLocationID string `koanf:"gcloud_location_id"`
	GCloudQueueID    string `koanf:"gcloud_queue_id"`

	// GCloudInvokerAccount signs an OIDC token on each callback when set.
	GCloudInvokerAccount string `koanf:"gcloud_invoker_service_account"`
}

func (c *TimerConfig) validateCommon() []error {
	var errs []error
	if c.CallTimeout <= 0 {
		errs = append(errs, errors.New("TIMER_CALL_TIMEOUT must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("TASK_QUEUE_MAX_RETRIES must not be negative"))
	}
	return errs
}
