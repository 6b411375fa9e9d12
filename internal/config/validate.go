package config

import "errors"

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Store.Driver == StoreDriverRedis || c.Timer.UsesRegistry()
}

func ValidateForRun(cfg *Config) error {
	errs := []error{
		cfg.Store.Validate(),
		cfg.Timer.Validate(),
		cfg.Schedule.Validate(),
		cfg.Telegram.Validate(),
		cfg.Counter.Validate(),
	}
	if cfg.NeedsRedis() {
		errs = append(errs, cfg.Redis.Validate())
	}
	return errors.Join(errs...)
}
