package config

import "errors"

var (
	ErrInvalidValue       = errors.New("invalid configuration value")
	ErrRedisAddrMissing   = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB     = errors.New("REDIS_DB must not be negative")
	ErrUnknownStoreDriver = errors.New("STORE_DRIVER must be redis or sqlite")
	ErrSQLitePathMissing  = errors.New("SQLITE_PATH is required")
	ErrUnknownTimer       = errors.New("unknown TIMER_BACKEND")
	ErrInvalidTimeZone    = errors.New("DEFAULT_TIME_ZONE is not a loadable zone")
	ErrInvalidCron        = errors.New("RECONCILE_CRON is not a valid cron spec")
	ErrTelegramChatID     = errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	ErrInvalidCounterURL  = errors.New("COUNTER_SERVICE_URL must be an absolute http(s) URL")
)
