package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// configFileEnv names an optional YAML file whose flat keys mirror the
// lowercased environment variable names.
const configFileEnv = "CONFIG_FILE"

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Redis    RedisConfig
	Timer    TimerConfig
	Schedule ScheduleConfig
	Telegram TelegramConfig
	Counter  CounterConfig
	Recorder RecorderConfig
}

type ServerConfig struct {
	Port     string `koanf:"port"`
	LogLevel string `koanf:"log_level"`
}

func defaults() map[string]any {
	return map[string]any{
		"port":      "8080",
		"log_level": "info",

		"store_driver": StoreDriverRedis,
		"sqlite_path":  "reminders.db",

		"redis_addr":     defaultRedisAddr,
		"redis_password": "",
		"redis_db":       defaultRedisDB,
		"redis_tls":      false,

		"timer_backend":                  TimerBackendLocal,
		"timer_call_timeout":             "10s",
		"primind_tasks_url":              "",
		"task_queue_name":                "default",
		"task_queue_max_retries":         3,
		"delivery_callback_url":          "",
		"gcloud_project_id":              "",
		"gcloud_location_id":             "",
		"gcloud_queue_id":                "",
		"gcloud_invoker_service_account": "",

		"default_time_zone":          "",
		"reconcile_cron":             "@every 15m",
		"reschedule_rate_per_second": 50,
		"default_snooze_minutes":     10,
		"upcoming_default_limit":     20,
		"upcoming_max_limit":         200,

		"counter_service_url": "",

		"telegram_bot_token":    "",
		"telegram_chat_id":      0,
		"telegram_poll_timeout": "10s",

		"delivery_results_disabled": false,
		"influxdb_url":              "http://localhost:8086",
		"influxdb_token":            "",
		"influxdb_org":              "",
		"influxdb_bucket":           "reminder_deliveries",
		"bigquery_project_id":       "",
		"bigquery_dataset":          "reminder_deliveries",
		"bigquery_table":            "deliveries",
	}
}

// Load reads defaults, then the optional CONFIG_FILE, then environment
// variables. Only variables whose lowercased name is a known key are read.
func Load() (*Config, error) {
	defaultValues := defaults()
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultValues, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(configFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := defaultValues[key]; !ok {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	targets := []any{
		&cfg.Server,
		&cfg.Store,
		&cfg.Redis,
		&cfg.Timer,
		&cfg.Schedule,
		&cfg.Telegram,
		&cfg.Counter,
		&cfg.Recorder,
	}
	for _, target := range targets {
		if err := k.Unmarshal("", target); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
	}

	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	if cfg.Recorder.BigQueryProjectID == "" {
		cfg.Recorder.BigQueryProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}

	return &cfg, nil
}

func (c *ServerConfig) Level() slog.Level {
	return ParseLogLevel(c.LogLevel)
}

func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
