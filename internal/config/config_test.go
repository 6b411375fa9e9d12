package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(configFileEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port: got %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Store.Driver != StoreDriverRedis {
		t.Errorf("Store.Driver: got %q, want %q", cfg.Store.Driver, StoreDriverRedis)
	}
	if cfg.Redis.Addr != defaultRedisAddr {
		t.Errorf("Redis.Addr: got %q, want %q", cfg.Redis.Addr, defaultRedisAddr)
	}
	if cfg.Timer.CallTimeout != 10*time.Second {
		t.Errorf("Timer.CallTimeout: got %v, want 10s", cfg.Timer.CallTimeout)
	}
	if cfg.Timer.MaxRetries != 3 {
		t.Errorf("Timer.MaxRetries: got %d, want 3", cfg.Timer.MaxRetries)
	}
	if cfg.Schedule.ReconcileCron != "@every 15m" {
		t.Errorf("Schedule.ReconcileCron: got %q, want %q", cfg.Schedule.ReconcileCron, "@every 15m")
	}
	if cfg.Schedule.DefaultSnoozeMinutes != 10 {
		t.Errorf("Schedule.DefaultSnoozeMinutes: got %d, want 10", cfg.Schedule.DefaultSnoozeMinutes)
	}
	if cfg.Schedule.UpcomingDefaultLimit != 20 || cfg.Schedule.UpcomingMaxLimit != 200 {
		t.Errorf("upcoming limits: got %d/%d, want 20/200", cfg.Schedule.UpcomingDefaultLimit, cfg.Schedule.UpcomingMaxLimit)
	}
	if cfg.Telegram.Enabled() {
		t.Errorf("Telegram.Enabled(): got true, want false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(configFileEnv, "")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("TIMER_CALL_TIMEOUT", "3s")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("UPCOMING_MAX_LIMIT", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Port: got %q, want %q", cfg.Server.Port, "9090")
	}
	if cfg.Store.Driver != StoreDriverSQLite {
		t.Errorf("Store.Driver: got %q, want %q", cfg.Store.Driver, StoreDriverSQLite)
	}
	if cfg.Redis.DB != 2 || !cfg.Redis.TLS {
		t.Errorf("Redis: got db=%d tls=%v, want db=2 tls=true", cfg.Redis.DB, cfg.Redis.TLS)
	}
	if cfg.Timer.CallTimeout != 3*time.Second {
		t.Errorf("Timer.CallTimeout: got %v, want 3s", cfg.Timer.CallTimeout)
	}
	if cfg.Telegram.ChatID != -100123 {
		t.Errorf("Telegram.ChatID: got %d, want -100123", cfg.Telegram.ChatID)
	}
	if cfg.Schedule.UpcomingMaxLimit != 50 {
		t.Errorf("UpcomingMaxLimit: got %d, want 50", cfg.Schedule.UpcomingMaxLimit)
	}
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv(configFileEnv, "")
	t.Setenv("REDIS_DB", "abc")

	if _, err := Load(); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Load() error: got %v, want %v", err, ErrInvalidValue)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: \"7000\"\nsqlite_path: /tmp/from-file.db\ndefault_snooze_minutes: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(configFileEnv, path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "7001" {
		t.Errorf("Port: got %q, want env value %q", cfg.Server.Port, "7001")
	}
	if cfg.Store.SQLitePath != "/tmp/from-file.db" {
		t.Errorf("SQLitePath: got %q, want %q", cfg.Store.SQLitePath, "/tmp/from-file.db")
	}
	if cfg.Schedule.DefaultSnoozeMinutes != 5 {
		t.Errorf("DefaultSnoozeMinutes: got %d, want 5", cfg.Schedule.DefaultSnoozeMinutes)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(configFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Errorf("Load() error: got nil, want error")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func validSchedule() ScheduleConfig {
	return ScheduleConfig{
		DefaultTimeZone:         "UTC",
		ReconcileCron:           "@every 15m",
		RescheduleRatePerSecond: 50,
		DefaultSnoozeMinutes:    10,
		UpcomingDefaultLimit:    20,
		UpcomingMaxLimit:        200,
	}
}

func TestScheduleConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ScheduleConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(*ScheduleConfig) {}},
		{name: "cron disabled", mutate: func(c *ScheduleConfig) { c.ReconcileCron = "" }},
		{name: "standard cron", mutate: func(c *ScheduleConfig) { c.ReconcileCron = "*/5 * * * *" }},
		{name: "bad zone", mutate: func(c *ScheduleConfig) { c.DefaultTimeZone = "Mars/Olympus" }, wantErr: ErrInvalidTimeZone},
		{name: "bad cron", mutate: func(c *ScheduleConfig) { c.ReconcileCron = "every minute" }, wantErr: ErrInvalidCron},
		{name: "zero rate", mutate: func(c *ScheduleConfig) { c.RescheduleRatePerSecond = 0 }, wantErr: errAny},
		{name: "default above max", mutate: func(c *ScheduleConfig) { c.UpcomingDefaultLimit = 300 }, wantErr: errAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validSchedule()
			tt.mutate(&c)

			err := c.Validate()
			switch {
			case tt.wantErr == nil && err != nil:
				t.Errorf("Validate() error = %v, want nil", err)
			case tt.wantErr == errAny && err == nil:
				t.Errorf("Validate() error: got nil, want error")
			case tt.wantErr != nil && tt.wantErr != errAny && !errors.Is(err, tt.wantErr):
				t.Errorf("Validate() error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

var errAny = errors.New("any error")

func TestValidateForRun(t *testing.T) {
	base := func() *Config {
		return &Config{
			Store:    StoreConfig{Driver: StoreDriverSQLite, SQLitePath: "x.db"},
			Timer:    TimerConfig{Backend: TimerBackendLocal, CallTimeout: time.Second},
			Schedule: validSchedule(),
		}
	}

	t.Run("sqlite with local timers needs no redis", func(t *testing.T) {
		cfg := base()
		if cfg.NeedsRedis() {
			t.Errorf("NeedsRedis(): got true, want false")
		}
		if err := ValidateForRun(cfg); err != nil {
			t.Errorf("ValidateForRun() error = %v", err)
		}
	})

	t.Run("redis store requires address", func(t *testing.T) {
		cfg := base()
		cfg.Store.Driver = StoreDriverRedis
		if err := ValidateForRun(cfg); !errors.Is(err, ErrRedisAddrMissing) {
			t.Errorf("ValidateForRun() error: got %v, want %v", err, ErrRedisAddrMissing)
		}
	})

	t.Run("errors are joined", func(t *testing.T) {
		cfg := base()
		cfg.Store.Driver = "mongo"
		cfg.Telegram.BotToken = "token"
		err := ValidateForRun(cfg)
		if !errors.Is(err, ErrUnknownStoreDriver) {
			t.Errorf("ValidateForRun() error: got %v, want %v", err, ErrUnknownStoreDriver)
		}
		if !errors.Is(err, ErrTelegramChatID) {
			t.Errorf("ValidateForRun() error: got %v, want %v", err, ErrTelegramChatID)
		}
	})

	t.Run("counter url must be absolute", func(t *testing.T) {
		cfg := base()
		cfg.Counter.ServiceURL = "counter.local/api"
		if err := ValidateForRun(cfg); !errors.Is(err, ErrInvalidCounterURL) {
			t.Errorf("ValidateForRun() error: got %v, want %v", err, ErrInvalidCounterURL)
		}
	})
}
