package config

import (
	"net/url"
	"time"
)

type TelegramConfig struct {
	BotToken    string        `koanf:"telegram_bot_token"`
	ChatID      int64         `koanf:"telegram_chat_id"`
	PollTimeout time.Duration `koanf:"telegram_poll_timeout"`
}

func (c *TelegramConfig) Enabled() bool {
	return c.BotToken != ""
}

func (c *TelegramConfig) Validate() error {
	if c.Enabled() && c.ChatID == 0 {
		return ErrTelegramChatID
	}
	return nil
}

type CounterConfig struct {
	// ServiceURL is the counter service base URL. Empty disables mark-done.
	ServiceURL string `koanf:"counter_service_url"`
}

func (c *CounterConfig) Validate() error {
	if c.ServiceURL == "" {
		return nil
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidCounterURL
	}
	return nil
}

type RecorderConfig struct {
	Disabled bool `koanf:"delivery_results_disabled"`

	InfluxDBURL    string `koanf:"influxdb_url"`
	InfluxDBToken  string `koanf:"influxdb_token"`
	InfluxDBOrg    string `koanf:"influxdb_org"`
	InfluxDBBucket string `koanf:"influxdb_bucket"`

	BigQueryProjectID string `koanf:"bigquery_project_id"`
	BigQueryDataset   string `koanf:"bigquery_dataset"`
	BigQueryTable     string `koanf:"bigquery_table"`
}
