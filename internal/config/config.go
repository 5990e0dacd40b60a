// Package config defines service configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named by
// MLATML_CONFIG, then MLATML_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the tabular store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`

	// MinGap is the number of weeks a presenter sits out.
	MinGap int `koanf:"min_gap"`
	// PresentationWeight is the usage cost of one presentation.
	PresentationWeight float64 `koanf:"presentation_weight"`
	// LookbackDays bounds which presentations count toward usage; 0 counts all.
	LookbackDays int `koanf:"lookback_days"`
	// Seed is the default tie-breaking seed for assignment runs.
	Seed int64 `koanf:"seed"`
	// MeetingWeekday is the weekday new slots fall on.
	MeetingWeekday string `koanf:"meeting_weekday"`
	// WeeksAhead is the default number of slots added by an extend call.
	WeeksAhead int `koanf:"weeks_ahead"`

	// QueueSize bounds the notification queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of mail workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the sent-notification memory.
	DedupeSize int `koanf:"dedupe_size"`

	// MailDriver selects console or sendgrid delivery.
	MailDriver     string `koanf:"mail_driver"`
	SendGridAPIKey string `koanf:"sendgrid_api_key"`
	MailFrom       string `koanf:"mail_from"`
	MailFromName   string `koanf:"mail_from_name"`
	OrganizerName  string `koanf:"organizer_name"`

	// AppURL is the public base URL used in confirmation links.
	AppURL string `koanf:"app_url"`
	// TokenSecret signs confirmation links.
	TokenSecret string `koanf:"token_secret"`
	// TokenTTL is how long a confirmation link stays valid.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// MetricsEnabled exposes collectors on /healthz.
	MetricsEnabled bool `koanf:"metrics_enabled"`
	// MetricsInterval is how often runtime and schedule gauges refresh.
	MetricsInterval time.Duration `koanf:"metrics_interval"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		StoreDriver:        "memory",
		SQLitePath:         "mlatml.db",
		MinGap:             7,
		PresentationWeight: 4,
		LookbackDays:       150,
		Seed:               42,
		MeetingWeekday:     "wednesday",
		WeeksAhead:         1,
		QueueSize:          1024,
		WorkerCount:        2,
		DedupeSize:         4096,
		MailDriver:         "console",
		MailFrom:           "noreply@example.com",
		MailFromName:       "ML Subgroup",
		OrganizerName:      "The organizers",
		AppURL:             "http://localhost:9080",
		TokenSecret:        "change-me",
		TokenTTL:           14 * 24 * time.Hour,
		MetricsEnabled:     true,
		MetricsInterval:    10 * time.Second,
	}
}

// Lookback returns LookbackDays as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MinGap <= 0:
		return fmt.Errorf("%w: min_gap must be positive", ErrInvalidConfig)
	case c.PresentationWeight <= 0:
		return fmt.Errorf("%w: presentation_weight must be positive", ErrInvalidConfig)
	case c.LookbackDays < 0:
		return fmt.Errorf("%w: lookback_days must not be negative", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MetricsInterval <= 0:
		return fmt.Errorf("%w: metrics_interval must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.StoreDriver) {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	switch strings.ToLower(c.MailDriver) {
	case "console":
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("%w: sendgrid_api_key is required for the sendgrid driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown mail_driver %q", ErrInvalidConfig, c.MailDriver)
	}

	if c.TokenSecret == "" {
		return fmt.Errorf("%w: token_secret must not be empty", ErrInvalidConfig)
	}
	return nil
}
