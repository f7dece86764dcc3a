package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"

	applog "spendbook/internal/log"
)

var validBackends = []string{"memory", "sqlite"}

type Config struct {
	// HTTP Server
	Port string `env:"PORT" envDefault:"8081"`

	// Storage
	DataBackend  string `env:"DATA_BACKEND" envDefault:"memory"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/spendbook.db"`
	StorageKey   string `env:"STORAGE_KEY" envDefault:"expenses-data"`

	// Domain
	UndoWindow time.Duration `env:"UNDO_WINDOW" envDefault:"3s"`
	Timezone   string        `env:"TIMEZONE" envDefault:"Local"`

	// Logging and notifications
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	NotificationTTL time.Duration `env:"NOTIFICATION_TTL" envDefault:"10s"`

	// AMQP (optional)
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"spendbook"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"notifications"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Location resolves Timezone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AMQPEnabled reports whether notifications are published to a broker.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

	if c.UndoWindow < 500*time.Millisecond || c.UndoWindow > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid undo window %v: must be between 500ms and 1m", c.UndoWindow))
	}
	if c.NotificationTTL < time.Second || c.NotificationTTL > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid notification TTL %v: must be between 1s and 1h", c.NotificationTTL))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.AMQPEnabled() {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
