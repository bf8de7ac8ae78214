package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configurable server parameters.
type Config struct {
	WSPort int `json:"ws_port" env:"WS_PORT"`

	// MaxNameLength bounds the display name sent with join.
	MaxNameLength int `json:"max_name_length" env:"MAX_NAME_LENGTH"`

	// ReorderCountdownSec is the number of ticks in the reorder window.
	ReorderCountdownSec int `json:"reorder_countdown_sec" env:"REORDER_COUNTDOWN_SEC"`
	// ReorderTickMS is the interval between two reorder ticks.
	ReorderTickMS int `json:"reorder_tick_ms" env:"REORDER_TICK_MS"`

	// PresenceDebounceMS is how long the online-count broadcast waits for the join/leave burst to settle.
	PresenceDebounceMS int `json:"presence_debounce_ms" env:"PRESENCE_DEBOUNCE_MS"`

	// DatabaseURL selects Postgres for round history.
	DatabaseURL string `json:"database_url" env:"DATABASE_URL"`
	// SQLitePath selects a local SQLite file when DatabaseURL is empty.
	// With neither set, history is not kept.
	SQLitePath string `json:"sqlite_path" env:"SQLITE_PATH"`

	// AuthBaseURL enables bearer-token checks on the results API when set.
	AuthBaseURL string `json:"auth_base_url" env:"AUTH_BASE_URL"`

	LogLevel string `json:"log_level" env:"LOG_LEVEL"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		WSPort:              23456,
		MaxNameLength:       24,
		ReorderCountdownSec: 15,
		ReorderTickMS:       1000,
		PresenceDebounceMS:  1000,
		LogLevel:            "info",
	}
}

// ReorderTick returns ReorderTickMS as a duration.
func (c *Config) ReorderTick() time.Duration {
	return time.Duration(c.ReorderTickMS) * time.Millisecond
}

// PresenceDebounce returns PresenceDebounceMS as a duration.
func (c *Config) PresenceDebounce() time.Duration {
	return time.Duration(c.PresenceDebounceMS) * time.Millisecond
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values; an unparsable
// variable is reported and leaves its field untouched.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config.json", "tag", "config", "err", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		slog.Warn("invalid environment override", "tag", "config", "err", err)
	}

	if cfg.ReorderCountdownSec < 1 {
		slog.Warn("reorder countdown below 1; using 1", "tag", "config", "value", cfg.ReorderCountdownSec)
		cfg.ReorderCountdownSec = 1
	}
	if cfg.ReorderTickMS < 1 {
		cfg.ReorderTickMS = Defaults().ReorderTickMS
	}
	if cfg.PresenceDebounceMS < 0 {
		cfg.PresenceDebounceMS = 0
	}

	return cfg
}
