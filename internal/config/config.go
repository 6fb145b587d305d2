// Package config defines planner configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers an optional YAML file and PLANNER_* env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// BaseURL is the backend the sync engine talks to.
	BaseURL string `koanf:"base_url"`

	// Addr is the listen address of the reference backend (planner serve).
	Addr string `koanf:"addr"`

	// RequestTimeoutMS bounds every backend request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// TransitionMS is the month transition duration.
	TransitionMS int `koanf:"transition_ms"`

	// SnapshotDir holds the local warm-start snapshot. Empty disables it.
	SnapshotDir string `koanf:"snapshot_dir"`

	// SnapshotCacheBytes sizes the in-memory read cache of the snapshot store.
	SnapshotCacheBytes uint64 `koanf:"snapshot_cache_bytes"`

	// DataDir is where the reference backend persists events and categories.
	DataDir string `koanf:"data_dir"`

	// ResyncCron is a cron spec for periodic full reloads. Empty disables it.
	ResyncCron string `koanf:"resync_cron"`

	// QueueSize bounds the intent queue feeding the mutator worker.
	QueueSize int `koanf:"queue_size"`

	// WeekStart is "sunday" or "monday"; it only affects grid rendering.
	WeekStart string `koanf:"week_start"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		BaseURL:            "http://localhost:5000",
		Addr:               ":5000",
		RequestTimeoutMS:   10_000,
		TransitionMS:       300,
		SnapshotDir:        ".planner/snapshot",
		SnapshotCacheBytes: 1024 * 1024,
		DataDir:            ".planner/data",
		ResyncCron:         "@every 5m",
		QueueSize:          256,
		WeekStart:          "sunday",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// TransitionDuration returns TransitionMS as a duration.
func (c *Config) TransitionDuration() time.Duration {
	return time.Duration(c.TransitionMS) * time.Millisecond
}

// WeekStartDay maps WeekStart onto a time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}
