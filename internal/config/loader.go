package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PLANNER_CONFIG is set
//  3. env (prefix PLANNER_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PLANNER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PLANNER_BASE_URL -> base_url (flat keys, underscores preserved).
	envProvider := env.Provider("PLANNER_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "planner_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url %q is not an absolute URL", ErrInvalidConfig, c.BaseURL)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.TransitionMS < 0 {
		return fmt.Errorf("%w: transition_ms must not be negative", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	switch c.WeekStart {
	case "sunday", "monday":
	default:
		return fmt.Errorf("%w: week_start must be sunday or monday", ErrInvalidConfig)
	}
	if c.ResyncCron != "" {
		if _, err := cron.ParseStandard(c.ResyncCron); err != nil {
			return fmt.Errorf("%w: resync_cron: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
