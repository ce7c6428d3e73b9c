package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if K100_CONFIG is set
//  3. env (prefix K100_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("K100_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrLoadConfig, err)
		}
	}

	// Environment variables: K100_DATABASE_URL, K100_CHECK_INTERVAL, ...
	// Map env keys like K100_SMTP_PORT -> smtp_port (flat keys); underscores
	// are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("K100_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "k100_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: database_url must not be empty", ErrInvalidConfig)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: route_similarity_threshold must be in (0, 1]", ErrInvalidConfig)
	}
	if c.MaxDeviationMeters <= 0 {
		return fmt.Errorf("%w: gps_max_deviation_meters must be positive", ErrInvalidConfig)
	}
	if c.MinDistanceKM <= 0 {
		return fmt.Errorf("%w: min_activity_distance_km must be positive", ErrInvalidConfig)
	}
	if c.WindowStartHour < 0 || c.WindowEndHour > 24 || c.WindowStartHour >= c.WindowEndHour {
		return fmt.Errorf("%w: active window hours must satisfy 0 <= start < end <= 24", ErrInvalidConfig)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check_interval must be positive", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, c.Timezone)
	}
	return nil
}

// Location resolves the configured timezone. Validation in Load guarantees it
// parses; UTC is the fallback if the config was built by hand.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
