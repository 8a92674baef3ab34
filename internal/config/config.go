package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ovaphlow/pitchfork/service-globalseller/pkg/database"
	"github.com/ovaphlow/pitchfork/service-globalseller/pkg/utilities"
)

// Config is read from the environment; .env is loaded by main before Load.
type Config struct {
	HTTP         HTTPConfig
	DB           database.Config
	Log          utilities.Config
	MercadoLibre MercadoLibreConfig
	Session      SessionConfig

	SnowflakeNode int64 `envconfig:"SNOWFLAKE_NODE" default:"1"`
}

type HTTPConfig struct {
	Addr         string `envconfig:"HTTP_ADDR" default:"0.0.0.0:8431"`
	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"true"`
}

type MercadoLibreConfig struct {
	BaseURL    string        `envconfig:"ML_API_BASE_URL" default:"https://api.mercadolibre.com"`
	Timeout    time.Duration `envconfig:"ML_HTTP_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"ML_MAX_RETRIES" default:"2"`
}

type SessionConfig struct {
	// SweepInterval of 0 disables the expired-session sweeper.
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023, got %d", c.SnowflakeNode)
	}
	if u, err := url.Parse(c.MercadoLibre.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ML_API_BASE_URL is not an absolute URL: %q", c.MercadoLibre.BaseURL)
	}
	if c.MercadoLibre.MaxRetries < 0 {
		return fmt.Errorf("ML_MAX_RETRIES must not be negative")
	}
	if c.Session.SweepInterval < 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must not be negative")
	}
	return nil
}
