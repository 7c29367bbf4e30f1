// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the relay. Defaults match the development
// setup: Redis persistence on localhost and the stock 500ms abandonment delay.
type Config struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	PublicDir string `env:"PUBLIC_DIR" envDefault:"public"`

	// RedisAddr is the default persistence backend. Setting PostgresDSN
	// switches persistence to Postgres instead.
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	PostgresDSN string `env:"DB_DSN"`

	ResetDelay        time.Duration `env:"RESET_DELAY" envDefault:"500ms"`
	CancelResetOnJoin bool          `env:"CANCEL_RESET_ON_JOIN" envDefault:"false"`

	// Hydrate loads persisted room history back into memory at startup.
	// Off by default: the baseline design starts empty after a restart.
	Hydrate bool `env:"HYDRATE" envDefault:"false"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
