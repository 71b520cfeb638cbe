package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from the process environment. Fields are mapped with
// `env` tags:
//
//	type Config struct {
//	    HTTPPort        int `env:"OPTIONS_HTTP_PORT" envDefault:"8011"`
//	    CacheTTLSeconds int `env:"OPTIONS_CACHE_TTL_SECONDS" envDefault:"300"`
//	}
//
// Validation beyond type conversion stays with the caller.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment config: %w", err)
	}
	return nil
}
