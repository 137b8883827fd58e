package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParsingConfig wraps env parsing failures so callers can detect them
// without matching on message text.
var ErrParsingConfig = errors.New("failed to parse environment variables into config")

var dotenvOnce sync.Once

// Load parses environment variables into a fresh T. A .env file in the
// working directory is loaded once per process; its absence is not an error.
func Load[T any]() (T, error) {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad is Load for required startup configuration; it panics on failure.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
