package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process-wide settings for the panel. Everything comes
// from the environment, optionally seeded from a .env file.
type Config struct {
	Port     int    `env:"PORT" envDefault:"3000"`
	DataDir  string `env:"DATA_DIR" envDefault:"database"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

func New() (*Config, error) {
	// A missing .env is fine, system environment wins either way.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}
