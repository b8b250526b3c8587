// Package config loads process configuration from the environment.
//
// A .env file in the working directory is read first (missing is fine),
// then variables are parsed into Config with defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the server configuration.
type Config struct {
	Port           string        `env:"PORT" envDefault:"5175"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	ClientOrigin   string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	CookieName     string        `env:"COOKIE_NAME" envDefault:"memory_game"`
	DailySalt      string        `env:"DAILY_SALT" envDefault:"local_dev_salt"`
	SymbolsDir     string        `env:"SYMBOLS_DIR"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	Production     bool          `env:"PRODUCTION" envDefault:"false"`
}

// Load reads .env files (if present) and parses the environment.
func Load(files ...string) (Config, error) {
	// Missing .env files are expected outside development.
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Production && c.JWTSecret == "dev_secret_change_me" {
		return errors.New("config: JWT_SECRET must be set in production")
	}
	if c.SessionIdleTTL <= 0 {
		return errors.New("config: SESSION_IDLE_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("config: SWEEP_INTERVAL must be positive")
	}
	return nil
}
