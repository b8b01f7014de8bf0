// Package config loads storex CLI settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds settings shared by every CLI command.
type Config struct {
	LogLevel        string        `env:"STOREX_LOG_LEVEL" envDefault:"info"`
	MaxDepth        int           `env:"STOREX_MAX_DEPTH" envDefault:"64"`
	TickRate        time.Duration `env:"STOREX_TICK_RATE" envDefault:"10ms"`
	MaxTasksPerTick int           `env:"STOREX_MAX_TASKS_PER_TICK" envDefault:"1000"`
}

// Load reads optional dotenv files, then parses the environment.
// Missing dotenv files are ignored; variables already set win.
func Load(dotenv ...string) (Config, error) {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxTasksPerTick <= 0 {
		return Config{}, fmt.Errorf("STOREX_MAX_TASKS_PER_TICK must be positive, got %d", cfg.MaxTasksPerTick)
	}
	if cfg.TickRate <= 0 {
		return Config{}, fmt.Errorf("STOREX_TICK_RATE must be positive, got %s", cfg.TickRate)
	}
	return cfg, nil
}

// Level maps LogLevel to a slog level. Unknown values fall back to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
