package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// ServerConfig holds process-level settings read from the environment.
type ServerConfig struct {
	Port           string   `env:"DUEL_PORT" envDefault:"8090"`
	RedisURL       string   `env:"REDIS_URL"`
	NATSURL        string   `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RulesFile      string   `env:"RULES_FILE"`
	RequireOnline  bool     `env:"REQUIRE_ONLINE" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerConfig parses ServerConfig from the environment.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := ParseEnv(&cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Level returns the zerolog level for LogLevel, defaulting to info.
func (c ServerConfig) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
