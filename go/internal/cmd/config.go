package main

import (
	"fmt"
	"os"

	"github.com/mcdev12/timeduel/go/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server config.ServerConfig
	Rules  config.Rules
}

func loadConfig() (*Config, error) {
	server, err := config.LoadServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	rules, err := config.LoadRules(server.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	return &Config{Server: server, Rules: rules}, nil
}

func setupLogging(cfg config.ServerConfig) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	zerolog.SetGlobalLevel(cfg.Level())
}
