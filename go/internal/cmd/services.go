package main

import (
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeduel/go/internal/duel/coordinator"
	"github.com/mcdev12/timeduel/go/internal/duel/gateway"
	"github.com/mcdev12/timeduel/go/internal/duel/outbox"
	outboxdb "github.com/mcdev12/timeduel/go/internal/duel/outbox/db"
	"github.com/mcdev12/timeduel/go/internal/duel/presence"
	"github.com/mcdev12/timeduel/go/internal/duel/session"
	"github.com/mcdev12/timeduel/go/internal/match"
	matchdb "github.com/mcdev12/timeduel/go/internal/match/db"
	"github.com/mcdev12/timeduel/go/internal/stats"
)

type Services struct {
	Matches     *match.Service
	Stats       *stats.App
	Coordinator *coordinator.Coordinator
	Presence    *presence.Registry
	Connections *gateway.ConnectionManager
}

func setupServices(database *sql.DB, rdb *redis.Client, cfg *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer
	clock := clockwork.NewRealClock()

	goals, err := match.NewUniformGoal(cfg.Rules.MinGoalMs, cfg.Rules.MaxGoalMs)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal generator: %w", err)
	}

	registry := presence.NewRegistry(clock, cfg.Rules.PresenceInterval)

	// Matches
	matchRepo := match.NewRepository(matchdb.New(database))
	matchApp := match.NewApp(matchRepo, goals, cfg.Rules.TotalRounds)
	if cfg.Server.RequireOnline {
		matchApp.RequireOnline(registry)
	}

	// Stats
	statsApp := stats.NewApp(stats.NewRepository(database))

	// Outbox
	outboxApp := outbox.NewApp(outbox.NewRepository(outboxdb.New(database)))

	// Live sessions
	var sessions session.Store
	if rdb != nil {
		sessions = session.NewRedisStore(rdb, cfg.Rules.SessionTTL)
		log.Info().Msg("using redis session store")
	} else {
		sessions = session.NewMemoryStore(clock, cfg.Rules.SessionTTL)
		log.Warn().Msg("REDIS_URL not set, using in-memory session store")
	}

	coord := coordinator.New(coordinator.Deps{
		Matches:  matchApp,
		Sessions: sessions,
		Goals:    goals,
		Stats:    statsApp,
		Events:   outboxApp,
		Presence: registry,
		Clock:    clock,
	}, cfg.Rules)

	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), clock, coord, registry)

	return &Services{
		Matches:     match.NewService(matchApp, coord, registry),
		Stats:       statsApp,
		Coordinator: coord,
		Presence:    registry,
		Connections: connections,
	}, nil
}
