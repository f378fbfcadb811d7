package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeduel/go/internal/config"
	"github.com/mcdev12/timeduel/go/internal/dbconfig"
	"github.com/mcdev12/timeduel/go/internal/duel/outbox"
	outboxdb "github.com/mcdev12/timeduel/go/internal/duel/outbox/db"
)

type relayConfig struct {
	FallbackInterval time.Duration `env:"FALLBACK_INTERVAL" envDefault:"30s"`
	HealthPort       string        `env:"OUTBOX_HEALTH_PORT" envDefault:"8091"`
	StallThreshold   time.Duration `env:"OUTBOX_STALL_THRESHOLD" envDefault:"2m"`
}

// relayProbe lets the health check ping the database and count the backlog.
type relayProbe struct {
	*sql.DB
	*outbox.Repository
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	serverCfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config")
	}
	zerolog.SetGlobalLevel(serverCfg.Level())

	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("load database config")
	}
	dsn := cfg.DSN()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")

	jsCfg := outbox.DefaultJetStreamConfig()
	jsCfg.URL = serverCfg.NATSURL
	publisher, err := outbox.NewJetStreamPublisher(jsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create JetStream publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close publisher")
		}
	}()

	ltCfg := outbox.DefaultListenerConfig()
	ltCfg.DatabaseURL = dsn
	var rc relayConfig
	if err := env.Parse(&rc); err != nil {
		log.Fatal().Err(err).Msg("parse relay config")
	}
	if rc.FallbackInterval > 0 {
		ltCfg.FallbackInterval = rc.FallbackInterval
	}

	repo := outbox.NewRepository(outboxdb.New(db))
	app := outbox.NewApp(repo)

	listener, err := outbox.NewListener(app, publisher, ltCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create outbox listener")
	}

	health := outbox.NewHealthChecker(listener, relayProbe{DB: db, Repository: repo}, publisher.Connected, clockwork.NewRealClock(), rc.StallThreshold)
	mux := http.NewServeMux()
	mux.Handle("/health", health)
	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", rc.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msg("starting outbox relay")
		errCh <- listener.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		if err := <-errCh; err != nil {
			log.Error().Err(err).Msg("listener stop")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("health server shutdown")
		}
		log.Info().Msg("graceful shutdown complete")
	case err := <-errCh:
		log.Error().Err(err).Msg("listener exited unexpectedly")
	}
}
