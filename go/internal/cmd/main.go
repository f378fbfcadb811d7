package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.Server)

	database, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("setup database")
	}
	defer database.Close()

	rdb, err := setupRedis(cfg.Server.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("setup redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	services, err := setupServices(database, rdb, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("setup services")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go services.Presence.Run(ctx)

	scheduler, err := services.Coordinator.StartSweeper(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("start stale sweeper")
	}

	server := setupServer(services, cfg.Server)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("timeduel server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	services.Connections.Shutdown()
	if err := scheduler.Shutdown(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown")
	}
	services.Coordinator.Close()
	log.Info().Msg("graceful shutdown complete")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}
