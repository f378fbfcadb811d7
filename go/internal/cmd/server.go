package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/timeduel/go/internal/config"
	"github.com/mcdev12/timeduel/go/internal/duel/gateway"
	"github.com/mcdev12/timeduel/go/internal/match"
	"github.com/mcdev12/timeduel/go/internal/stats"
)

func setupServer(services *Services, cfg config.ServerConfig) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	// Register services
	registerServices(mux, services)

	// Add health check endpoints
	setupHealthCheck(mux, services)

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	// Register match admin service
	matchServicePath, matchServiceHandler := services.Matches.NewHandler(match.WithJSONCodec())
	mux.Handle(matchServicePath, matchServiceHandler)

	// Register duel WebSocket and presence routes
	gateway.NewWebSocketHandler(services.Connections).RegisterRoutes(mux)

	mux.HandleFunc("/api/stats", statsHandler(services.Stats))
}

func statsHandler(app *stats.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		ps, err := app.GetPlayerStats(r.Context(), userID)
		if err != nil {
			if errors.Is(err, stats.ErrStatsNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			log.Error().Err(err).Str("user_id", userID).Msg("failed to load player stats")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, ps)
	}
}

type infoResponse struct {
	Service     string `json:"service"`
	Connections int    `json:"connections"`
	OnlineUsers int    `json:"onlineUsers"`
	ActiveRooms int    `json:"activeRooms"`
}

func setupHealthCheck(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, infoResponse{
			Service:     "timeduel",
			Connections: services.Connections.ConnectionCount(),
			OnlineUsers: services.Presence.Count(),
			ActiveRooms: services.Coordinator.RoomCount(),
		})
	})
}
