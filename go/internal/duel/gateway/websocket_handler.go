package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests and the presence endpoints
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

// HandleDuelConnection upgrades a player connection. The caller identifies
// itself with user_id; display_name defaults to the user id.
func (h *WebSocketHandler) HandleDuelConnection(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	displayName := strings.TrimSpace(r.URL.Query().Get("display_name"))
	if displayName == "" {
		displayName = userID
	}

	if err := h.connectionManager.UpgradeConnection(w, r, userID, displayName); err != nil {
		// The upgrader has already written the HTTP error.
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.connectionManager.GetConnectionStats())
}

type onlineUsersResponse struct {
	Users []models.PresenceEntry `json:"users"`
	Count int                    `json:"count"`
}

// HandleOnlineUsers returns the current presence list
func (h *WebSocketHandler) HandleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	users := h.connectionManager.presence.ListOnline()
	if users == nil {
		users = []models.PresenceEntry{}
	}
	writeJSON(w, onlineUsersResponse{Users: users, Count: len(users)})
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/duel", h.HandleDuelConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
	mux.HandleFunc("/api/online", h.HandleOnlineUsers)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}
