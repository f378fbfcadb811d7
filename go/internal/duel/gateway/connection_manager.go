package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeduel/go/internal/duel/coordinator"
	"github.com/mcdev12/timeduel/go/internal/duel/presence"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

// MatchHandler defines what the gateway needs from the coordinator
type MatchHandler interface {
	Join(ctx context.Context, peer coordinator.Peer, matchID uuid.UUID) error
	Click(ctx context.Context, peer coordinator.Peer, at time.Time) error
	Leave(ctx context.Context, peer coordinator.Peer, matchID uuid.UUID, forceEnd bool) error
	Disconnect(ctx context.Context, peer coordinator.Peer)
	RoomCount() int
}

// PresenceRegistry defines what the gateway needs from the presence registry
type PresenceRegistry interface {
	Add(n presence.Notifier, userID, displayName string)
	Remove(connectionID string)
	ListOnline() []models.PresenceEntry
	Count() int
}

// ConnectionManager manages duel WebSocket connections
type ConnectionManager struct {
	connections map[string]*Connection
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	clock    clockwork.Clock

	matches  MatchHandler
	presence PresenceRegistry
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Envelope is the wire frame of every event in both directions.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock, matches MatchHandler, registry PresenceRegistry) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:   config,
		clock:    clock,
		matches:  matches,
		presence: registry,
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and starts its pumps
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID, displayName string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	now := cm.clock.Now()
	connection := &Connection{
		id:          uuid.New().String(),
		userID:      userID,
		displayName: displayName,
		conn:        conn,
		send:        make(chan []byte, cm.config.SendBufferSize),
		done:        make(chan struct{}),
		manager:     cm,
		ConnectedAt: now,
		LastPing:    now,
	}

	cm.registerConnection(connection)
	cm.presence.Add(connection, userID, displayName)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.id).
		Str("user_id", userID).
		Msg("WebSocket connection established")
	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn.id] = conn

	log.Debug().
		Str("connection_id", conn.id).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection and releases its seat and
// presence. It runs once per connection.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	_, exists := cm.connections[conn.id]
	delete(cm.connections, conn.id)
	cm.mu.Unlock()
	if !exists {
		return
	}

	conn.close()
	cm.presence.Remove(conn.id)
	cm.matches.Disconnect(context.Background(), conn)

	log.Info().
		Str("connection_id", conn.id).
		Str("user_id", conn.userID).
		Msg("connection unregistered")
}

// ConnectionCount returns the number of open connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// Shutdown closes every open connection.
func (cm *ConnectionManager) Shutdown() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for _, c := range cm.connections {
		conns = append(conns, c)
	}
	cm.mu.RUnlock()

	for _, c := range conns {
		cm.unregisterConnection(c)
	}
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	return ConnectionStats{
		TotalConnections: cm.ConnectionCount(),
		OnlineUsers:      cm.presence.Count(),
		ActiveMatches:    cm.matches.RoomCount(),
	}
}

type ConnectionStats struct {
	TotalConnections int `json:"total_connections"`
	OnlineUsers      int `json:"online_users"`
	ActiveMatches    int `json:"active_matches"`
}
