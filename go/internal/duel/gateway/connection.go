package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/timeduel/go/internal/duel/coordinator"
	"github.com/rs/zerolog/log"
)

// Connection represents a WebSocket connection to a player
type Connection struct {
	id          string
	userID      string
	displayName string
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	manager     *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

func (c *Connection) ID() string     { return c.id }
func (c *Connection) UserID() string { return c.userID }

// Send queues an event for the client. Once the connection is closed sends
// are dropped. A client that cannot keep up is disconnected.
func (c *Connection) Send(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}
	frame, err := json.Marshal(Envelope{Type: eventType, Data: data, Timestamp: c.manager.clock.Now()})
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event")
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- frame:
	case <-c.done:
	default:
		log.Warn().
			Str("connection_id", c.id).
			Str("user_id", c.userID).
			Msg("connection send buffer full, closing connection")
		// Unregistering calls back into the coordinator, which may hold the
		// room lock that triggered this send.
		go c.manager.unregisterConnection(c)
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	cfg := c.manager.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.manager.unregisterConnection(c)
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("failed to send ping")
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	cfg := c.manager.config
	defer c.manager.unregisterConnection(c)

	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		// Stamp clicks before anything else can delay them.
		receivedAt := c.manager.clock.Now()
		c.handleClientMessage(message, receivedAt)
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}

// handleClientMessage dispatches one client frame to the coordinator
func (c *Connection) handleClientMessage(message []byte, receivedAt time.Time) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.sendError("malformed message")
		return
	}

	ctx := context.Background()
	var err error
	switch env.Type {
	case coordinator.EventJoin:
		var p coordinator.JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.sendError("malformed join")
			return
		}
		matchID, perr := uuid.Parse(p.MatchID)
		if perr != nil {
			c.sendError("invalid match id")
			return
		}
		err = c.manager.matches.Join(ctx, c, matchID)

	case coordinator.EventClick:
		err = c.manager.matches.Click(ctx, c, receivedAt)

	case coordinator.EventLeaveGame:
		var p coordinator.LeaveGamePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.sendError("malformed leave_game")
			return
		}
		matchID, perr := uuid.Parse(p.MatchID)
		if perr != nil {
			c.sendError("invalid match id")
			return
		}
		err = c.manager.matches.Leave(ctx, c, matchID, p.ForceEnd)

	default:
		c.sendError("unknown event type " + env.Type)
		return
	}

	if err == nil {
		return
	}
	log.Debug().
		Err(err).
		Str("connection_id", c.id).
		Str("user_id", c.userID).
		Str("event_type", env.Type).
		Msg("client request rejected")

	// A lost race already got click_rejected; broadcast failures reached everyone.
	if errors.Is(err, coordinator.ErrRaceLost) || coordinator.Broadcast(err) {
		return
	}
	c.sendError(coordinator.Message(err))
}

func (c *Connection) sendError(message string) {
	c.Send(coordinator.EventGameError, coordinator.GameErrorPayload{Message: message})
}
