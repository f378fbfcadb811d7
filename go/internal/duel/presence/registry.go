// Package presence tracks which users are connected to this process and
// broadcasts presence changes to every connection.
package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	EventConnectionEstablished = "connection_established"
	EventUserConnected         = "user_connected"
	EventUserDisconnected      = "user_disconnected"
	EventOnlineUsersUpdate     = "online_users_update"
)

// Notifier is a connection that can receive presence events.
type Notifier interface {
	ID() string
	Send(eventType string, payload any)
}

type ConnectionEstablishedPayload struct {
	ConnectionID string                 `json:"connectionId"`
	UserID       string                 `json:"userId"`
	OnlineUsers  []models.PresenceEntry `json:"onlineUsers"`
}

type UserConnectedPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type UserDisconnectedPayload struct {
	UserID string `json:"userId"`
}

type OnlineUsersPayload struct {
	Users []models.PresenceEntry `json:"users"`
	Count int                    `json:"count"`
}

type entry struct {
	notifier    Notifier
	userID      string
	displayName string
	connectedAt time.Time
}

// Registry maps connection identity to user identity and presence status.
type Registry struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	conns    map[string]*entry
	byUser   map[string]map[string]struct{}
	inMatch  map[string]bool
	interval time.Duration
}

// NewRegistry creates an empty registry that rebroadcasts the full list
// every interval once Run is started.
func NewRegistry(clock clockwork.Clock, interval time.Duration) *Registry {
	return &Registry{
		clock:    clock,
		conns:    make(map[string]*entry),
		byUser:   make(map[string]map[string]struct{}),
		inMatch:  make(map[string]bool),
		interval: interval,
	}
}

// Add registers a connection, greets it with the current list, and tells
// everyone else when the user comes online.
func (r *Registry) Add(n Notifier, userID, displayName string) {
	r.mu.Lock()
	first := len(r.byUser[userID]) == 0
	r.conns[n.ID()] = &entry{
		notifier:    n,
		userID:      userID,
		displayName: displayName,
		connectedAt: r.clock.Now(),
	}
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]struct{})
	}
	r.byUser[userID][n.ID()] = struct{}{}
	others := r.notifiersLocked(n.ID())
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	n.Send(EventConnectionEstablished, ConnectionEstablishedPayload{
		ConnectionID: n.ID(),
		UserID:       userID,
		OnlineUsers:  snapshot,
	})

	if first {
		payload := UserConnectedPayload{UserID: userID, DisplayName: displayName}
		for _, o := range others {
			o.Send(EventUserConnected, payload)
		}
	}

	log.Debug().
		Str("connection_id", n.ID()).
		Str("user_id", userID).
		Int("online", len(snapshot)).
		Msg("presence registered")
}

// Remove drops a connection. Unknown connections are ignored.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	e, ok := r.conns[connectionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, connectionID)
	delete(r.byUser[e.userID], connectionID)
	last := len(r.byUser[e.userID]) == 0
	if last {
		delete(r.byUser, e.userID)
		delete(r.inMatch, e.userID)
	}
	others := r.notifiersLocked("")
	r.mu.Unlock()

	if last {
		payload := UserDisconnectedPayload{UserID: e.userID}
		for _, o := range others {
			o.Send(EventUserDisconnected, payload)
		}
	}

	log.Debug().
		Str("connection_id", connectionID).
		Str("user_id", e.userID).
		Msg("presence removed")
}

// SetInMatch flags a user as busy or available.
func (r *Registry) SetInMatch(userID string, inMatch bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, online := r.byUser[userID]; !online {
		return
	}
	if inMatch {
		r.inMatch[userID] = true
	} else {
		delete(r.inMatch, userID)
	}
}

// IsOnline reports whether userID has at least one connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ListOnline returns one entry per online user, ordered by connection time.
func (r *Registry) ListOnline() []models.PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast sends the full presence list to every connection.
func (r *Registry) Broadcast() {
	r.mu.RLock()
	targets := r.notifiersLocked("")
	snapshot := r.snapshotLocked()
	r.mu.RUnlock()

	payload := OnlineUsersPayload{Users: snapshot, Count: len(snapshot)}
	for _, t := range targets {
		t.Send(EventOnlineUsersUpdate, payload)
	}
}

// Run broadcasts the presence list every interval until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("presence broadcaster started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("presence broadcaster shutting down")
			return
		case <-ticker.Chan():
			r.Broadcast()
		}
	}
}

func (r *Registry) notifiersLocked(except string) []Notifier {
	out := make([]Notifier, 0, len(r.conns))
	for id, e := range r.conns {
		if id == except {
			continue
		}
		out = append(out, e.notifier)
	}
	return out
}

func (r *Registry) snapshotLocked() []models.PresenceEntry {
	out := make([]models.PresenceEntry, 0, len(r.byUser))
	for userID, conns := range r.byUser {
		var earliest *entry
		for connID := range conns {
			e := r.conns[connID]
			if earliest == nil || e.connectedAt.Before(earliest.connectedAt) {
				earliest = e
			}
		}
		if earliest == nil {
			continue
		}
		status := models.PresenceOnline
		if r.inMatch[userID] {
			status = models.PresenceInMatch
		}
		out = append(out, models.PresenceEntry{
			UserID:         userID,
			DisplayName:    earliest.displayName,
			Status:         status,
			ConnectedSince: earliest.connectedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedSince.Equal(out[j].ConnectedSince) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ConnectedSince.Before(out[j].ConnectedSince)
	})
	return out
}
