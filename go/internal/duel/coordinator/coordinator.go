// Package coordinator runs the real-time state machine of every live match:
// seating players, countdowns, click arbitration, round settlement, and
// forfeits. All transitions for one match are serialized through its room.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeduel/go/internal/config"
	"github.com/mcdev12/timeduel/go/internal/duel/session"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Peer is one player connection attached to a match.
type Peer interface {
	ID() string
	UserID() string
	Send(eventType string, payload any)
}

// MatchStore defines what the coordinator needs from the match application
type MatchStore interface {
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	UpdateMatch(ctx context.Context, m *models.Match, expected models.MatchStatus) (*models.Match, error)
	ListStaleMatches(ctx context.Context, updatedBefore time.Time, limit int32) ([]*models.Match, error)
}

// StatsRecorder applies aggregate results of a finished match.
type StatsRecorder interface {
	ApplyMatchResults(ctx context.Context, m *models.Match) error
}

// EventSink records match lifecycle events for other services.
type EventSink interface {
	InsertMatchEvent(ctx context.Context, matchID uuid.UUID, eventType string, payload []byte) error
}

// PresenceTracker is told when users enter and leave matches.
type PresenceTracker interface {
	SetInMatch(userID string, inMatch bool)
}

// GoalGenerator produces goal times for new rounds.
type GoalGenerator interface {
	NextGoalMs() int
}

// Deps are the collaborators of a Coordinator. Stats, Events and Presence
// are optional.
type Deps struct {
	Matches  MatchStore
	Sessions session.Store
	Goals    GoalGenerator
	Stats    StatsRecorder
	Events   EventSink
	Presence PresenceTracker
	Clock    clockwork.Clock
}

// room holds the in-process state of one match. mu serializes every handler
// and timer callback for the match.
type room struct {
	mu          sync.Mutex
	matchID     uuid.UUID
	peers       [3]Peer
	pending     *pendingTimer
	forfeit     *pendingTimer
	forfeitSlot models.Slot
	timerSeq    uint64
	closed      bool
}

func (r *room) peerCount() int {
	n := 0
	for _, p := range r.peers {
		if p != nil {
			n++
		}
	}
	return n
}

// Coordinator owns all live rooms of this process.
type Coordinator struct {
	matches  MatchStore
	sessions session.Store
	goals    GoalGenerator
	stats    StatsRecorder
	events   EventSink
	presence PresenceTracker
	clock    clockwork.Clock
	rules    config.Rules

	ctx  context.Context
	stop context.CancelFunc
	bg   sync.WaitGroup

	mu        sync.Mutex
	rooms     map[uuid.UUID]*room
	peerRooms map[string]uuid.UUID
}

// New creates a coordinator. Close stops every pending timer.
func New(deps Deps, rules config.Rules) *Coordinator {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Coordinator{
		matches:   deps.Matches,
		sessions:  deps.Sessions,
		goals:     deps.Goals,
		stats:     deps.Stats,
		events:    deps.Events,
		presence:  deps.Presence,
		clock:     clock,
		rules:     rules,
		ctx:       ctx,
		stop:      stop,
		rooms:     make(map[uuid.UUID]*room),
		peerRooms: make(map[string]uuid.UUID),
	}
}

// Close cancels all pending timers. Handlers called afterwards still work
// but no deferred transition will fire.
func (c *Coordinator) Close() {
	c.stop()
	c.bg.Wait()
}

// RoomCount returns the number of live rooms.
func (c *Coordinator) RoomCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

// lockRoom returns the live room for matchID, locked, creating it if needed.
func (c *Coordinator) lockRoom(matchID uuid.UUID) *room {
	for {
		c.mu.Lock()
		r, ok := c.rooms[matchID]
		if !ok {
			r = &room{matchID: matchID}
			c.rooms[matchID] = r
		}
		c.mu.Unlock()

		r.mu.Lock()
		if !r.closed {
			return r
		}
		r.mu.Unlock()
	}
}

// lockPeerRoom returns the room peer is bound to, locked, or nil.
func (c *Coordinator) lockPeerRoom(peerID string) *room {
	c.mu.Lock()
	matchID, ok := c.peerRooms[peerID]
	var r *room
	if ok {
		r = c.rooms[matchID]
	}
	c.mu.Unlock()
	if r == nil {
		return nil
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	return r
}

func (c *Coordinator) boundMatch(peerID string) (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.peerRooms[peerID]
	return id, ok
}

func (c *Coordinator) bindPeer(peerID string, matchID uuid.UUID) {
	c.mu.Lock()
	c.peerRooms[peerID] = matchID
	c.mu.Unlock()
}

func (c *Coordinator) unbindPeer(peerID string, matchID uuid.UUID) {
	c.mu.Lock()
	if c.peerRooms[peerID] == matchID {
		delete(c.peerRooms, peerID)
	}
	c.mu.Unlock()
}

// unlockRoom releases r, dropping it first if it has no peers and no pending
// timer. The session stays in the store.
func (c *Coordinator) unlockRoom(r *room) {
	if !r.closed && r.peerCount() == 0 && r.pending == nil && r.forfeit == nil {
		r.closed = true
		c.mu.Lock()
		if c.rooms[r.matchID] == r {
			delete(c.rooms, r.matchID)
		}
		c.mu.Unlock()
	}
	r.mu.Unlock()
}

// teardown closes the room and forgets its session. Caller must hold r.mu.
func (c *Coordinator) teardown(ctx context.Context, r *room) {
	c.cancelTimer(r)
	c.cancelForfeit(r)
	r.closed = true

	if err := c.sessions.Delete(ctx, r.matchID); err != nil {
		log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("failed to delete session")
	}

	c.mu.Lock()
	if c.rooms[r.matchID] == r {
		delete(c.rooms, r.matchID)
	}
	for i, p := range r.peers {
		if p == nil {
			continue
		}
		if c.peerRooms[p.ID()] == r.matchID {
			delete(c.peerRooms, p.ID())
		}
		r.peers[i] = nil
	}
	c.mu.Unlock()

	log.Info().Str("match_id", r.matchID.String()).Msg("room torn down")
}

// broadcast sends one event to every peer in the room. Caller must hold r.mu.
func (c *Coordinator) broadcast(r *room, eventType string, payload any) {
	for _, p := range r.peers {
		if p != nil {
			p.Send(eventType, payload)
		}
	}
}

func (c *Coordinator) broadcastConnections(r *room, s *models.LiveSession) {
	c.broadcast(r, EventConnectionUpdate, ConnectionUpdatePayload{
		P1Connected:    s.Player1.Connected,
		P2Connected:    s.Player2.Connected,
		ConnectedCount: s.ConnectedCount(),
	})
}

// reportFailure tells every peer in the room that a transition failed.
func (c *Coordinator) reportFailure(r *room, err error) {
	var ge *GameError
	if errors.As(err, &ge) {
		ge.broadcast = true
	}
	log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("match transition failed")
	c.broadcast(r, EventGameError, GameErrorPayload{Message: Message(err)})
}

// persist writes next with a conditional update against the status it was
// staged from.
func (c *Coordinator) persist(ctx context.Context, next *models.Match, expected models.MatchStatus) (*models.Match, error) {
	saved, err := c.matches.UpdateMatch(ctx, next, expected)
	if errors.Is(err, models.ErrStaleMatch) {
		return nil, &GameError{Kind: ErrInvalidState, Message: "match changed while updating", Err: err}
	}
	if err != nil {
		return nil, infraError("failed to save match", err)
	}
	return saved, nil
}

func (c *Coordinator) saveSession(ctx context.Context, s *models.LiveSession) error {
	s.LastActivity = c.clock.Now()
	if err := c.sessions.Save(ctx, s); err != nil {
		return infraError("failed to save session", err)
	}
	return nil
}

// loadSession returns the live session of matchID, creating it on first join.
func (c *Coordinator) loadSession(ctx context.Context, matchID uuid.UUID) (*models.LiveSession, error) {
	s, err := c.sessions.Get(ctx, matchID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, infraError("failed to load session", err)
	}

	s = models.NewLiveSession(matchID, c.clock.Now())
	err = c.sessions.Create(ctx, s)
	if errors.Is(err, session.ErrExists) {
		s, err = c.sessions.Get(ctx, matchID)
	}
	if err != nil {
		return nil, infraError("failed to create session", err)
	}
	return s, nil
}

func (c *Coordinator) setInMatch(m *models.Match, inMatch bool) {
	if c.presence == nil {
		return
	}
	for _, slot := range []models.Slot{models.SlotPlayer1, models.SlotPlayer2} {
		if id := m.PlayerID(slot); id != "" {
			c.presence.SetInMatch(id, inMatch)
		}
	}
}

// emit writes a lifecycle event to the outbox. Failures are logged only.
func (c *Coordinator) emit(ctx context.Context, eventType string, m *models.Match, reason string) {
	if c.events == nil {
		return
	}
	payload, err := json.Marshal(MatchEventPayload{
		MatchID:      m.ID.String(),
		Status:       string(m.Status),
		Round:        m.CurrentRound,
		Player1ID:    m.PlayerID(models.SlotPlayer1),
		Player2ID:    m.PlayerID(models.SlotPlayer2),
		Player1Score: m.Player1.Score,
		Player2Score: m.Player2.Score,
		WinnerID:     m.WinnerID,
		Reason:       reason,
		OccurredAt:   c.clock.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("match_id", m.ID.String()).Msg("failed to marshal match event")
		return
	}
	if err := c.events.InsertMatchEvent(ctx, m.ID, eventType, payload); err != nil {
		log.Error().
			Err(err).
			Str("match_id", m.ID.String()).
			Str("event_type", eventType).
			Msg("failed to insert match event into outbox")
	}
}
