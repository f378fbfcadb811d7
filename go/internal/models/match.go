package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrMatchNotFound is returned when a match record does not exist
var ErrMatchNotFound = errors.New("match not found")

// ErrStaleMatch is returned when a conditional match write finds the record
// in a different status than the caller expected
var ErrStaleMatch = errors.New("match status changed concurrently")

// MatchStatus defines the lifecycle status of a match.
type MatchStatus string

const (
	MatchStatusWaiting   MatchStatus = "waiting"
	MatchStatusStarting  MatchStatus = "starting"
	MatchStatusActive    MatchStatus = "active"
	MatchStatusFinished  MatchStatus = "finished"
	MatchStatusCancelled MatchStatus = "cancelled"
	MatchStatusTimeout   MatchStatus = "timeout"
)

// IsTerminal reports whether no further transitions are allowed.
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case MatchStatusFinished, MatchStatusCancelled, MatchStatusTimeout:
		return true
	}
	return false
}

// Joinable reports whether players may attach to a match in this status.
func (s MatchStatus) Joinable() bool {
	switch s {
	case MatchStatusWaiting, MatchStatusStarting, MatchStatusActive:
		return true
	}
	return false
}

func (s MatchStatus) rank() int {
	switch s {
	case MatchStatusWaiting:
		return 0
	case MatchStatusStarting:
		return 1
	case MatchStatusActive:
		return 2
	}
	return 3
}

// CanTransitionTo reports whether moving from s to next keeps the status
// monotonic. Rewriting a non-terminal status onto itself is allowed so that
// round progress can be persisted while a match stays active.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return next.rank() >= s.rank()
}

// MatchKind tags the variant of a match.
type MatchKind string

const (
	MatchKindRegistered     MatchKind = "registered"
	MatchKindGuestChallenge MatchKind = "guest_challenge"
)

// GuestIDPrefix prefixes the identity a guest connects with.
const GuestIDPrefix = "guest:"

// Participant is one side of a match.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Guest       bool   `json:"guest"`
}

// MatchVariant is implemented by RegisteredMatch and GuestChallengeMatch.
type MatchVariant interface {
	Kind() MatchKind
	Participants() (Participant, Participant)
}

// RegisteredMatch is a challenge between two registered users.
type RegisteredMatch struct {
	Player1ID string `json:"player1_id"`
	Player2ID string `json:"player2_id"`
}

func (RegisteredMatch) Kind() MatchKind { return MatchKindRegistered }

func (v RegisteredMatch) Participants() (Participant, Participant) {
	return Participant{ID: v.Player1ID}, Participant{ID: v.Player2ID}
}

// GuestChallengeMatch is a challenge issued by an unregistered guest to a
// registered user. Only the registered side accumulates stats.
type GuestChallengeMatch struct {
	GuestToken string `json:"guest_token"`
	GuestName  string `json:"guest_name"`
	Player2ID  string `json:"player2_id"`
}

func (GuestChallengeMatch) Kind() MatchKind { return MatchKindGuestChallenge }

func (v GuestChallengeMatch) Participants() (Participant, Participant) {
	return Participant{ID: GuestIDPrefix + v.GuestToken, DisplayName: v.GuestName, Guest: true},
		Participant{ID: v.Player2ID}
}

// Slot identifies a seat in a match.
type Slot int

const (
	SlotNone Slot = iota
	SlotPlayer1
	SlotPlayer2
)

// Role returns the wire name of the slot.
func (s Slot) Role() string {
	switch s {
	case SlotPlayer1:
		return "player1"
	case SlotPlayer2:
		return "player2"
	}
	return ""
}

// Opponent returns the other seat.
func (s Slot) Opponent() Slot {
	switch s {
	case SlotPlayer1:
		return SlotPlayer2
	case SlotPlayer2:
		return SlotPlayer1
	}
	return SlotNone
}

// PlayerState holds a player's progress in the current round and the match.
type PlayerState struct {
	TimeMs    *int       `json:"time_ms,omitempty"`
	ClickedAt *time.Time `json:"clicked_at,omitempty"`
	Score     int        `json:"score"`
}

// RoundResult is the settled outcome of one round.
type RoundResult struct {
	RoundNumber   int       `json:"round_number"`
	GoalTimeMs    int       `json:"goal_time_ms"`
	Player1TimeMs *int      `json:"player1_time_ms"`
	Player2TimeMs *int      `json:"player2_time_ms"`
	RoundWinner   string    `json:"round_winner,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Match represents a duel between two players.
type Match struct {
	ID            uuid.UUID     `json:"id"`
	Variant       MatchVariant  `json:"-"`
	GoalTimeMs    int           `json:"goal_time_ms"`
	Player1       PlayerState   `json:"player1"`
	Player2       PlayerState   `json:"player2"`
	Status        MatchStatus   `json:"status"`
	GameStartedAt *time.Time    `json:"game_started_at,omitempty"`
	GameEndedAt   *time.Time    `json:"game_ended_at,omitempty"`
	Rounds        []RoundResult `json:"rounds"`
	CurrentRound  int           `json:"current_round"`
	TotalRounds   int           `json:"total_rounds"`
	WinnerID      string        `json:"winner_id,omitempty"`
	Forfeit       bool          `json:"forfeit"`
	CancelReason  string        `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Participant returns the participant seated in slot.
func (m *Match) Participant(slot Slot) Participant {
	p1, p2 := m.Variant.Participants()
	switch slot {
	case SlotPlayer1:
		return p1
	case SlotPlayer2:
		return p2
	}
	return Participant{}
}

// PlayerID returns the identity seated in slot.
func (m *Match) PlayerID(slot Slot) string {
	return m.Participant(slot).ID
}

// SlotOf returns the seat held by userID, or SlotNone for non-participants.
func (m *Match) SlotOf(userID string) Slot {
	if userID == "" {
		return SlotNone
	}
	p1, p2 := m.Variant.Participants()
	switch userID {
	case p1.ID:
		return SlotPlayer1
	case p2.ID:
		return SlotPlayer2
	}
	return SlotNone
}

// State returns the mutable per-player state for slot.
func (m *Match) State(slot Slot) *PlayerState {
	switch slot {
	case SlotPlayer1:
		return &m.Player1
	case SlotPlayer2:
		return &m.Player2
	}
	return nil
}

// StatsEligible reports whether the participant in slot has persistent stats.
func (m *Match) StatsEligible(slot Slot) bool {
	p := m.Participant(slot)
	return p.ID != "" && !p.Guest
}

// RoundComplete reports whether both players have a time for the current round.
func (m *Match) RoundComplete() bool {
	return m.Player1.TimeMs != nil && m.Player2.TimeMs != nil
}

// Clone returns a deep copy so callers can stage a transition without
// touching the last persisted state.
func (m *Match) Clone() *Match {
	c := *m
	c.Player1 = m.Player1.clone()
	c.Player2 = m.Player2.clone()
	c.Rounds = append([]RoundResult(nil), m.Rounds...)
	if m.GameStartedAt != nil {
		t := *m.GameStartedAt
		c.GameStartedAt = &t
	}
	if m.GameEndedAt != nil {
		t := *m.GameEndedAt
		c.GameEndedAt = &t
	}
	return &c
}

func (p PlayerState) clone() PlayerState {
	c := p
	if p.TimeMs != nil {
		v := *p.TimeMs
		c.TimeMs = &v
	}
	if p.ClickedAt != nil {
		t := *p.ClickedAt
		c.ClickedAt = &t
	}
	return c
}
