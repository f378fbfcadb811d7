package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the live round phase of a session.
type Phase string

const (
	PhaseWaitingPlayers Phase = "waiting_players"
	PhaseCountdown      Phase = "countdown"
	PhasePlaying        Phase = "playing"
	PhaseWaitingRound   Phase = "waiting_round"
	PhaseFinished       Phase = "finished"
	PhasePaused         Phase = "paused"
)

// SessionPlayer tracks one seat's connection.
type SessionPlayer struct {
	ConnectionID string `json:"connection_id,omitempty"`
	Connected    bool   `json:"connected"`
}

// LiveSession is the ephemeral real-time state of one match.
type LiveSession struct {
	MatchID            uuid.UUID     `json:"match_id"`
	Player1            SessionPlayer `json:"player1"`
	Player2            SessionPlayer `json:"player2"`
	Phase              Phase         `json:"phase"`
	CountdownStartedAt *time.Time    `json:"countdown_started_at,omitempty"`
	RoundStartedAt     *time.Time    `json:"round_started_at,omitempty"`
	RaceLocked         bool          `json:"race_locked"`
	RaceWinner         string        `json:"race_winner,omitempty"`
	RaceRound          int           `json:"race_round"`
	LastActivity       time.Time     `json:"last_activity"`
	CreatedAt          time.Time     `json:"created_at"`
}

// NewLiveSession returns a session waiting for both players.
func NewLiveSession(matchID uuid.UUID, now time.Time) *LiveSession {
	return &LiveSession{
		MatchID:      matchID,
		Phase:        PhaseWaitingPlayers,
		LastActivity: now,
		CreatedAt:    now,
	}
}

// Seat returns the connection record for slot.
func (s *LiveSession) Seat(slot Slot) *SessionPlayer {
	switch slot {
	case SlotPlayer1:
		return &s.Player1
	case SlotPlayer2:
		return &s.Player2
	}
	return nil
}

// ConnectedCount returns how many seats currently have a live connection.
func (s *LiveSession) ConnectedCount() int {
	n := 0
	if s.Player1.Connected {
		n++
	}
	if s.Player2.Connected {
		n++
	}
	return n
}

// BothConnected reports whether both seats have a live connection.
func (s *LiveSession) BothConnected() bool {
	return s.Player1.Connected && s.Player2.Connected
}

// ResetRace clears the race-lock snapshot for a new round.
func (s *LiveSession) ResetRace(round int) {
	s.RaceLocked = false
	s.RaceWinner = ""
	s.RaceRound = round
}
