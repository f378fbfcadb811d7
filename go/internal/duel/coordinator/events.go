package coordinator

import "time"

// Inbound event types.
const (
	EventJoin      = "join"
	EventClick     = "click"
	EventLeaveGame = "leave_game"
)

// Outbound event types.
const (
	EventJoined            = "joined"
	EventConnectionUpdate  = "connection_update"
	EventCountdownStart    = "countdown_start"
	EventGameStart         = "game_start"
	EventClickRegistered   = "click_registered"
	EventPlayerClicked     = "player_clicked"
	EventClickRejected     = "click_rejected"
	EventRoundFinished     = "round_finished"
	EventNextRoundStarting = "next_round_starting"
	EventGameFinished      = "game_finished"
	EventGameEndedForfeit  = "game_ended_forfeit"
	EventGameCancelled     = "game_cancelled"
	EventGamePaused        = "game_paused"
	EventLeftGame          = "left_game"
	EventGameError         = "game_error"
)

// Outbox event types published for other services.
const (
	OutboxMatchStarted   = "MatchStarted"
	OutboxRoundFinished  = "RoundFinished"
	OutboxMatchFinished  = "MatchFinished"
	OutboxMatchCancelled = "MatchCancelled"
	OutboxMatchForfeited = "MatchForfeited"
)

// Disconnect and cancellation reasons.
const (
	ReasonOpponentDisconnected = "opponent_disconnected"
	ReasonBothDisconnected     = "both_disconnected"
	ReasonPlayerLeft           = "player_left"
	ReasonStale                = "stale"
)

type JoinPayload struct {
	MatchID string `json:"matchId"`
}

type LeaveGamePayload struct {
	MatchID  string `json:"matchId"`
	ForceEnd bool   `json:"forceEnd"`
}

type MatchSummary struct {
	ID           string `json:"id"`
	Player1ID    string `json:"player1Id"`
	Player1Name  string `json:"player1Name"`
	Player2ID    string `json:"player2Id"`
	Player2Name  string `json:"player2Name"`
	Status       string `json:"status"`
	GoalTime     int    `json:"goalTime"`
	CurrentRound int    `json:"currentRound"`
	TotalRounds  int    `json:"totalRounds"`
	Player1Score int    `json:"player1Score"`
	Player2Score int    `json:"player2Score"`
}

type SessionSummary struct {
	Phase          string     `json:"phase"`
	P1Connected    bool       `json:"p1Connected"`
	P2Connected    bool       `json:"p2Connected"`
	RoundStartedAt *time.Time `json:"roundStartedAt,omitempty"`
}

type JoinedPayload struct {
	MatchID string         `json:"matchId"`
	Role    string         `json:"role"`
	Match   MatchSummary   `json:"matchSummary"`
	Session SessionSummary `json:"sessionSummary"`
}

type ConnectionUpdatePayload struct {
	P1Connected    bool `json:"p1Connected"`
	P2Connected    bool `json:"p2Connected"`
	ConnectedCount int  `json:"connectedCount"`
}

type CountdownStartPayload struct {
	Round       int       `json:"round"`
	CountdownMs int64     `json:"countdownMs"`
	GoalTime    int       `json:"goalTime"`
	StartTime   time.Time `json:"startTime"`
}

type GameStartPayload struct {
	Round     int       `json:"round"`
	StartTime time.Time `json:"startTime"`
	GoalTime  int       `json:"goalTime"`
}

type ClickRegisteredPayload struct {
	Elapsed    int `json:"elapsed"`
	GoalTime   int `json:"goalTime"`
	Difference int `json:"difference"`
}

type PlayerClickedPayload struct {
	PlayerID   string `json:"playerId"`
	Elapsed    int    `json:"elapsed"`
	GoalTime   int    `json:"goalTime"`
	Difference int    `json:"difference"`
}

type ClickRejectedPayload struct {
	WinnerID string `json:"winnerId"`
}

type PlayerRoundResult struct {
	PlayerID   string `json:"playerId"`
	Time       *int   `json:"time"`
	Difference *int   `json:"difference"`
	Score      int    `json:"score"`
}

type Scores struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

type RoundFinishedPayload struct {
	Round       int               `json:"round"`
	GoalTime    int               `json:"goalTime"`
	Player1     PlayerRoundResult `json:"player1"`
	Player2     PlayerRoundResult `json:"player2"`
	RoundWinner string            `json:"roundWinner,omitempty"`
	Scores      Scores            `json:"scores"`
}

type NextRoundStartingPayload struct {
	Round    int    `json:"round"`
	GoalTime int    `json:"goalTime"`
	Scores   Scores `json:"scores"`
}

type PlayerTotal struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type GameFinishedPayload struct {
	MatchID    string        `json:"matchId"`
	Player1    PlayerTotal   `json:"player1"`
	Player2    PlayerTotal   `json:"player2"`
	Rounds     []RoundResult `json:"rounds"`
	Winner     string        `json:"winner,omitempty"`
	DurationMs int64         `json:"duration"`
}

// RoundResult is the wire form of one settled round.
type RoundResult struct {
	Round       int    `json:"round"`
	GoalTime    int    `json:"goalTime"`
	Player1Time *int   `json:"player1Time"`
	Player2Time *int   `json:"player2Time"`
	RoundWinner string `json:"roundWinner,omitempty"`
}

type GameEndedForfeitPayload struct {
	MatchID  string `json:"matchId"`
	WinnerID string `json:"winnerId"`
	Reason   string `json:"reason"`
}

type GameCancelledPayload struct {
	MatchID string `json:"matchId"`
	Reason  string `json:"reason"`
}

type GamePausedPayload struct {
	MatchID string `json:"matchId"`
	Reason  string `json:"reason"`
}

type LeftGamePayload struct {
	MatchID string `json:"matchId"`
}

type GameErrorPayload struct {
	Message string `json:"message"`
}

// MatchEventPayload is the outbox record body for every match lifecycle event.
type MatchEventPayload struct {
	MatchID      string    `json:"match_id"`
	Status       string    `json:"status"`
	Round        int       `json:"round"`
	Player1ID    string    `json:"player1_id"`
	Player2ID    string    `json:"player2_id"`
	Player1Score int       `json:"player1_score"`
	Player2Score int       `json:"player2_score"`
	WinnerID     string    `json:"winner_id,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
