package models

import "time"

// PlayerStats is the aggregate record for a registered player.
type PlayerStats struct {
	UserID      string    `json:"user_id"`
	GamesPlayed int       `json:"games_played"`
	GamesWon    int       `json:"games_won"`
	BestTimeMs  *int      `json:"best_time_ms,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatResult is the per-player outcome applied after a match finishes.
// BestDiffMs is the smallest |time - goal| the player achieved in the match,
// nil when the player never recorded a time.
type StatResult struct {
	UserID     string `json:"user_id"`
	Won        bool   `json:"won"`
	BestDiffMs *int   `json:"best_diff_ms,omitempty"`
}
