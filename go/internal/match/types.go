package match

import (
	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/models"
)

// CreateMatchRequest is what the repository needs to insert a match.
type CreateMatchRequest struct {
	ID          uuid.UUID
	Variant     models.MatchVariant
	GoalTimeMs  int
	TotalRounds int
}

// CreateChallengeRequest describes a challenge issued by one player to another.
// Exactly one of ChallengerID or GuestToken is set.
type CreateChallengeRequest struct {
	ChallengerID string
	GuestToken   string
	GuestName    string
	OpponentID   string
	TotalRounds  int
}
