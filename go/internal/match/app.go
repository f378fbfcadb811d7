package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidChallenge is returned when a challenge request is malformed
	ErrInvalidChallenge = errors.New("invalid challenge")
	// ErrPlayerBusy is returned when either side already has an open match
	ErrPlayerBusy = errors.New("player already in an active match")
	// ErrOpponentOffline is returned when online checks are enabled and the opponent is not connected
	ErrOpponentOffline = errors.New("opponent is not online")
)

// MatchRepository defines what the app layer needs from the repository
type MatchRepository interface {
	CreateMatch(ctx context.Context, req CreateMatchRequest) (*models.Match, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	UpdateMatch(ctx context.Context, m *models.Match, expected models.MatchStatus) (*models.Match, error)
	ListStaleMatches(ctx context.Context, updatedBefore time.Time, limit int32) ([]*models.Match, error)
	CountOpenMatches(ctx context.Context, userID string) (int, error)
}

// OnlineChecker reports whether a user has a live connection.
type OnlineChecker interface {
	IsOnline(userID string) bool
}

// App handles match business logic
type App struct {
	repo          MatchRepository
	goals         GoalGenerator
	defaultRounds int
	online        OnlineChecker
}

// NewApp creates a new match App
func NewApp(repo MatchRepository, goals GoalGenerator, defaultRounds int) *App {
	return &App{
		repo:          repo,
		goals:         goals,
		defaultRounds: defaultRounds,
	}
}

// RequireOnline makes CreateChallenge reject opponents without a live connection.
func (a *App) RequireOnline(checker OnlineChecker) {
	a.online = checker
}

// CreateChallenge validates both identities and creates a waiting match.
func (a *App) CreateChallenge(ctx context.Context, req CreateChallengeRequest) (*models.Match, error) {
	variant, err := a.variantFor(req)
	if err != nil {
		return nil, err
	}

	rounds := req.TotalRounds
	if rounds == 0 {
		rounds = a.defaultRounds
	}
	if rounds < 1 {
		return nil, fmt.Errorf("%w: total rounds must be positive", ErrInvalidChallenge)
	}

	p1, p2 := variant.Participants()
	for _, p := range []models.Participant{p1, p2} {
		if p.Guest {
			continue
		}
		open, err := a.repo.CountOpenMatches(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if open > 0 {
			return nil, fmt.Errorf("%w: %s", ErrPlayerBusy, p.ID)
		}
	}

	if a.online != nil && !a.online.IsOnline(p2.ID) {
		return nil, fmt.Errorf("%w: %s", ErrOpponentOffline, p2.ID)
	}

	m, err := a.repo.CreateMatch(ctx, CreateMatchRequest{
		ID:          uuid.New(),
		Variant:     variant,
		GoalTimeMs:  a.goals.NextGoalMs(),
		TotalRounds: rounds,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("match_id", m.ID.String()).
		Str("kind", string(variant.Kind())).
		Str("player1_id", p1.ID).
		Str("player2_id", p2.ID).
		Int("total_rounds", m.TotalRounds).
		Msg("challenge created")

	return m, nil
}

func (a *App) variantFor(req CreateChallengeRequest) (models.MatchVariant, error) {
	if req.OpponentID == "" {
		return nil, fmt.Errorf("%w: opponent is required", ErrInvalidChallenge)
	}
	if strings.HasPrefix(req.OpponentID, models.GuestIDPrefix) {
		return nil, fmt.Errorf("%w: guests cannot be challenged", ErrInvalidChallenge)
	}

	switch {
	case req.ChallengerID != "" && req.GuestToken != "":
		return nil, fmt.Errorf("%w: challenger cannot be both registered and guest", ErrInvalidChallenge)
	case req.ChallengerID != "":
		if req.ChallengerID == req.OpponentID {
			return nil, fmt.Errorf("%w: cannot challenge yourself", ErrInvalidChallenge)
		}
		return models.RegisteredMatch{Player1ID: req.ChallengerID, Player2ID: req.OpponentID}, nil
	case req.GuestToken != "":
		return models.GuestChallengeMatch{GuestToken: req.GuestToken, GuestName: req.GuestName, Player2ID: req.OpponentID}, nil
	}
	return nil, fmt.Errorf("%w: challenger is required", ErrInvalidChallenge)
}

// GetMatch retrieves a match by ID
func (a *App) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return a.repo.GetMatch(ctx, id)
}

// UpdateMatch writes m if the stored status still equals expected and the
// transition keeps the status monotonic.
func (a *App) UpdateMatch(ctx context.Context, m *models.Match, expected models.MatchStatus) (*models.Match, error) {
	if !expected.CanTransitionTo(m.Status) {
		return nil, fmt.Errorf("illegal status transition %s -> %s", expected, m.Status)
	}
	if m.CurrentRound > m.TotalRounds {
		return nil, fmt.Errorf("current round %d exceeds total rounds %d", m.CurrentRound, m.TotalRounds)
	}
	return a.repo.UpdateMatch(ctx, m, expected)
}

// ListStaleMatches returns non-terminal matches not updated since updatedBefore.
func (a *App) ListStaleMatches(ctx context.Context, updatedBefore time.Time, limit int32) ([]*models.Match, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}
	return a.repo.ListStaleMatches(ctx, updatedBefore, limit)
}
