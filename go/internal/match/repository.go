package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/match/db"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/mcdev12/timeduel/go/internal/sqlutil"
)

type Repository struct {
	queries *db.Queries
}

func NewRepository(queries *db.Queries) *Repository {
	return &Repository{
		queries: queries,
	}
}

func (r *Repository) CreateMatch(ctx context.Context, req CreateMatchRequest) (*models.Match, error) {
	params := db.CreateMatchParams{
		ID:          req.ID,
		Kind:        db.MatchKind(req.Variant.Kind()),
		GoalTimeMs:  int32(req.GoalTimeMs),
		TotalRounds: int32(req.TotalRounds),
	}
	switch v := req.Variant.(type) {
	case models.RegisteredMatch:
		params.Player1ID = sqlutil.ToSqlString(v.Player1ID)
		params.Player2ID = v.Player2ID
	case models.GuestChallengeMatch:
		params.GuestToken = sqlutil.ToSqlString(v.GuestToken)
		params.GuestName = sqlutil.ToSqlString(v.GuestName)
		params.Player2ID = v.Player2ID
	default:
		return nil, fmt.Errorf("unsupported match variant %T", req.Variant)
	}

	row, err := r.queries.CreateMatch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return r.dbMatchToModel(row)
}

func (r *Repository) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	row, err := r.queries.GetMatch(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return r.dbMatchToModel(row)
}

// UpdateMatch persists m only if the stored status still equals expected.
// A status mismatch returns models.ErrStaleMatch.
func (r *Repository) UpdateMatch(ctx context.Context, m *models.Match, expected models.MatchStatus) (*models.Match, error) {
	rounds, err := sqlutil.ToNullRawMessage(m.Rounds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rounds: %w", err)
	}

	row, err := r.queries.UpdateMatchState(ctx, db.UpdateMatchStateParams{
		ID:               m.ID,
		Status:           db.MatchStatus(expected),
		GoalTimeMs:       int32(m.GoalTimeMs),
		Player1TimeMs:    sqlutil.ToSqlInt32(m.Player1.TimeMs),
		Player1ClickedAt: sqlutil.ToSqlTime(m.Player1.ClickedAt),
		Player1Score:     int32(m.Player1.Score),
		Player2TimeMs:    sqlutil.ToSqlInt32(m.Player2.TimeMs),
		Player2ClickedAt: sqlutil.ToSqlTime(m.Player2.ClickedAt),
		Player2Score:     int32(m.Player2.Score),
		Status_2:         db.MatchStatus(m.Status),
		GameStartedAt:    sqlutil.ToSqlTime(m.GameStartedAt),
		GameEndedAt:      sqlutil.ToSqlTime(m.GameEndedAt),
		Rounds:           rounds,
		CurrentRound:     int32(m.CurrentRound),
		WinnerID:         sqlutil.ToSqlString(m.WinnerID),
		Forfeit:          m.Forfeit,
		CancelReason:     sqlutil.ToSqlString(m.CancelReason),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrStaleMatch
		}
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	return r.dbMatchToModel(row)
}

func (r *Repository) ListStaleMatches(ctx context.Context, updatedBefore time.Time, limit int32) ([]*models.Match, error) {
	rows, err := r.queries.ListStaleMatches(ctx, db.ListStaleMatchesParams{
		UpdatedAt: updatedBefore,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stale matches: %w", err)
	}

	matches := make([]*models.Match, 0, len(rows))
	for _, row := range rows {
		m, err := r.dbMatchToModel(row)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *Repository) CountOpenMatches(ctx context.Context, userID string) (int, error) {
	n, err := r.queries.CountOpenMatchesForPlayer(ctx, sqlutil.ToSqlString(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count open matches: %w", err)
	}
	return int(n), nil
}

// Helper function to convert DB match to model
func (r *Repository) dbMatchToModel(row db.Match) (*models.Match, error) {
	m := &models.Match{
		ID:         row.ID,
		GoalTimeMs: int(row.GoalTimeMs),
		Player1: models.PlayerState{
			TimeMs:    sqlutil.FromSqlInt32(row.Player1TimeMs),
			ClickedAt: sqlutil.FromSqlTime(row.Player1ClickedAt),
			Score:     int(row.Player1Score),
		},
		Player2: models.PlayerState{
			TimeMs:    sqlutil.FromSqlInt32(row.Player2TimeMs),
			ClickedAt: sqlutil.FromSqlTime(row.Player2ClickedAt),
			Score:     int(row.Player2Score),
		},
		Status:        models.MatchStatus(row.Status),
		GameStartedAt: sqlutil.FromSqlTime(row.GameStartedAt),
		GameEndedAt:   sqlutil.FromSqlTime(row.GameEndedAt),
		CurrentRound:  int(row.CurrentRound),
		TotalRounds:   int(row.TotalRounds),
		WinnerID:      sqlutil.FromSqlString(row.WinnerID, ""),
		Forfeit:       row.Forfeit,
		CancelReason:  sqlutil.FromSqlString(row.CancelReason, ""),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}

	switch row.Kind {
	case db.MatchKindRegistered:
		m.Variant = models.RegisteredMatch{
			Player1ID: sqlutil.FromSqlString(row.Player1ID, ""),
			Player2ID: row.Player2ID,
		}
	case db.MatchKindGuestChallenge:
		m.Variant = models.GuestChallengeMatch{
			GuestToken: sqlutil.FromSqlString(row.GuestToken, ""),
			GuestName:  sqlutil.FromSqlString(row.GuestName, ""),
			Player2ID:  row.Player2ID,
		}
	default:
		return nil, fmt.Errorf("unknown match kind %q", row.Kind)
	}

	if err := sqlutil.FromNullRawMessage(row.Rounds, &m.Rounds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rounds: %w", err)
	}
	return m, nil
}
