package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/mcdev12/timeduel/go/internal/sqlutil"
	"github.com/mcdev12/timeduel/go/internal/stats/db"
)

// ErrStatsNotFound is returned for users that have never finished a match
var ErrStatsNotFound = errors.New("player stats not found")

type Repository struct {
	db      *sql.DB
	queries *db.Queries
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{
		db:      database,
		queries: db.New(database),
	}
}

// ApplyResults upserts every result in one transaction so both players of a
// match are updated together or not at all.
func (r *Repository) ApplyResults(ctx context.Context, results []models.StatResult) error {
	err := sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *db.Queries) error {
		for _, res := range results {
			won := int32(0)
			if res.Won {
				won = 1
			}
			if _, err := q.ApplyPlayerResult(ctx, db.ApplyPlayerResultParams{
				UserID:     res.UserID,
				GamesWon:   won,
				BestTimeMs: sqlutil.ToSqlInt32(res.BestDiffMs),
			}); err != nil {
				return fmt.Errorf("failed to apply result for %s: %w", res.UserID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply match results: %w", err)
	}
	return nil
}

func (r *Repository) GetPlayerStats(ctx context.Context, userID string) (*models.PlayerStats, error) {
	row, err := r.queries.GetPlayerStats(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatsNotFound
		}
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}
	return &models.PlayerStats{
		UserID:      row.UserID,
		GamesPlayed: int(row.GamesPlayed),
		GamesWon:    int(row.GamesWon),
		BestTimeMs:  sqlutil.FromSqlInt32(row.BestTimeMs),
		UpdatedAt:   row.UpdatedAt,
	}, nil
}
