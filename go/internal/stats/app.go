package stats

import (
	"context"

	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

// StatsRepository defines what the app layer needs from the repository
type StatsRepository interface {
	ApplyResults(ctx context.Context, results []models.StatResult) error
	GetPlayerStats(ctx context.Context, userID string) (*models.PlayerStats, error)
}

// App turns finished matches into aggregate stat updates
type App struct {
	repo StatsRepository
}

func NewApp(repo StatsRepository) *App {
	return &App{repo: repo}
}

// ApplyMatchResults records one game played for every registered participant,
// a win for the winner, and the best difference the player reached.
func (a *App) ApplyMatchResults(ctx context.Context, m *models.Match) error {
	results := ResultsFor(m)
	if len(results) == 0 {
		return nil
	}
	if err := a.repo.ApplyResults(ctx, results); err != nil {
		return err
	}

	log.Info().
		Str("match_id", m.ID.String()).
		Int("players", len(results)).
		Str("winner_id", m.WinnerID).
		Msg("applied match stats")
	return nil
}

func (a *App) GetPlayerStats(ctx context.Context, userID string) (*models.PlayerStats, error) {
	return a.repo.GetPlayerStats(ctx, userID)
}

// ResultsFor builds the per-player stat results of a finished match. Guests
// are skipped.
func ResultsFor(m *models.Match) []models.StatResult {
	var results []models.StatResult
	for _, slot := range []models.Slot{models.SlotPlayer1, models.SlotPlayer2} {
		if !m.StatsEligible(slot) {
			continue
		}
		id := m.PlayerID(slot)
		results = append(results, models.StatResult{
			UserID:     id,
			Won:        m.WinnerID != "" && m.WinnerID == id,
			BestDiffMs: bestDiff(m.Rounds, slot),
		})
	}
	return results
}

func bestDiff(rounds []models.RoundResult, slot models.Slot) *int {
	var best *int
	for _, r := range rounds {
		t := r.Player1TimeMs
		if slot == models.SlotPlayer2 {
			t = r.Player2TimeMs
		}
		if t == nil {
			continue
		}
		d := absDiff(*t, r.GoalTimeMs)
		if best == nil || d < *best {
			best = &d
		}
	}
	return best
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
