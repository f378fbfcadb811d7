package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRepo struct {
	applied [][]models.StatResult
	err     error
}

func (r *recordingRepo) ApplyResults(_ context.Context, results []models.StatResult) error {
	if r.err != nil {
		return r.err
	}
	r.applied = append(r.applied, results)
	return nil
}

func (r *recordingRepo) GetPlayerStats(context.Context, string) (*models.PlayerStats, error) {
	return nil, ErrStatsNotFound
}

func ms(v int) *int { return &v }

func finishedMatch(variant models.MatchVariant, winner string) *models.Match {
	return &models.Match{
		ID:       uuid.New(),
		Variant:  variant,
		Status:   models.MatchStatusFinished,
		WinnerID: winner,
		Rounds: []models.RoundResult{
			{RoundNumber: 1, GoalTimeMs: 7000, Player1TimeMs: ms(6800), Player2TimeMs: ms(7300)},
			{RoundNumber: 2, GoalTimeMs: 5000, Player1TimeMs: ms(5050), Player2TimeMs: nil},
		},
	}
}

func TestResultsForRegisteredMatch(t *testing.T) {
	m := finishedMatch(models.RegisteredMatch{Player1ID: "p1", Player2ID: "p2"}, "p1")

	results := ResultsFor(m)
	require.Len(t, results, 2)

	assert.Equal(t, "p1", results[0].UserID)
	assert.True(t, results[0].Won)
	require.NotNil(t, results[0].BestDiffMs)
	assert.Equal(t, 50, *results[0].BestDiffMs)

	assert.Equal(t, "p2", results[1].UserID)
	assert.False(t, results[1].Won)
	require.NotNil(t, results[1].BestDiffMs)
	assert.Equal(t, 300, *results[1].BestDiffMs)
}

func TestResultsForSkipsGuestAndDraws(t *testing.T) {
	m := finishedMatch(models.GuestChallengeMatch{GuestToken: "g", Player2ID: "p2"}, "")

	results := ResultsFor(m)
	require.Len(t, results, 1)
	assert.Equal(t, "p2", results[0].UserID)
	assert.False(t, results[0].Won, "a drawn match has no winner")
}

func TestResultsForPlayerWithoutTimes(t *testing.T) {
	m := &models.Match{
		ID:       uuid.New(),
		Variant:  models.RegisteredMatch{Player1ID: "p1", Player2ID: "p2"},
		WinnerID: "p2",
	}

	results := ResultsFor(m)
	require.Len(t, results, 2)
	assert.Nil(t, results[0].BestDiffMs)
	assert.True(t, results[1].Won)
}

func TestApplyMatchResults(t *testing.T) {
	repo := &recordingRepo{}
	app := NewApp(repo)

	require.NoError(t, app.ApplyMatchResults(context.Background(), finishedMatch(models.RegisteredMatch{Player1ID: "p1", Player2ID: "p2"}, "p2")))
	require.Len(t, repo.applied, 1)
	assert.Len(t, repo.applied[0], 2)

	repo.err = errors.New("db down")
	assert.Error(t, app.ApplyMatchResults(context.Background(), finishedMatch(models.RegisteredMatch{Player1ID: "p1", Player2ID: "p2"}, "p2")))
}
