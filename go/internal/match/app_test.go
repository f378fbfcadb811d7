package match

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*models.Match
	failErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{matches: make(map[uuid.UUID]*models.Match)}
}

func (r *memoryRepo) CreateMatch(_ context.Context, req CreateMatchRequest) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	m := &models.Match{
		ID:           req.ID,
		Variant:      req.Variant,
		GoalTimeMs:   req.GoalTimeMs,
		Status:       models.MatchStatusWaiting,
		CurrentRound: 1,
		TotalRounds:  req.TotalRounds,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.matches[m.ID] = m
	return m.Clone(), nil
}

func (r *memoryRepo) GetMatch(_ context.Context, id uuid.UUID) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, models.ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (r *memoryRepo) UpdateMatch(_ context.Context, m *models.Match, expected models.MatchStatus) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.matches[m.ID]
	if !ok || cur.Status != expected {
		return nil, models.ErrStaleMatch
	}
	r.matches[m.ID] = m.Clone()
	return m.Clone(), nil
}

func (r *memoryRepo) ListStaleMatches(_ context.Context, before time.Time, limit int32) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if !m.Status.IsTerminal() && m.UpdatedAt.Before(before) && len(out) < int(limit) {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (r *memoryRepo) CountOpenMatches(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.matches {
		if !m.Status.IsTerminal() && m.SlotOf(userID) != models.SlotNone {
			n++
		}
	}
	return n, nil
}

type onlineSet map[string]bool

func (o onlineSet) IsOnline(userID string) bool { return o[userID] }

func TestCreateChallengeRegistered(t *testing.T) {
	repo := newMemoryRepo()
	app := NewApp(repo, NewSeededGoal(5000, 10000, 7), 3)

	m, err := app.CreateChallenge(context.Background(), CreateChallengeRequest{ChallengerID: "alice", OpponentID: "bob"})
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusWaiting, m.Status)
	assert.Equal(t, 3, m.TotalRounds)
	assert.Equal(t, 1, m.CurrentRound)
	assert.GreaterOrEqual(t, m.GoalTimeMs, 5000)
	assert.LessOrEqual(t, m.GoalTimeMs, 10000)
	assert.Equal(t, models.RegisteredMatch{Player1ID: "alice", Player2ID: "bob"}, m.Variant)
	assert.True(t, m.StatsEligible(models.SlotPlayer1))
}

func TestCreateChallengeGuest(t *testing.T) {
	app := NewApp(newMemoryRepo(), NewSeededGoal(5000, 10000, 7), 3)

	m, err := app.CreateChallenge(context.Background(), CreateChallengeRequest{GuestToken: "tok", GuestName: "Visitor", OpponentID: "bob", TotalRounds: 5})
	require.NoError(t, err)

	assert.Equal(t, models.MatchKindGuestChallenge, m.Variant.Kind())
	assert.Equal(t, "guest:tok", m.PlayerID(models.SlotPlayer1))
	assert.Equal(t, models.SlotPlayer1, m.SlotOf("guest:tok"))
	assert.False(t, m.StatsEligible(models.SlotPlayer1))
	assert.True(t, m.StatsEligible(models.SlotPlayer2))
	assert.Equal(t, 5, m.TotalRounds)
}

func TestCreateChallengeValidation(t *testing.T) {
	app := NewApp(newMemoryRepo(), NewSeededGoal(5000, 10000, 7), 3)

	cases := map[string]CreateChallengeRequest{
		"self":          {ChallengerID: "alice", OpponentID: "alice"},
		"no opponent":   {ChallengerID: "alice"},
		"no challenger": {OpponentID: "bob"},
		"both":          {ChallengerID: "alice", GuestToken: "tok", OpponentID: "bob"},
		"guest target":  {ChallengerID: "alice", OpponentID: "guest:tok"},
		"bad rounds":    {ChallengerID: "alice", OpponentID: "bob", TotalRounds: -1},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := app.CreateChallenge(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidChallenge)
		})
	}
}

func TestCreateChallengeRejectsBusyPlayers(t *testing.T) {
	app := NewApp(newMemoryRepo(), NewSeededGoal(5000, 10000, 7), 3)
	ctx := context.Background()

	_, err := app.CreateChallenge(ctx, CreateChallengeRequest{ChallengerID: "alice", OpponentID: "bob"})
	require.NoError(t, err)

	_, err = app.CreateChallenge(ctx, CreateChallengeRequest{ChallengerID: "carol", OpponentID: "bob"})
	assert.ErrorIs(t, err, ErrPlayerBusy)

	_, err = app.CreateChallenge(ctx, CreateChallengeRequest{ChallengerID: "alice", OpponentID: "dave"})
	assert.ErrorIs(t, err, ErrPlayerBusy)
}

func TestCreateChallengeRequireOnline(t *testing.T) {
	app := NewApp(newMemoryRepo(), NewSeededGoal(5000, 10000, 7), 3)
	app.RequireOnline(onlineSet{"bob": true})

	_, err := app.CreateChallenge(context.Background(), CreateChallengeRequest{ChallengerID: "alice", OpponentID: "carol"})
	assert.ErrorIs(t, err, ErrOpponentOffline)

	_, err = app.CreateChallenge(context.Background(), CreateChallengeRequest{ChallengerID: "alice", OpponentID: "bob"})
	assert.NoError(t, err)
}

func TestCreateChallengeRepositoryError(t *testing.T) {
	repo := newMemoryRepo()
	repo.failErr = errors.New("db down")
	app := NewApp(repo, NewSeededGoal(5000, 10000, 7), 3)

	_, err := app.CreateChallenge(context.Background(), CreateChallengeRequest{ChallengerID: "alice", OpponentID: "bob"})
	assert.EqualError(t, err, "db down")
}

func TestUpdateMatchEnforcesMonotonicStatus(t *testing.T) {
	repo := newMemoryRepo()
	app := NewApp(repo, NewSeededGoal(5000, 10000, 7), 3)
	ctx := context.Background()

	m, err := app.CreateChallenge(ctx, CreateChallengeRequest{ChallengerID: "alice", OpponentID: "bob"})
	require.NoError(t, err)

	m.Status = models.MatchStatusActive
	_, err = app.UpdateMatch(ctx, m, models.MatchStatusWaiting)
	require.NoError(t, err)

	m.Status = models.MatchStatusWaiting
	_, err = app.UpdateMatch(ctx, m, models.MatchStatusActive)
	assert.Error(t, err, "status cannot move backwards")

	m.Status = models.MatchStatusActive
	m.CurrentRound = 4
	_, err = app.UpdateMatch(ctx, m, models.MatchStatusActive)
	assert.Error(t, err, "current round cannot exceed total rounds")

	m.CurrentRound = 1
	_, err = app.UpdateMatch(ctx, m, models.MatchStatusStarting)
	assert.ErrorIs(t, err, models.ErrStaleMatch)
}

func TestUniformGoalBounds(t *testing.T) {
	g, err := NewUniformGoal(5000, 10000)
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		v := g.NextGoalMs()
		require.GreaterOrEqual(t, v, 5000)
		require.LessOrEqual(t, v, 10000)
	}

	_, err = NewUniformGoal(10000, 5000)
	assert.Error(t, err)
}

func TestSeededGoalIsDeterministic(t *testing.T) {
	a := NewSeededGoal(5000, 10000, 42)
	b := NewSeededGoal(5000, 10000, 42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.NextGoalMs(), b.NextGoalMs())
	}
}
