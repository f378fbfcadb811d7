package match

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ calls int }

func (s *countingSweeper) SweepStale(context.Context) (int, error) {
	s.calls++
	return 2, nil
}

type staticOnline []models.PresenceEntry

func (s staticOnline) ListOnline() []models.PresenceEntry { return s }

func newTestAdmin(t *testing.T) (*AdminClient, *countingSweeper) {
	t.Helper()
	app := NewApp(newMemoryRepo(), NewSeededGoal(5000, 10000, 1), 3)
	sweeper := &countingSweeper{}
	online := staticOnline{{UserID: "bob", DisplayName: "Bob", Status: models.PresenceOnline, ConnectedSince: time.Unix(100, 0).UTC()}}

	mux := http.NewServeMux()
	mux.Handle(NewService(app, sweeper, online).NewHandler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewAdminClient(srv.Client(), srv.URL), sweeper
}

func TestAdminCreateAndGetMatch(t *testing.T) {
	client, _ := newTestAdmin(t)
	ctx := context.Background()

	created, err := client.CreateChallenge(ctx, &ChallengeRequest{ChallengerID: "alice", OpponentID: " bob "})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusWaiting, created.Status)
	assert.Equal(t, "bob", created.Player2.ID)
	assert.NotNil(t, created.Rounds)

	got, err := client.GetMatch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.GoalTimeMs, got.GoalTimeMs)
}

func TestAdminErrorCodes(t *testing.T) {
	client, _ := newTestAdmin(t)
	ctx := context.Background()

	_, err := client.CreateChallenge(ctx, &ChallengeRequest{ChallengerID: "alice", OpponentID: "alice"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.GetMatch(ctx, uuid.NewString())
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.GetMatch(ctx, "not-a-uuid")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.CreateChallenge(ctx, &ChallengeRequest{ChallengerID: "alice", OpponentID: "bob"})
	require.NoError(t, err)
	_, err = client.CreateChallenge(ctx, &ChallengeRequest{ChallengerID: "carol", OpponentID: "bob"})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestAdminForceCleanupAndListOnline(t *testing.T) {
	client, sweeper := newTestAdmin(t)
	ctx := context.Background()

	n, err := client.ForceCleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, sweeper.calls)

	users, err := client.ListOnline(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].UserID)
	assert.Equal(t, models.PresenceOnline, users[0].Status)
}
