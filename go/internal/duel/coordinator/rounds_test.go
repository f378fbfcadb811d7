package coordinator

import (
	"testing"
	"time"

	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func testMatch(goal int, p1, p2 *int) *models.Match {
	return &models.Match{
		Variant:      models.RegisteredMatch{Player1ID: "alice", Player2ID: "bob"},
		GoalTimeMs:   goal,
		Player1:      models.PlayerState{TimeMs: p1},
		Player2:      models.PlayerState{TimeMs: p2},
		CurrentRound: 1,
		TotalRounds:  3,
	}
}

func TestSettleRoundWinner(t *testing.T) {
	cases := []struct {
		name   string
		goal   int
		p1, p2 int
		winner string
		scores Scores
	}{
		{"player1 closer", 7000, 6800, 7300, "alice", Scores{Player1: 1}},
		{"player2 closer", 7000, 7500, 7001, "bob", Scores{Player2: 1}},
		{"both early", 9000, 8000, 8500, "bob", Scores{Player2: 1}},
		{"equal distance", 5000, 4900, 5100, "", Scores{}},
		{"identical times", 6000, 6200, 6200, "", Scores{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := testMatch(tc.goal, intPtr(tc.p1), intPtr(tc.p2))
			now := time.Unix(1000, 0)

			r := settleRound(m, now)

			assert.Equal(t, tc.winner, r.RoundWinner)
			assert.Equal(t, tc.scores, scoresOf(m))
			assert.Equal(t, 1, r.RoundNumber)
			assert.Equal(t, tc.goal, r.GoalTimeMs)
			assert.Equal(t, now, r.CompletedAt)
			assert.Len(t, m.Rounds, 1)
		})
	}
}

func TestSettleRoundCopiesTimes(t *testing.T) {
	m := testMatch(7000, intPtr(6800), intPtr(7300))
	r := settleRound(m, time.Unix(0, 0))

	advanceRound(m, 8000)

	assert.Nil(t, m.Player1.TimeMs)
	assert.Equal(t, 6800, *r.Player1TimeMs)
	assert.Equal(t, 7300, *m.Rounds[0].Player2TimeMs)
	assert.Equal(t, 2, m.CurrentRound)
	assert.Equal(t, 8000, m.GoalTimeMs)
}

func TestMatchDecided(t *testing.T) {
	cases := []struct {
		name         string
		total        int
		current      int
		p1, p2       int
		wantFinished bool
	}{
		{"first round", 3, 1, 1, 0, false},
		{"majority reached", 3, 2, 2, 0, true},
		{"split after two", 3, 2, 1, 1, false},
		{"last round", 3, 3, 1, 0, true},
		{"single round", 1, 1, 0, 0, true},
		{"best of five", 5, 3, 2, 1, false},
		{"best of five majority", 5, 3, 3, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &models.Match{CurrentRound: tc.current, TotalRounds: tc.total}
			m.Player1.Score = tc.p1
			m.Player2.Score = tc.p2
			assert.Equal(t, tc.wantFinished, matchDecided(m))
		})
	}
}

func TestOverallWinner(t *testing.T) {
	m := testMatch(5000, nil, nil)
	assert.Empty(t, overallWinner(m))

	m.Player2.Score = 1
	assert.Equal(t, "bob", overallWinner(m))

	m.Player1.Score = 2
	assert.Equal(t, "alice", overallWinner(m))
}
