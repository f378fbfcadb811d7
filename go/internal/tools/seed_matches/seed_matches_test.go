package main

import (
	"testing"

	"github.com/mcdev12/timeduel/go/internal/match"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRows(t *testing.T) {
	goals := match.NewSeededGoal(5000, 10000, 7)
	rows, err := buildRows([]DemoMatch{
		{Player1ID: "alice", Player2ID: "bob"},
		{GuestName: "", Player2ID: "erin", TotalRounds: 5},
	}, goals, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, models.MatchKindRegistered, rows[0].Kind)
	assert.Equal(t, "alice", *rows[0].Player1ID)
	assert.Nil(t, rows[0].GuestToken)
	assert.Equal(t, 3, rows[0].TotalRounds)

	assert.Equal(t, models.MatchKindGuestChallenge, rows[1].Kind)
	assert.Nil(t, rows[1].Player1ID)
	assert.Equal(t, "Guest", *rows[1].GuestName)
	assert.Len(t, *rows[1].GuestToken, 32)
	assert.Equal(t, 5, rows[1].TotalRounds)

	for _, r := range rows {
		assert.GreaterOrEqual(t, r.GoalTimeMs, 5000)
		assert.LessOrEqual(t, r.GoalTimeMs, 10000)
	}
}

func TestBuildRowsRejectsInvalid(t *testing.T) {
	goals := match.NewSeededGoal(5000, 10000, 1)

	_, err := buildRows([]DemoMatch{{Player1ID: "alice"}}, goals, 3)
	assert.Error(t, err)

	_, err = buildRows([]DemoMatch{{Player1ID: "bob", Player2ID: "bob"}}, goals, 3)
	assert.Error(t, err)
}
