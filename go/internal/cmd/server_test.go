package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/mcdev12/timeduel/go/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsRepo struct {
	rows map[string]*models.PlayerStats
	err  error
}

func (r statsRepo) ApplyResults(context.Context, []models.StatResult) error { return nil }

func (r statsRepo) GetPlayerStats(_ context.Context, userID string) (*models.PlayerStats, error) {
	if r.err != nil {
		return nil, r.err
	}
	ps, ok := r.rows[userID]
	if !ok {
		return nil, stats.ErrStatsNotFound
	}
	return ps, nil
}

func TestStatsHandler(t *testing.T) {
	best := 42
	repo := statsRepo{rows: map[string]*models.PlayerStats{
		"alice": {UserID: "alice", GamesPlayed: 3, GamesWon: 2, BestTimeMs: &best},
	}}
	handler := statsHandler(stats.NewApp(repo))

	cases := []struct {
		name   string
		query  string
		status int
	}{
		{"found", "?user_id=alice", http.StatusOK},
		{"unknown user", "?user_id=bob", http.StatusNotFound},
		{"missing user", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/api/stats"+tc.query, nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/stats?user_id=alice", nil))
	var got models.PlayerStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 2, got.GamesWon)
	assert.Equal(t, 42, *got.BestTimeMs)
}

func TestStatsHandlerInternalError(t *testing.T) {
	handler := statsHandler(stats.NewApp(statsRepo{err: errors.New("connection refused")}))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/stats?user_id=alice", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
