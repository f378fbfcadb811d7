package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	processed uint64
	last      time.Time
	running   bool
}

func (f fakeStats) Stats() (uint64, time.Time, bool) { return f.processed, f.last, f.running }

type fakeProbe struct {
	pingErr error
	pending int
}

func (f fakeProbe) PingContext(context.Context) error { return f.pingErr }

func (f fakeProbe) CountUnsentOutbox(context.Context) (int, error) { return f.pending, nil }

func TestHealthCheck(t *testing.T) {
	clock := clockwork.NewFakeClock()
	up := func() bool { return true }
	down := func() bool { return false }

	cases := []struct {
		name    string
		stats   fakeStats
		probe   fakeProbe
		busUp   func() bool
		healthy bool
		errors  int
	}{
		{"healthy", fakeStats{running: true, last: clock.Now()}, fakeProbe{}, up, true, 0},
		{"listener stopped", fakeStats{}, fakeProbe{}, up, false, 1},
		{"database down", fakeStats{running: true}, fakeProbe{pingErr: errors.New("refused")}, up, false, 1},
		{"bus down", fakeStats{running: true}, fakeProbe{}, down, false, 1},
		{"stalled backlog", fakeStats{running: true, last: clock.Now().Add(-time.Hour)}, fakeProbe{pending: 3}, up, false, 1},
		{"large backlog still draining", fakeStats{running: true, last: clock.Now()}, fakeProbe{pending: 5000}, up, true, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthChecker(tc.stats, tc.probe, tc.busUp, clock, time.Minute)
			status := h.Check(context.Background())
			assert.Equal(t, tc.healthy, status.Healthy)
			assert.Len(t, status.Errors, tc.errors)
		})
	}
}

func TestHealthServeHTTP(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := NewHealthChecker(fakeStats{}, fakeProbe{pending: 2}, nil, clock, time.Minute)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.False(t, status.ListenerActive)
	assert.Equal(t, 2, status.PendingEvents)
}

func TestListenerStats(t *testing.T) {
	h := newListenerHarness(DefaultListenerConfig())
	h.insert(t, EventMatchStarted)
	h.insert(t, EventMatchFinished)

	require.NoError(t, h.listener.processUnsent(context.Background()))

	processed, last, running := h.listener.Stats()
	assert.Equal(t, uint64(2), processed)
	assert.Equal(t, h.clock.Now(), last)
	assert.False(t, running)
}
