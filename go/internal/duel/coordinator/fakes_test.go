package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeduel/go/internal/config"
	"github.com/mcdev12/timeduel/go/internal/duel/session"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/stretchr/testify/require"
)

type matchStore struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	matches   map[uuid.UUID]*models.Match
	failWrite error
}

func newMatchStore(clock clockwork.Clock) *matchStore {
	return &matchStore{clock: clock, matches: make(map[uuid.UUID]*models.Match)}
}

func (s *matchStore) add(m *models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.UpdatedAt = s.clock.Now()
	s.matches[m.ID] = m.Clone()
}

func (s *matchStore) get(id uuid.UUID) *models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id].Clone()
}

func (s *matchStore) setFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = err
}

func (s *matchStore) GetMatch(_ context.Context, id uuid.UUID) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, models.ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (s *matchStore) UpdateMatch(_ context.Context, m *models.Match, expected models.MatchStatus) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	cur, ok := s.matches[m.ID]
	if !ok || cur.Status != expected || !expected.CanTransitionTo(m.Status) {
		return nil, models.ErrStaleMatch
	}
	saved := m.Clone()
	saved.UpdatedAt = s.clock.Now()
	s.matches[m.ID] = saved
	return saved.Clone(), nil
}

func (s *matchStore) ListStaleMatches(_ context.Context, before time.Time, limit int32) ([]*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Match
	for _, m := range s.matches {
		if !m.Status.IsTerminal() && m.UpdatedAt.Before(before) && len(out) < int(limit) {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

type statsRecorder struct {
	mu      sync.Mutex
	applied []*models.Match
}

func (r *statsRecorder) ApplyMatchResults(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, m.Clone())
	return nil
}

func (r *statsRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

// waitCount blocks until n matches have been recorded.
func (r *statsRecorder) waitCount(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return r.count() == n },
		time.Second, time.Millisecond, "waiting for %d stats updates", n)
}

type eventSink struct {
	mu    sync.Mutex
	types []string
}

func (s *eventSink) InsertMatchEvent(_ context.Context, _ uuid.UUID, eventType string, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = append(s.types, eventType)
	return nil
}

func (s *eventSink) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.types...)
}

type presenceFlags struct {
	mu      sync.Mutex
	inMatch map[string]bool
}

func (p *presenceFlags) SetInMatch(userID string, inMatch bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inMatch[userID] = inMatch
}

func (p *presenceFlags) get(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inMatch[userID]
}

// fixedGoals hands out goals in order and repeats the last one.
type fixedGoals struct {
	mu    sync.Mutex
	goals []int
}

func (g *fixedGoals) NextGoalMs() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.goals[0]
	if len(g.goals) > 1 {
		g.goals = g.goals[1:]
	}
	return v
}

type sentEvent struct {
	Type    string
	Payload any
}

type testPeer struct {
	id     string
	userID string

	mu     sync.Mutex
	events []sentEvent
}

func newPeer(userID string) *testPeer {
	return &testPeer{id: uuid.NewString(), userID: userID}
}

func (p *testPeer) ID() string     { return p.id }
func (p *testPeer) UserID() string { return p.userID }

func (p *testPeer) Send(eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, sentEvent{Type: eventType, Payload: payload})
}

func (p *testPeer) all(eventType string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e.Payload)
		}
	}
	return out
}

func (p *testPeer) count(eventType string) int {
	return len(p.all(eventType))
}

func (p *testPeer) lastOf(t *testing.T, eventType string) any {
	t.Helper()
	all := p.all(eventType)
	require.NotEmpty(t, all, "no %s event", eventType)
	return all[len(all)-1]
}

// waitCount blocks until the peer has seen n events of eventType.
func (p *testPeer) waitCount(t *testing.T, eventType string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return p.count(eventType) >= n },
		time.Second, time.Millisecond, "waiting for %d %s events", n, eventType)
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	clock    *clockwork.FakeClock
	rules    config.Rules
	matches  *matchStore
	sessions *session.MemoryStore
	stats    *statsRecorder
	events   *eventSink
	presence *presenceFlags
	coord    *Coordinator
	match    *models.Match
	p1, p2   *testPeer
	rounds   int
}

func newHarness(t *testing.T, firstGoal int, nextGoals ...int) *harness {
	t.Helper()
	return newHarnessWithRules(t, config.DefaultRules(), firstGoal, nextGoals...)
}

func newHarnessWithRules(t *testing.T, rules config.Rules, firstGoal int, nextGoals ...int) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	if len(nextGoals) == 0 {
		nextGoals = []int{firstGoal}
	}

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		clock:    clock,
		rules:    rules,
		matches:  newMatchStore(clock),
		sessions: session.NewMemoryStore(clock, rules.SessionTTL),
		stats:    &statsRecorder{},
		events:   &eventSink{},
		presence: &presenceFlags{inMatch: make(map[string]bool)},
		p1:       newPeer("alice"),
		p2:       newPeer("bob"),
	}
	h.coord = New(Deps{
		Matches:  h.matches,
		Sessions: h.sessions,
		Goals:    &fixedGoals{goals: nextGoals},
		Stats:    h.stats,
		Events:   h.events,
		Presence: h.presence,
		Clock:    clock,
	}, rules)
	t.Cleanup(h.coord.Close)

	h.match = &models.Match{
		ID:           uuid.New(),
		Variant:      models.RegisteredMatch{Player1ID: "alice", Player2ID: "bob"},
		GoalTimeMs:   firstGoal,
		Status:       models.MatchStatusWaiting,
		CurrentRound: 1,
		TotalRounds:  3,
		CreatedAt:    clock.Now(),
	}
	h.matches.add(h.match)
	return h
}

func (h *harness) current() *models.Match {
	return h.matches.get(h.match.ID)
}

func (h *harness) joinBoth() {
	h.t.Helper()
	require.NoError(h.t, h.coord.Join(h.ctx, h.p1, h.match.ID))
	require.NoError(h.t, h.coord.Join(h.ctx, h.p2, h.match.ID))
}

// advance waits until a timer is pending and moves the clock past it.
func (h *harness) advance(d time.Duration) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(h.ctx, time.Second)
	defer cancel()
	require.NoError(h.t, h.clock.BlockUntilContext(ctx, 1), "no pending timer")
	h.clock.Advance(d)
}

// startRound runs the countdown and returns the authoritative round start.
func (h *harness) startRound() time.Time {
	h.t.Helper()
	h.rounds++
	h.advance(h.rules.Countdown)
	h.p1.waitCount(h.t, EventGameStart, h.rounds)
	h.p2.waitCount(h.t, EventGameStart, h.rounds)
	return h.p1.lastOf(h.t, EventGameStart).(GameStartPayload).StartTime
}

// nextRound walks through the inter-round delays into the next round.
func (h *harness) nextRound() time.Time {
	h.t.Helper()
	h.advance(h.rules.InterRoundDelay)
	h.p1.waitCount(h.t, EventNextRoundStarting, h.rounds)
	h.advance(h.rules.NextRoundDelay)
	h.p1.waitCount(h.t, EventCountdownStart, h.rounds+1)
	return h.startRound()
}

func (h *harness) clickAt(p *testPeer, start time.Time, ms int) error {
	return h.coord.Click(h.ctx, p, start.Add(time.Duration(ms)*time.Millisecond))
}

func (h *harness) waitStatus(status models.MatchStatus) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.current().Status == status },
		time.Second, time.Millisecond, "waiting for status %s", status)
}
