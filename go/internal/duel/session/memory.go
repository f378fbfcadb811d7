package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeduel/go/internal/models"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store used for single-node deployments and tests.
type MemoryStore struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	ttl      time.Duration
	sessions map[uuid.UUID]memoryEntry
	races    map[uuid.UUID]map[int]string
}

// NewMemoryStore creates a store whose entries expire ttl after their last save.
func NewMemoryStore(clock clockwork.Clock, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[uuid.UUID]memoryEntry),
		races:    make(map[uuid.UUID]map[int]string),
	}
}

func (m *MemoryStore) Create(_ context.Context, s *models.LiveSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.liveLocked(s.MatchID); ok {
		return ErrExists
	}
	return m.putLocked(s)
}

func (m *MemoryStore) Get(_ context.Context, matchID uuid.UUID) (*models.LiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.liveLocked(matchID)
	if !ok {
		return nil, ErrNotFound
	}
	var s models.LiveSession
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *models.LiveSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocked(s)
}

func (m *MemoryStore) Delete(_ context.Context, matchID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, matchID)
	delete(m.races, matchID)
	return nil
}

func (m *MemoryStore) AcquireRaceLock(_ context.Context, matchID uuid.UUID, round int, userID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rounds, ok := m.races[matchID]
	if !ok {
		rounds = make(map[int]string)
		m.races[matchID] = rounds
	}
	holder, held := rounds[round]
	if !held {
		rounds[round] = userID
		return userID, true, nil
	}
	return holder, holder == userID, nil
}

// Len returns the number of unexpired sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id := range m.sessions {
		if _, ok := m.liveLocked(id); ok {
			n++
		}
	}
	return n
}

func (m *MemoryStore) putLocked(s *models.LiveSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	m.sessions[s.MatchID] = memoryEntry{data: data, expiresAt: m.clock.Now().Add(m.ttl)}
	return nil
}

// liveLocked returns the entry for id, evicting it if it has expired.
func (m *MemoryStore) liveLocked(id uuid.UUID) (memoryEntry, bool) {
	e, ok := m.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.clock.Now().Before(e.expiresAt) {
		delete(m.sessions, id)
		delete(m.races, id)
		return memoryEntry{}, false
	}
	return e, true
}
