package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	_, err := store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	s := models.NewLiveSession(id, clock.Now())
	require.NoError(t, store.Create(ctx, s))
	assert.ErrorIs(t, store.Create(ctx, s), ErrExists)

	s.Player1.Connected = true
	s.Phase = models.PhaseCountdown
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Player1.Connected)
	assert.Equal(t, models.PhaseCountdown, got.Phase)

	got.Player2.Connected = true
	again, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, again.Player2.Connected, "stored sessions are copies")

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Create(ctx, models.NewLiveSession(id, clock.Now())))
	clock.Advance(45 * time.Second)

	s, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, s), "save refreshes the ttl")

	clock.Advance(45 * time.Second)
	_, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	clock.Advance(time.Minute)
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())

	assert.NoError(t, store.Create(ctx, models.NewLiveSession(id, clock.Now())), "expired sessions can be recreated")
}

func TestMemoryStoreRaceLockIsPerRound(t *testing.T) {
	store := NewMemoryStore(clockwork.NewFakeClock(), time.Minute)
	ctx := context.Background()
	id := uuid.New()

	holder, ok, err := store.AcquireRaceLock(ctx, id, 1, "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "p1", holder)

	holder, ok, err = store.AcquireRaceLock(ctx, id, 1, "p2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "p1", holder)

	holder, ok, _ = store.AcquireRaceLock(ctx, id, 1, "p1")
	assert.True(t, ok, "holder re-acquiring is idempotent")
	assert.Equal(t, "p1", holder)

	holder, ok, _ = store.AcquireRaceLock(ctx, id, 2, "p2")
	assert.True(t, ok)
	assert.Equal(t, "p2", holder)
}

func TestMemoryStoreRaceLockConcurrent(t *testing.T) {
	store := NewMemoryStore(clockwork.NewFakeClock(), time.Minute)
	ctx := context.Background()
	id := uuid.New()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	for _, user := range []string{"p1", "p2", "p1", "p2", "p1", "p2"} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			holder, ok, err := store.AcquireRaceLock(ctx, id, 1, u)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				winners = append(winners, holder)
				mu.Unlock()
			}
		}(user)
	}
	wg.Wait()

	require.NotEmpty(t, winners)
	for _, w := range winners {
		assert.Equal(t, winners[0], w, "only one identity may hold the round")
	}
}
