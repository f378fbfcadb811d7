// Package session stores the ephemeral live state of each match: which seats
// are connected, the round phase, and the per-round race lock.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/models"
)

var (
	// ErrNotFound is returned when no live session exists for a match
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned when creating a session that already exists
	ErrExists = errors.New("session already exists")
)

// Store persists live sessions. Implementations must make AcquireRaceLock a
// single atomic test-and-set per (match, round).
type Store interface {
	Create(ctx context.Context, s *models.LiveSession) error
	Get(ctx context.Context, matchID uuid.UUID) (*models.LiveSession, error)
	Save(ctx context.Context, s *models.LiveSession) error
	Delete(ctx context.Context, matchID uuid.UUID) error

	// AcquireRaceLock claims round for userID if nobody holds it yet. It
	// returns the holder after the call and whether userID is that holder.
	AcquireRaceLock(ctx context.Context, matchID uuid.UUID, round int, userID string) (holder string, acquired bool, err error)
}
