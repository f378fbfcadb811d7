package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Match lifecycle events relayed to the event bus.
const (
	EventMatchStarted   = "MatchStarted"
	EventRoundFinished  = "RoundFinished"
	EventMatchFinished  = "MatchFinished"
	EventMatchCancelled = "MatchCancelled"
	EventMatchForfeited = "MatchForfeited"
)

var knownEventTypes = map[string]struct{}{
	EventMatchStarted:   {},
	EventRoundFinished:  {},
	EventMatchFinished:  {},
	EventMatchCancelled: {},
	EventMatchForfeited: {},
}

// ErrEventNotFound is returned for unknown or already sent events.
var ErrEventNotFound = errors.New("outbox event not found")

// OutboxEvent represents an outbox event for the application layer
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	MatchID   uuid.UUID       `json:"match_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// Publisher delivers an event to the bus. Implementations must tolerate
// redelivery of the same event ID.
type Publisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
