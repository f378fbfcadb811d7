package coordinator

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the coordinator wraps exactly one.
var (
	ErrAuthorization  = errors.New("not a participant")
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("invalid state")
	ErrRaceLost       = errors.New("race lost")
	ErrInfrastructure = errors.New("infrastructure failure")
)

// GameError carries an error kind, the reason shown to the player, and the
// underlying cause if any.
type GameError struct {
	Kind    error
	Message string
	Err     error

	// broadcast is set once the whole room was told about the failure.
	broadcast bool
}

func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GameError) Is(target error) bool {
	return target == e.Kind
}

func (e *GameError) Unwrap() error {
	return e.Err
}

func newError(kind error, format string, args ...any) *GameError {
	return &GameError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func infraError(message string, err error) *GameError {
	return &GameError{Kind: ErrInfrastructure, Message: message, Err: err}
}

// Message returns the player-facing reason for err.
func Message(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Message
	}
	return "internal error"
}

// Broadcast reports whether err was already sent to every player in the
// match, so the caller need not send it again.
func Broadcast(err error) bool {
	var ge *GameError
	return errors.As(err, &ge) && ge.broadcast
}
