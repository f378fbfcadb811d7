package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/duel/session"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Join seats peer in its slot of matchID and starts the countdown once both
// players are connected. Rejected joins leave the session untouched.
func (c *Coordinator) Join(ctx context.Context, peer Peer, matchID uuid.UUID) error {
	m, err := c.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	slot := m.SlotOf(peer.UserID())
	if slot == models.SlotNone {
		return newError(ErrAuthorization, "you are not a participant in this match")
	}
	if !m.Status.Joinable() {
		return newError(ErrInvalidState, "match is %s", m.Status)
	}

	// A connection follows one match at a time.
	if bound, ok := c.boundMatch(peer.ID()); ok && bound != matchID {
		c.Disconnect(ctx, peer)
	}

	r := c.lockRoom(matchID)
	defer c.unlockRoom(r)

	// Re-read under the room lock so a transition that raced the first read
	// is observed.
	m, err = c.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if !m.Status.Joinable() {
		return newError(ErrInvalidState, "match is %s", m.Status)
	}

	s, err := c.loadSession(ctx, matchID)
	if err != nil {
		return err
	}
	if s.Phase == models.PhaseFinished {
		return newError(ErrInvalidState, "match is over")
	}

	if old := r.peers[slot]; old != nil && old.ID() != peer.ID() {
		c.unbindPeer(old.ID(), matchID)
		old.Send(EventGameError, GameErrorPayload{Message: "replaced by a newer connection"})
	}

	seat := s.Seat(slot)
	seat.ConnectionID = peer.ID()
	seat.Connected = true
	if err := c.saveSession(ctx, s); err != nil {
		return err
	}

	r.peers[slot] = peer
	c.bindPeer(peer.ID(), matchID)
	if c.presence != nil {
		c.presence.SetInMatch(peer.UserID(), true)
	}

	log.Info().
		Str("match_id", matchID.String()).
		Str("user_id", peer.UserID()).
		Str("connection_id", peer.ID()).
		Str("role", slot.Role()).
		Str("phase", string(s.Phase)).
		Msg("player joined match")

	peer.Send(EventJoined, JoinedPayload{
		MatchID: matchID.String(),
		Role:    slot.Role(),
		Match:   matchSummary(m),
		Session: sessionSummary(s),
	})
	c.broadcastConnections(r, s)

	// Back within the forfeit grace period.
	if r.forfeit != nil && r.forfeitSlot == slot {
		c.cancelForfeit(r)
	}

	if s.BothConnected() && (s.Phase == models.PhaseWaitingPlayers || s.Phase == models.PhasePaused) {
		if err := c.startCountdown(ctx, r, m, s); err != nil {
			c.reportFailure(r, err)
			return err
		}
	}
	return nil
}

// Click records peer's stop time for the current round. at is the server
// receive time of the click.
func (c *Coordinator) Click(ctx context.Context, peer Peer, at time.Time) error {
	r := c.lockPeerRoom(peer.ID())
	if r == nil {
		return newError(ErrNotFound, "no active session")
	}
	defer c.unlockRoom(r)

	s, err := c.sessions.Get(ctx, r.matchID)
	if errors.Is(err, session.ErrNotFound) {
		return newError(ErrNotFound, "no active session")
	}
	if err != nil {
		return infraError("failed to load session", err)
	}
	if s.Phase != models.PhasePlaying || s.RoundStartedAt == nil {
		return newError(ErrInvalidState, "round is not in progress")
	}

	m, err := c.getMatch(ctx, r.matchID)
	if err != nil {
		return err
	}
	if m.Status != models.MatchStatusActive {
		return newError(ErrInvalidState, "match is %s", m.Status)
	}
	slot := m.SlotOf(peer.UserID())
	if slot == models.SlotNone {
		return newError(ErrAuthorization, "you are not a participant in this match")
	}
	if m.State(slot).TimeMs != nil {
		return newError(ErrInvalidState, "already clicked this round")
	}

	holder, acquired, err := c.sessions.AcquireRaceLock(ctx, m.ID, m.CurrentRound, peer.UserID())
	if err != nil {
		return infraError("failed to acquire race lock", err)
	}
	if !acquired {
		// The lock is only contested while the holder's time is unrecorded.
		holderSlot := m.SlotOf(holder)
		if holderSlot == models.SlotNone || m.State(holderSlot).TimeMs == nil {
			peer.Send(EventClickRejected, ClickRejectedPayload{WinnerID: holder})
			return newError(ErrRaceLost, "%s clicked first", holder)
		}
	} else {
		s.RaceLocked = true
		s.RaceWinner = holder
		s.RaceRound = m.CurrentRound
	}

	elapsed := int(at.Sub(*s.RoundStartedAt).Milliseconds())
	if elapsed < 0 {
		elapsed = 0
	}

	next := m.Clone()
	state := next.State(slot)
	state.TimeMs = &elapsed
	state.ClickedAt = &at
	saved, err := c.persist(ctx, next, m.Status)
	if err != nil {
		c.reportFailure(r, err)
		return err
	}
	if err := c.saveSession(ctx, s); err != nil {
		log.Error().Err(err).Str("match_id", m.ID.String()).Msg("failed to save session after click")
	}

	diff := absDiff(elapsed, saved.GoalTimeMs)
	peer.Send(EventClickRegistered, ClickRegisteredPayload{
		Elapsed:    elapsed,
		GoalTime:   saved.GoalTimeMs,
		Difference: diff,
	})
	c.broadcast(r, EventPlayerClicked, PlayerClickedPayload{
		PlayerID:   peer.UserID(),
		Elapsed:    elapsed,
		GoalTime:   saved.GoalTimeMs,
		Difference: diff,
	})

	log.Info().
		Str("match_id", m.ID.String()).
		Str("user_id", peer.UserID()).
		Int("round", saved.CurrentRound).
		Int("elapsed_ms", elapsed).
		Int("diff_ms", diff).
		Msg("click registered")

	if saved.RoundComplete() {
		if err := c.settle(ctx, r, saved, s); err != nil {
			c.reportFailure(r, err)
		}
	}
	return nil
}

// Leave detaches peer from matchID. Leaving a match in progress forfeits it,
// or cancels it when the opponent is away too. Leaving one that never
// started cancels it when forceEnd is set.
func (c *Coordinator) Leave(ctx context.Context, peer Peer, matchID uuid.UUID, forceEnd bool) error {
	if bound, ok := c.boundMatch(peer.ID()); !ok || bound != matchID {
		return newError(ErrNotFound, "not in this match")
	}
	r := c.lockPeerRoom(peer.ID())
	if r == nil || r.matchID != matchID {
		if r != nil {
			r.mu.Unlock()
		}
		return newError(ErrNotFound, "not in this match")
	}
	defer c.unlockRoom(r)

	m, err := c.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	slot := m.SlotOf(peer.UserID())
	if slot == models.SlotNone {
		return newError(ErrAuthorization, "you are not a participant in this match")
	}

	s, err := c.sessions.Get(ctx, matchID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return infraError("failed to load session", err)
	}

	switch {
	case m.Status.IsTerminal():
	case m.Status == models.MatchStatusWaiting:
		if forceEnd {
			if err := c.cancel(ctx, r, s, m, models.MatchStatusCancelled, ReasonPlayerLeft); err != nil {
				c.reportFailure(r, err)
				return err
			}
		}
	case s == nil || !s.Seat(slot.Opponent()).Connected:
		// Nobody is left to award the win to.
		if err := c.cancel(ctx, r, s, m, models.MatchStatusCancelled, ReasonPlayerLeft); err != nil {
			c.reportFailure(r, err)
			return err
		}
	default:
		if err := c.forfeit(ctx, r, s, m, slot, ReasonPlayerLeft); err != nil {
			c.reportFailure(r, err)
			return err
		}
	}

	peer.Send(EventLeftGame, LeftGamePayload{MatchID: matchID.String()})
	c.detach(ctx, r, s, peer, slot)

	log.Info().
		Str("match_id", matchID.String()).
		Str("user_id", peer.UserID()).
		Bool("force_end", forceEnd).
		Msg("player left match")
	return nil
}

// Disconnect handles a dropped connection. Repeated calls for the same peer
// are no-ops.
func (c *Coordinator) Disconnect(ctx context.Context, peer Peer) {
	r := c.lockPeerRoom(peer.ID())
	if r == nil {
		return
	}
	defer c.unlockRoom(r)

	slot := models.SlotNone
	for i, p := range r.peers {
		if p != nil && p.ID() == peer.ID() {
			slot = models.Slot(i)
		}
	}
	if slot == models.SlotNone {
		c.unbindPeer(peer.ID(), r.matchID)
		return
	}

	s, err := c.sessions.Get(ctx, r.matchID)
	if err != nil {
		log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("failed to load session on disconnect")
		s = nil
	}
	c.detach(ctx, r, s, peer, slot)
	if s == nil {
		return
	}

	m, err := c.matches.GetMatch(ctx, r.matchID)
	if err != nil {
		log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("failed to load match on disconnect")
		return
	}

	log.Info().
		Str("match_id", r.matchID.String()).
		Str("user_id", peer.UserID()).
		Str("phase", string(s.Phase)).
		Int("connected", s.ConnectedCount()).
		Msg("player disconnected")

	if m.Status.IsTerminal() || s.Phase == models.PhaseFinished {
		return
	}

	switch {
	case s.ConnectedCount() == 0:
		if m.Status == models.MatchStatusWaiting && s.Phase == models.PhaseWaitingPlayers {
			return
		}
		if err := c.cancel(ctx, r, s, m, models.MatchStatusCancelled, ReasonBothDisconnected); err != nil {
			log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("failed to cancel abandoned match")
		}
	case m.Status == models.MatchStatusWaiting:
	case s.Phase == models.PhaseCountdown || s.Phase == models.PhaseWaitingRound:
		c.pause(ctx, r, s, ReasonOpponentDisconnected)
	default:
		// A running round carries on without the absent seat.
		c.armForfeit(r, slot)
	}
}

// forfeitAbsent ends the match against slot if it is still away when the
// grace period runs out, whatever phase the match has reached meanwhile.
func (c *Coordinator) forfeitAbsent(ctx context.Context, r *room, slot models.Slot) {
	m, s, ok := c.reload(ctx, r)
	if !ok || s.Phase == models.PhaseFinished {
		return
	}
	if s.Seat(slot).Connected || !s.Seat(slot.Opponent()).Connected {
		return
	}
	if err := c.forfeit(ctx, r, s, m, slot, ReasonOpponentDisconnected); err != nil {
		c.reportFailure(r, err)
	}
}

// detach removes peer from slot and tells the room. s may be nil.
// Caller must hold r.mu.
func (c *Coordinator) detach(ctx context.Context, r *room, s *models.LiveSession, peer Peer, slot models.Slot) {
	if p := r.peers[slot]; p != nil && p.ID() == peer.ID() {
		r.peers[slot] = nil
	}
	c.unbindPeer(peer.ID(), r.matchID)
	if c.presence != nil {
		c.presence.SetInMatch(peer.UserID(), false)
	}
	if s == nil {
		return
	}

	seat := s.Seat(slot)
	if seat.ConnectionID != peer.ID() {
		return
	}
	seat.Connected = false
	seat.ConnectionID = ""
	if err := c.saveSession(ctx, s); err != nil {
		log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("failed to save session on detach")
	}
	c.broadcastConnections(r, s)
}

func (c *Coordinator) getMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, err := c.matches.GetMatch(ctx, id)
	if errors.Is(err, models.ErrMatchNotFound) {
		return nil, newError(ErrNotFound, "match not found")
	}
	if err != nil {
		return nil, infraError("failed to load match", err)
	}
	return m, nil
}
