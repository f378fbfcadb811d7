package coordinator

import (
	"context"
	"time"

	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

const statsTimeout = 10 * time.Second

// reload fetches the current match and session of a room for a timer
// callback. ok is false when the room has nothing left to drive.
func (c *Coordinator) reload(ctx context.Context, r *room) (*models.Match, *models.LiveSession, bool) {
	m, err := c.matches.GetMatch(ctx, r.matchID)
	if err != nil {
		log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("failed to reload match")
		return nil, nil, false
	}
	if m.Status.IsTerminal() {
		return nil, nil, false
	}
	s, err := c.sessions.Get(ctx, r.matchID)
	if err != nil {
		log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("failed to reload session")
		return nil, nil, false
	}
	return m, s, true
}

// startCountdown moves the match to starting and schedules the round start.
// Caller must hold r.mu.
func (c *Coordinator) startCountdown(ctx context.Context, r *room, m *models.Match, s *models.LiveSession) error {
	if m.Status == models.MatchStatusWaiting {
		next := m.Clone()
		next.Status = models.MatchStatusStarting
		saved, err := c.persist(ctx, next, m.Status)
		if err != nil {
			return err
		}
		m = saved
	}

	now := c.clock.Now()
	s.Phase = models.PhaseCountdown
	s.CountdownStartedAt = &now
	s.RoundStartedAt = nil
	s.ResetRace(m.CurrentRound)
	if err := c.saveSession(ctx, s); err != nil {
		return err
	}

	c.broadcast(r, EventCountdownStart, CountdownStartPayload{
		Round:       m.CurrentRound,
		CountdownMs: c.rules.Countdown.Milliseconds(),
		GoalTime:    m.GoalTimeMs,
		StartTime:   now,
	})

	log.Info().
		Str("match_id", m.ID.String()).
		Int("round", m.CurrentRound).
		Int("goal_ms", m.GoalTimeMs).
		Msg("countdown started")

	c.schedule(r, timerCountdown, c.rules.Countdown, c.startPlaying)
	return nil
}

// startPlaying opens the round for clicks when the countdown expires.
func (c *Coordinator) startPlaying(ctx context.Context, r *room) {
	m, s, ok := c.reload(ctx, r)
	if !ok || s.Phase != models.PhaseCountdown {
		return
	}
	if !s.BothConnected() {
		c.pause(ctx, r, s, ReasonOpponentDisconnected)
		return
	}

	now := c.clock.Now()
	next := m.Clone()
	next.Status = models.MatchStatusActive
	if next.GameStartedAt == nil {
		next.GameStartedAt = &now
	}
	saved, err := c.persist(ctx, next, m.Status)
	if err != nil {
		c.reportFailure(r, err)
		c.pause(ctx, r, s, "")
		return
	}

	s.Phase = models.PhasePlaying
	s.RoundStartedAt = &now
	s.ResetRace(saved.CurrentRound)
	if err := c.saveSession(ctx, s); err != nil {
		c.reportFailure(r, err)
		return
	}

	c.broadcast(r, EventGameStart, GameStartPayload{
		Round:     saved.CurrentRound,
		StartTime: now,
		GoalTime:  saved.GoalTimeMs,
	})

	log.Info().
		Str("match_id", saved.ID.String()).
		Int("round", saved.CurrentRound).
		Msg("round started")

	if m.Status != models.MatchStatusActive {
		c.emit(ctx, OutboxMatchStarted, saved, "")
	}
}

// settle scores the completed round on m and either advances or finishes
// the match. m is the last persisted state. Caller must hold r.mu.
func (c *Coordinator) settle(ctx context.Context, r *room, m *models.Match, s *models.LiveSession) error {
	now := c.clock.Now()
	next := m.Clone()
	result := settleRound(next, now)

	if matchDecided(next) {
		return c.finish(ctx, r, s, next, m.Status, &result)
	}

	advanceRound(next, c.goals.NextGoalMs())
	saved, err := c.persist(ctx, next, m.Status)
	if err != nil {
		return err
	}

	s.Phase = models.PhaseWaitingRound
	s.RoundStartedAt = nil
	s.ResetRace(saved.CurrentRound)
	if err := c.saveSession(ctx, s); err != nil {
		log.Error().Err(err).Str("match_id", saved.ID.String()).Msg("failed to save session after round")
	}

	c.broadcast(r, EventRoundFinished, roundFinishedPayload(saved, result))

	log.Info().
		Str("match_id", saved.ID.String()).
		Int("round", result.RoundNumber).
		Str("round_winner", result.RoundWinner).
		Int("player1_score", saved.Player1.Score).
		Int("player2_score", saved.Player2.Score).
		Msg("round finished")

	c.emit(ctx, OutboxRoundFinished, saved, "")
	c.schedule(r, timerInterRound, c.rules.InterRoundDelay, c.announceNextRound)
	return nil
}

// announceNextRound tells both players which round comes next.
func (c *Coordinator) announceNextRound(ctx context.Context, r *room) {
	m, s, ok := c.reload(ctx, r)
	if !ok || s.Phase != models.PhaseWaitingRound {
		return
	}
	if !s.BothConnected() {
		c.pause(ctx, r, s, ReasonOpponentDisconnected)
		return
	}

	c.broadcast(r, EventNextRoundStarting, NextRoundStartingPayload{
		Round:    m.CurrentRound,
		GoalTime: m.GoalTimeMs,
		Scores:   scoresOf(m),
	})
	c.schedule(r, timerNextRound, c.rules.NextRoundDelay, c.beginNextRound)
}

func (c *Coordinator) beginNextRound(ctx context.Context, r *room) {
	m, s, ok := c.reload(ctx, r)
	if !ok || s.Phase != models.PhaseWaitingRound {
		return
	}
	if !s.BothConnected() {
		c.pause(ctx, r, s, ReasonOpponentDisconnected)
		return
	}
	if err := c.startCountdown(ctx, r, m, s); err != nil {
		c.reportFailure(r, err)
	}
}

// finish settles the match as finished and schedules teardown. lastRound is
// the round that decided it, nil for a forfeit. Caller must hold r.mu.
func (c *Coordinator) finish(ctx context.Context, r *room, s *models.LiveSession, next *models.Match, expected models.MatchStatus, lastRound *models.RoundResult) error {
	now := c.clock.Now()
	next.Status = models.MatchStatusFinished
	next.GameEndedAt = &now
	if !next.Forfeit {
		next.WinnerID = overallWinner(next)
	}

	saved, err := c.persist(ctx, next, expected)
	if err != nil {
		return err
	}

	c.cancelTimer(r)
	c.cancelForfeit(r)
	c.markFinished(ctx, r, s)

	if lastRound != nil {
		c.broadcast(r, EventRoundFinished, roundFinishedPayload(saved, *lastRound))
	}
	if saved.Forfeit {
		c.broadcast(r, EventGameEndedForfeit, GameEndedForfeitPayload{
			MatchID:  saved.ID.String(),
			WinnerID: saved.WinnerID,
			Reason:   saved.CancelReason,
		})
	} else {
		c.broadcast(r, EventGameFinished, gameFinishedPayload(saved))
	}

	log.Info().
		Str("match_id", saved.ID.String()).
		Str("winner_id", saved.WinnerID).
		Bool("forfeit", saved.Forfeit).
		Int("player1_score", saved.Player1.Score).
		Int("player2_score", saved.Player2.Score).
		Msg("match finished")

	c.applyStats(saved.Clone())
	c.setInMatch(saved, false)
	if saved.Forfeit {
		c.emit(ctx, OutboxMatchForfeited, saved, saved.CancelReason)
	} else {
		c.emit(ctx, OutboxMatchFinished, saved, "")
	}
	c.schedule(r, timerCleanup, c.rules.FinishGrace, c.teardown)
	return nil
}

// forfeit ends the match in favour of the player opposite loser.
// Caller must hold r.mu.
func (c *Coordinator) forfeit(ctx context.Context, r *room, s *models.LiveSession, m *models.Match, loser models.Slot, reason string) error {
	next := m.Clone()
	next.Forfeit = true
	next.WinnerID = m.PlayerID(loser.Opponent())
	next.CancelReason = reason
	return c.finish(ctx, r, s, next, m.Status, nil)
}

// cancel ends the match without a winner. s may be nil when the match has no
// live session. Caller must hold r.mu.
func (c *Coordinator) cancel(ctx context.Context, r *room, s *models.LiveSession, m *models.Match, status models.MatchStatus, reason string) error {
	now := c.clock.Now()
	next := m.Clone()
	next.Status = status
	next.CancelReason = reason
	next.GameEndedAt = &now

	saved, err := c.persist(ctx, next, m.Status)
	if err != nil {
		return err
	}

	c.cancelTimer(r)
	c.cancelForfeit(r)
	c.markFinished(ctx, r, s)
	c.broadcast(r, EventGameCancelled, GameCancelledPayload{MatchID: saved.ID.String(), Reason: reason})

	log.Info().
		Str("match_id", saved.ID.String()).
		Str("status", string(saved.Status)).
		Str("reason", reason).
		Msg("match cancelled")

	c.setInMatch(saved, false)
	c.emit(ctx, OutboxMatchCancelled, saved, reason)
	c.schedule(r, timerCleanup, c.rules.FinishGrace, c.teardown)
	return nil
}

// pause stops the round clock until both players are seated again. An
// absent seat forfeits if it does not return within the grace period.
// Caller must hold r.mu.
func (c *Coordinator) pause(ctx context.Context, r *room, s *models.LiveSession, reason string) {
	c.cancelTimer(r)
	s.Phase = models.PhasePaused
	s.CountdownStartedAt = nil
	s.RoundStartedAt = nil
	if err := c.saveSession(ctx, s); err != nil {
		log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("failed to save paused session")
	}
	if reason != "" {
		c.broadcast(r, EventGamePaused, GamePausedPayload{MatchID: r.matchID.String(), Reason: reason})
	}
	log.Info().Str("match_id", r.matchID.String()).Str("reason", reason).Msg("match paused")

	for _, slot := range []models.Slot{models.SlotPlayer1, models.SlotPlayer2} {
		if !s.Seat(slot).Connected {
			c.armForfeit(r, slot)
		}
	}
}

func (c *Coordinator) markFinished(ctx context.Context, r *room, s *models.LiveSession) {
	if s == nil {
		return
	}
	s.Phase = models.PhaseFinished
	s.CountdownStartedAt = nil
	s.RoundStartedAt = nil
	if err := c.saveSession(ctx, s); err != nil {
		log.Error().Err(err).Str("match_id", r.matchID.String()).Msg("failed to save finished session")
	}
}

// applyStats records aggregate results in the background, off the room
// lock. Failures never block the finish.
func (c *Coordinator) applyStats(m *models.Match) {
	if c.stats == nil {
		return
	}
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()
		if err := c.stats.ApplyMatchResults(ctx, m); err != nil {
			log.Error().Err(err).Str("match_id", m.ID.String()).Msg("failed to apply match stats")
		}
	}()
}
