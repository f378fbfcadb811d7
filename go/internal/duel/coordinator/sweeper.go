package coordinator

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

const sweepBatchSize = 100

// SweepStale times out every open match that has not been updated within the
// stale threshold and has nobody connected. It returns how many matches it
// closed.
func (c *Coordinator) SweepStale(ctx context.Context) (int, error) {
	cutoff := c.clock.Now().Add(-c.rules.StaleThreshold)
	stale, err := c.matches.ListStaleMatches(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale matches: %w", err)
	}

	cleaned := 0
	for _, m := range stale {
		ok, err := c.sweepMatch(ctx, m)
		if err != nil {
			log.Error().Err(err).Str("match_id", m.ID.String()).Msg("failed to time out stale match")
			continue
		}
		if ok {
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Info().Int("cleaned", cleaned).Time("cutoff", cutoff).Msg("swept stale matches")
	}
	return cleaned, nil
}

func (c *Coordinator) sweepMatch(ctx context.Context, stale *models.Match) (bool, error) {
	r := c.lockRoom(stale.ID)
	defer c.unlockRoom(r)

	if r.peerCount() > 0 {
		return false, nil
	}
	s, err := c.sessions.Get(ctx, stale.ID)
	if err != nil {
		s = nil
	}
	if s != nil && s.ConnectedCount() > 0 {
		return false, nil
	}

	m, err := c.matches.GetMatch(ctx, stale.ID)
	if err != nil {
		return false, err
	}
	if m.Status.IsTerminal() || !m.UpdatedAt.Equal(stale.UpdatedAt) {
		return false, nil
	}

	if err := c.cancel(ctx, r, s, m, models.MatchStatusTimeout, ReasonStale); err != nil {
		return false, err
	}
	c.teardown(ctx, r)
	return true, nil
}

// StartSweeper runs SweepStale every sweep interval until ctx is done. The
// returned scheduler must be shut down by the caller.
func (c *Coordinator) StartSweeper(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(c.clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(c.rules.SweepInterval),
		gocron.NewTask(func() {
			if _, err := c.SweepStale(ctx); err != nil {
				log.Error().Err(err).Msg("stale sweep failed")
			}
		}),
		gocron.WithName("stale-match-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule stale sweep: %w", err)
	}

	sched.Start()
	log.Info().Dur("interval", c.rules.SweepInterval).Msg("stale sweep scheduled")
	return sched, nil
}
