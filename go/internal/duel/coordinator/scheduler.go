package coordinator

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/rs/zerolog/log"
)

type timerKind string

const (
	timerCountdown  timerKind = "countdown"
	timerInterRound timerKind = "inter_round"
	timerNextRound  timerKind = "next_round"
	timerForfeit    timerKind = "forfeit_grace"
	timerCleanup    timerKind = "cleanup"
)

// pendingTimer is a deferred action held by a room. A room holds at most one
// phase timer and, separately, one forfeit deadline.
type pendingTimer struct {
	kind  timerKind
	seq   uint64
	timer clockwork.Timer
	stop  chan struct{}
}

// schedule replaces the room's phase timer with one that runs fn after d.
// fn runs with the room locked and is skipped if the timer was replaced or
// cancelled in the meantime, or the room was torn down. A non-positive d runs
// fn immediately. Caller must hold r.mu.
func (c *Coordinator) schedule(r *room, kind timerKind, d time.Duration, fn func(ctx context.Context, r *room)) {
	c.arm(r, &r.pending, kind, d, fn)
}

// cancelTimer stops the room's phase timer, if any. Caller must hold r.mu.
func (c *Coordinator) cancelTimer(r *room) {
	c.disarm(r, &r.pending)
}

// armForfeit starts the grace deadline for an absent seat. A deadline that is
// already running is kept. Caller must hold r.mu.
func (c *Coordinator) armForfeit(r *room, slot models.Slot) {
	if r.forfeit != nil {
		return
	}
	r.forfeitSlot = slot
	c.arm(r, &r.forfeit, timerForfeit, c.rules.ForfeitGrace, func(ctx context.Context, r *room) {
		c.forfeitAbsent(ctx, r, slot)
	})
}

// cancelForfeit stops the grace deadline. Caller must hold r.mu.
func (c *Coordinator) cancelForfeit(r *room) {
	c.disarm(r, &r.forfeit)
	r.forfeitSlot = models.SlotNone
}

func (c *Coordinator) arm(r *room, held **pendingTimer, kind timerKind, d time.Duration, fn func(ctx context.Context, r *room)) {
	c.disarm(r, held)

	if d <= 0 {
		fn(c.ctx, r)
		return
	}

	r.timerSeq++
	p := &pendingTimer{
		kind:  kind,
		seq:   r.timerSeq,
		timer: c.clock.NewTimer(d),
		stop:  make(chan struct{}),
	}
	*held = p

	go func() {
		select {
		case <-p.timer.Chan():
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.closed || *held != p {
				log.Debug().
					Str("match_id", r.matchID.String()).
					Str("timer", string(p.kind)).
					Msg("timer fired after being superseded")
				return
			}
			*held = nil
			fn(c.ctx, r)
		case <-p.stop:
		case <-c.ctx.Done():
			stopAndDrainTimer(p.timer)
		}
	}()

	log.Debug().
		Str("match_id", r.matchID.String()).
		Str("timer", string(kind)).
		Uint64("seq", p.seq).
		Dur("duration", d).
		Msg("scheduled timer")
}

func (c *Coordinator) disarm(r *room, held **pendingTimer) {
	p := *held
	if p == nil {
		return
	}
	*held = nil
	stopAndDrainTimer(p.timer)
	close(p.stop)

	log.Debug().
		Str("match_id", r.matchID.String()).
		Str("timer", string(p.kind)).
		Uint64("seq", p.seq).
		Msg("cancelled timer")
}

func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
