package game

import (
	"time"

	"github.com/rs/zerolog/log"
)

// writingSlack is how long after the advertised end time the writing
// deadline actually fires.
const writingSlack = time.Second

// Timer is a cancellable single-shot timer. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler arms single-shot callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// deadline is the one armed phase timer of a room. token changes on every
// arm and cancel so a callback that already fired can tell it is stale.
type deadline struct {
	token uint64
	phase Phase
	timer Timer
}

// armDeadline replaces whatever deadline the room had with one for phase.
// Callers hold r.mu.
func (e *Engine) armDeadline(r *Room, phase Phase, d time.Duration) {
	e.cancelDeadline(r)
	r.deadline.token++
	r.deadline.phase = phase
	token := r.deadline.token
	r.deadline.timer = e.sched.AfterFunc(d, func() { e.onDeadline(r, phase, token) })
}

// cancelDeadline stops the armed timer and invalidates its token.
// Callers hold r.mu.
func (e *Engine) cancelDeadline(r *Room) {
	if r.deadline.timer != nil {
		r.deadline.timer.Stop()
		r.deadline.timer = nil
	}
	r.deadline.token++
	r.deadline.phase = ""
}

func (e *Engine) onDeadline(r *Room, phase Phase, token uint64) {
	_ = e.withRoom(r, func(out *outbox) error {
		if r.deadline.token != token || r.phase != phase {
			log.Debug().Str("room", r.ID).Str("phase", string(phase)).Msg("stale deadline ignored")
			return nil
		}
		log.Info().Str("room", r.ID).Str("phase", string(phase)).Int("round", r.round).Msg("deadline reached")
		e.advance(r, out)
		return nil
	})
}
