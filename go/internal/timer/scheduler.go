package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ClockScheduler is a Scheduler backed by a clockwork.Clock. Fired tokens are
// delivered on the channel returned by Fired.
type ClockScheduler struct {
	clock   clockwork.Clock
	firedCh chan Token

	activeMu sync.Mutex
	active   map[Kind]*scheduled

	done     chan struct{}
	stopOnce sync.Once
}

type scheduled struct {
	token  Token
	timer  clockwork.Timer
	cancel chan struct{}
}

// NewClockScheduler creates a scheduler on clock. buffer sizes the fired
// channel.
func NewClockScheduler(clock clockwork.Clock, buffer int) *ClockScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockScheduler{
		clock:   clock,
		firedCh: make(chan Token, buffer),
		active:  make(map[Kind]*scheduled),
		done:    make(chan struct{}),
	}
}

// Fired returns the channel fired tokens are delivered on.
func (s *ClockScheduler) Fired() <-chan Token {
	return s.firedCh
}

// ScheduleOnce arms a one-shot timer for token, replacing any timer of the
// same kind.
func (s *ClockScheduler) ScheduleOnce(delay time.Duration, token Token) {
	select {
	case <-s.done:
		return
	default:
	}

	entry := &scheduled{
		token:  token,
		timer:  s.clock.NewTimer(delay),
		cancel: make(chan struct{}),
	}
	s.replaceTimer(entry)

	go s.wait(entry)

	log.Trace().
		Str("token", token.String()).
		Dur("delay", delay).
		Msg("scheduled one-shot timer")
}

func (s *ClockScheduler) wait(e *scheduled) {
	select {
	case <-e.timer.Chan():
		// Replaced or cancelled between firing and here.
		if !s.removeTimer(e) {
			return
		}
		select {
		case s.firedCh <- e.token:
		case <-s.done:
		}
	case <-e.cancel:
	case <-s.done:
	}
}

// Cancel stops the timer for token if it is still the active one for its kind.
func (s *ClockScheduler) Cancel(token Token) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()

	existing, ok := s.active[token.Kind]
	if !ok || existing.token != token {
		return
	}
	stopAndDrainTimer(existing.timer)
	close(existing.cancel)
	delete(s.active, token.Kind)

	log.Trace().Str("token", token.String()).Msg("cancelled timer")
}

// Pending returns the active token for kind, if any.
func (s *ClockScheduler) Pending(kind Kind) (Token, bool) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()

	e, ok := s.active[kind]
	if !ok {
		return Token{}, false
	}
	return e.token, true
}

// ActiveCount returns the number of armed timers.
func (s *ClockScheduler) ActiveCount() int {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return len(s.active)
}

// Stop cancels every timer and releases all waiting goroutines. The
// scheduler ignores further ScheduleOnce calls.
func (s *ClockScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)

		s.activeMu.Lock()
		defer s.activeMu.Unlock()
		for kind, e := range s.active {
			stopAndDrainTimer(e.timer)
			delete(s.active, kind)
		}
	})
}

// replaceTimer stores e as the active timer for its kind, stopping the one it
// replaces.
func (s *ClockScheduler) replaceTimer(e *scheduled) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()

	if existing, ok := s.active[e.token.Kind]; ok {
		stopAndDrainTimer(existing.timer)
		close(existing.cancel)
		log.Trace().
			Str("old", existing.token.String()).
			Str("new", e.token.String()).
			Msg("replaced existing timer")
	}
	s.active[e.token.Kind] = e
}

// removeTimer drops e after it fired. It reports false if e is no longer the
// active timer for its kind.
func (s *ClockScheduler) removeTimer(e *scheduled) bool {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()

	if s.active[e.token.Kind] != e {
		return false
	}
	delete(s.active, e.token.Kind)
	return true
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
