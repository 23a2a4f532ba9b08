package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/oddcard/go/internal/content"
	"github.com/mcdev12/oddcard/go/internal/events"
	"github.com/mcdev12/oddcard/go/internal/game"
	"github.com/mcdev12/oddcard/go/internal/publisher"
	"github.com/mcdev12/oddcard/go/internal/timer"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEngineStopped   = errors.New("session engine stopped")
)

type commandKind int

const (
	commandStart commandKind = iota
	commandTap
	commandAcknowledge
)

type command struct {
	kind  commandKind
	index int
	reply chan bool
}

// Engine runs one game machine on a single goroutine. Player commands and
// fired timers are serialised through Run; readers get snapshots.
type Engine struct {
	id        uuid.UUID
	machine   *game.Machine
	sched     *timer.ClockScheduler
	clock     clockwork.Clock
	publisher publisher.EventPublisher
	metrics   publisher.MetricsCollector

	commands chan command
	eventsCh chan events.Event
	done     chan struct{}

	mu          sync.RWMutex
	latest      game.Snapshot
	lastActive  time.Time
	subscribers map[int]chan game.Snapshot
	nextSubID   int
	stopped     bool
}

// EngineConfig holds everything an Engine needs besides its id.
type EngineConfig struct {
	Table       *content.Table
	Rules       game.Rules
	Clock       clockwork.Clock
	Rand        *rand.Rand
	Publisher   publisher.EventPublisher
	Metrics     publisher.MetricsCollector
	EventBuffer int
}

// NewEngine builds an engine. Call Run to start it.
func NewEngine(id uuid.UUID, cfg EngineConfig) (*Engine, error) {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = publisher.NewLogPublisher()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &publisher.NoOpMetricsCollector{}
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}

	sched := timer.NewClockScheduler(cfg.Clock, 16)
	machine, err := game.NewMachine(id, cfg.Table, cfg.Rules, sched, cfg.Clock, cfg.Rand)
	if err != nil {
		sched.Stop()
		return nil, err
	}

	e := &Engine{
		id:          id,
		machine:     machine,
		sched:       sched,
		clock:       cfg.Clock,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		commands:    make(chan command),
		eventsCh:    make(chan events.Event, cfg.EventBuffer),
		done:        make(chan struct{}),
		latest:      machine.Snapshot(),
		lastActive:  cfg.Clock.Now(),
		subscribers: make(map[int]chan game.Snapshot),
	}
	machine.Subscribe(e.onSnapshot)
	return e, nil
}

// ID returns the session id.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Rules returns the rules the session plays by.
func (e *Engine) Rules() game.Rules {
	return e.machine.Rules()
}

// Run processes commands and timers until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		e.machine.Close()
		e.sched.Stop()
		e.closeSubscribers()
		close(e.done)
		log.Debug().Str("session_id", e.id.String()).Msg("session engine stopped")
	}()

	go e.publishLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-e.commands:
			cmd.reply <- e.apply(cmd)
		case tok := <-e.sched.Fired():
			e.machine.Fire(tok)
		}
	}
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) apply(cmd command) bool {
	e.mu.Lock()
	e.lastActive = e.clock.Now()
	e.mu.Unlock()

	switch cmd.kind {
	case commandStart:
		return e.machine.StartGame()
	case commandTap:
		return e.machine.TapCard(cmd.index)
	case commandAcknowledge:
		return e.machine.Acknowledge()
	default:
		return false
	}
}

// Start requests a new game. The result reports whether it was accepted.
func (e *Engine) Start(ctx context.Context) (bool, error) {
	return e.submit(ctx, command{kind: commandStart})
}

// Tap taps card index.
func (e *Engine) Tap(ctx context.Context, index int) (bool, error) {
	return e.submit(ctx, command{kind: commandTap, index: index})
}

// Acknowledge dismisses a WIN_GAME or TIME_UP screen.
func (e *Engine) Acknowledge(ctx context.Context) (bool, error) {
	return e.submit(ctx, command{kind: commandAcknowledge})
}

func (e *Engine) submit(ctx context.Context, cmd command) (bool, error) {
	cmd.reply = make(chan bool, 1)

	select {
	case e.commands <- cmd:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-e.done:
		return false, ErrEngineStopped
	}

	select {
	case ok := <-cmd.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-e.done:
		return false, ErrEngineStopped
	}
}

// Snapshot returns the latest state.
func (e *Engine) Snapshot() game.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

// LastActive returns when the player last sent a command.
func (e *Engine) LastActive() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastActive
}

// Subscribe returns a channel receiving every new snapshot. Slow readers
// miss intermediate snapshots. The channel is closed when the engine stops
// or the returned function is called.
func (e *Engine) Subscribe(buffer int) (<-chan game.Snapshot, func()) {
	ch := make(chan game.Snapshot, buffer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		close(ch)
		return ch, func() {}
	}
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = ch

	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sub, ok := e.subscribers[id]; ok {
			delete(e.subscribers, id)
			close(sub)
		}
	}
}

// onSnapshot runs on the engine goroutine after every machine change.
func (e *Engine) onSnapshot(snap game.Snapshot) {
	e.mu.Lock()
	prev := e.latest
	e.latest = snap
	for _, ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
	e.mu.Unlock()

	if prev.Phase == snap.Phase {
		return
	}
	e.metrics.RecordPhaseTransition(prev.Phase.String(), snap.Phase.String())

	evs, err := events.FromTransition(prev, snap, e.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("session_id", e.id.String()).Msg("failed to build events")
		return
	}
	for _, ev := range evs {
		select {
		case e.eventsCh <- ev:
		default:
			log.Warn().
				Str("session_id", e.id.String()).
				Str("event_type", string(ev.EventType)).
				Msg("event queue full, dropping event")
		}
	}
}

func (e *Engine) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.eventsCh:
			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := e.publisher.Publish(pubCtx, ev); err != nil {
				log.Warn().
					Err(err).
					Str("session_id", e.id.String()).
					Str("event_type", string(ev.EventType)).
					Msg("failed to publish event")
			}
			cancel()
		}
	}
}

func (e *Engine) closeSubscribers() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	for id, ch := range e.subscribers {
		close(ch)
		delete(e.subscribers, id)
	}
}
