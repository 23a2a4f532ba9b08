package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/oddcard/go/internal/content"
	"github.com/mcdev12/oddcard/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// Observer receives a snapshot after every state change.
type Observer func(Snapshot)

// Machine is the round state machine of one session. It is not safe for
// concurrent use: a single goroutine must own it and feed it both player
// input and fired timer tokens.
type Machine struct {
	sessionID uuid.UUID
	table     *content.Table
	rules     Rules
	sched     timer.Scheduler
	clock     clockwork.Clock
	rng       *rand.Rand

	gameID     uuid.UUID
	phase      Phase
	roundIndex int
	gridSize   int
	cards      []string
	oddIndex   int
	used       map[int]struct{}
	countdown  int
	timeLeft   time.Duration
	roundStart time.Time
	revealed   bool
	paused     bool
	gameOver   bool
	version    uint64

	seq     uint64
	pending map[timer.Kind]timer.Token

	observers map[int]Observer
	nextObsID int
}

// NewMachine creates a machine in the COVER phase. A nil clock uses the real
// clock and a nil rng is seeded from the current time.
func NewMachine(
	sessionID uuid.UUID,
	table *content.Table,
	rules Rules,
	sched timer.Scheduler,
	clock clockwork.Clock,
	rng *rand.Rand,
) (*Machine, error) {
	if table == nil || table.Len() == 0 {
		return nil, content.ErrEmptyTable
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, errors.New("scheduler is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Machine{
		sessionID: sessionID,
		table:     table,
		rules:     rules,
		sched:     sched,
		clock:     clock,
		rng:       rng,
		phase:     PhaseCover,
		oddIndex:  -1,
		used:      make(map[int]struct{}),
		pending:   make(map[timer.Kind]timer.Token),
		observers: make(map[int]Observer),
	}, nil
}

// Phase returns the active phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Rules returns the rules the machine was built with.
func (m *Machine) Rules() Rules {
	return m.rules
}

// Subscribe registers o and returns a function that removes it.
func (m *Machine) Subscribe(o Observer) func() {
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = o
	return func() { delete(m.observers, id) }
}

// StartGame begins a new game. It is only accepted on the cover screen.
func (m *Machine) StartGame() bool {
	if m.phase != PhaseCover {
		return false
	}

	m.gameID = uuid.New()
	m.roundIndex = 0
	clear(m.used)
	m.gameOver = false
	m.beginCountdown()
	m.notify()
	return true
}

// TapCard handles a tap on card index. Taps outside an active, unpaused
// round or outside the grid are ignored.
func (m *Machine) TapCard(index int) bool {
	if m.phase != PhasePlaying || m.gameOver || m.paused {
		return false
	}
	if index < 0 || index >= len(m.cards) {
		return false
	}

	m.sampleTimeLeft()
	m.endRound()

	switch {
	case index == m.oddIndex && m.roundIndex == m.lastRound():
		m.setPhase(PhaseWinGame)
	case index == m.oddIndex:
		m.setPhase(PhaseWinRound)
		m.paused = true
		m.arm(timer.KindWinRound, m.rules.WinRoundDelay)
	default:
		m.setPhase(PhaseFail)
		m.paused = true
		m.arm(timer.KindFail, m.rules.FailDelay)
	}

	m.notify()
	return true
}

// Acknowledge dismisses the WIN_GAME or TIME_UP screen.
func (m *Machine) Acknowledge() bool {
	if !m.phase.AwaitsAcknowledge() {
		return false
	}
	m.returnToCover()
	m.notify()
	return true
}

// Fire delivers a fired timer token. Tokens that are no longer the live one
// for their kind are dropped and reported as false.
func (m *Machine) Fire(tok timer.Token) bool {
	live, ok := m.pending[tok.Kind]
	if !ok || live != tok {
		log.Debug().
			Str("session_id", m.sessionID.String()).
			Str("token", tok.String()).
			Msg("dropping stale timer token")
		return false
	}
	delete(m.pending, tok.Kind)

	switch tok.Kind {
	case timer.KindCountdown:
		if m.phase != PhaseCountdown {
			return false
		}
		m.countdown--
		if m.countdown <= 0 {
			m.countdown = 0
			m.startRound()
		} else {
			m.arm(timer.KindCountdown, m.rules.CountdownStep)
		}

	case timer.KindDeadline:
		if m.phase != PhasePlaying || m.gameOver {
			return false
		}
		m.sampleTimeLeft()
		if m.timeLeft <= 0 {
			m.timeUp()
		} else {
			m.arm(timer.KindDeadline, m.rules.SampleInterval)
		}

	case timer.KindReveal:
		if m.phase != PhasePlaying {
			return false
		}
		m.revealed = true

	case timer.KindWinRound:
		if m.phase != PhaseWinRound {
			return false
		}
		m.roundIndex++
		m.beginCountdown()

	case timer.KindFail:
		if m.phase != PhaseFail {
			return false
		}
		m.returnToCover()
		m.paused = true

	default:
		return false
	}

	m.notify()
	return true
}

// Close cancels every outstanding timer.
func (m *Machine) Close() {
	for kind := range m.pending {
		m.disarm(kind)
	}
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	progress := 0.0
	if m.rules.RoundDuration > 0 {
		progress = float64(m.timeLeft) / float64(m.rules.RoundDuration)
	}

	return Snapshot{
		SessionID:     m.sessionID,
		GameID:        m.gameID,
		Phase:         m.phase,
		RoundIndex:    m.roundIndex,
		Level:         m.roundIndex + 1,
		TotalRounds:   m.rules.TotalRounds(),
		GridSize:      m.gridSize,
		Countdown:     m.countdown,
		RoundTimeLeft: m.timeLeft.Seconds(),
		RoundDuration: m.rules.RoundDuration.Seconds(),
		Progress:      progress,
		Cards:         append([]string(nil), m.cards...),
		OddIndex:      m.oddIndex,
		Revealed:      m.revealed,
		Paused:        m.paused,
		GameOver:      m.gameOver,
		Version:       m.version,
	}
}

func (m *Machine) lastRound() int {
	return m.rules.TotalRounds() - 1
}

func (m *Machine) beginCountdown() {
	m.setPhase(PhaseCountdown)
	m.countdown = m.rules.CountdownFrom
	m.timeLeft = m.rules.RoundDuration
	m.cards = nil
	m.oddIndex = -1
	m.revealed = false
	m.arm(timer.KindCountdown, m.rules.CountdownStep)
}

func (m *Machine) startRound() {
	m.setPhase(PhasePlaying)
	m.gridSize = m.rules.GridSizes[m.roundIndex]
	m.generateRound(m.gridSize)
	m.paused = false
	m.revealed = false
	m.timeLeft = m.rules.RoundDuration
	m.roundStart = m.clock.Now()
	m.arm(timer.KindDeadline, m.rules.SampleInterval)
	m.arm(timer.KindReveal, m.rules.RevealDelay)
}

// endRound stops the round timers when PLAYING is left for any reason.
func (m *Machine) endRound() {
	m.disarm(timer.KindDeadline)
	m.disarm(timer.KindReveal)
	m.revealed = true
}

func (m *Machine) timeUp() {
	m.endRound()
	m.timeLeft = 0
	m.setPhase(PhaseTimeUp)
	m.paused = true
	m.gameOver = true
}

func (m *Machine) returnToCover() {
	m.setPhase(PhaseCover)
	m.roundIndex = 0
	m.gameOver = false
	m.countdown = 0
}

// sampleTimeLeft recomputes the remaining time from the elapsed wall-clock
// time. The value never increases within a round.
func (m *Machine) sampleTimeLeft() {
	left := m.rules.RoundDuration - m.clock.Since(m.roundStart)
	if left < 0 {
		left = 0
	}
	if left < m.timeLeft {
		m.timeLeft = left
	}
}

func (m *Machine) arm(kind timer.Kind, delay time.Duration) {
	m.disarm(kind)
	m.seq++
	tok := timer.Token{Kind: kind, Seq: m.seq}
	m.pending[kind] = tok
	m.sched.ScheduleOnce(delay, tok)
}

func (m *Machine) disarm(kind timer.Kind) {
	if tok, ok := m.pending[kind]; ok {
		m.sched.Cancel(tok)
		delete(m.pending, kind)
	}
}

func (m *Machine) setPhase(to Phase) {
	from := m.phase
	if !from.CanTransitionTo(to) {
		// Only reachable through a bug in this package.
		panic(fmt.Sprintf("game: illegal transition %s -> %s", from, to))
	}
	m.phase = to

	log.Debug().
		Str("session_id", m.sessionID.String()).
		Str("from", from.String()).
		Str("to", to.String()).
		Int("round_index", m.roundIndex).
		Msg("phase transition")
}

func (m *Machine) notify() {
	m.version++
	snap := m.Snapshot()
	for _, o := range m.observers {
		o(snap)
	}
}
