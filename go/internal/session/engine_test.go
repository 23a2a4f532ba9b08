package session

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/oddcard/go/internal/content"
	"github.com/mcdev12/oddcard/go/internal/events"
	"github.com/mcdev12/oddcard/go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.EventType
	}
	return out
}

func testTable(t *testing.T) *content.Table {
	t.Helper()
	table, err := content.NewTable([]content.Entry{
		{Normal: "AB", Target: "AC"},
		{Normal: "DE", Target: "DF"},
	})
	require.NoError(t, err)
	return table
}

type engineHarness struct {
	t      *testing.T
	ctx    context.Context
	engine *Engine
	clock  *clockwork.FakeClock
	pub    *recordingPublisher
	snaps  <-chan game.Snapshot
}

func newEngineHarness(t *testing.T) *engineHarness {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	clock := clockwork.NewFakeClock()
	pub := &recordingPublisher{}
	engine, err := NewEngine(uuid.New(), EngineConfig{
		Table:     testTable(t),
		Rules:     game.DefaultRules(),
		Clock:     clock,
		Rand:      rand.New(rand.NewSource(7)),
		Publisher: pub,
	})
	require.NoError(t, err)

	runCtx, stop := context.WithCancel(ctx)
	t.Cleanup(stop)
	go func() { _ = engine.Run(runCtx) }()

	snaps, _ := engine.Subscribe(64)
	return &engineHarness{t: t, ctx: ctx, engine: engine, clock: clock, pub: pub, snaps: snaps}
}

func (h *engineHarness) waitFor(pred func(game.Snapshot) bool) game.Snapshot {
	h.t.Helper()
	for {
		select {
		case snap, ok := <-h.snaps:
			require.True(h.t, ok, "subscription closed")
			if pred(snap) {
				return snap
			}
		case <-time.After(2 * time.Second):
			h.t.Fatal("timed out waiting for snapshot")
		}
	}
}

func (h *engineHarness) waitForPhase(p game.Phase) game.Snapshot {
	h.t.Helper()
	return h.waitFor(func(s game.Snapshot) bool { return s.Phase == p })
}

// tick waits until n timers are armed, then advances the fake clock.
func (h *engineHarness) tick(n int, d time.Duration) {
	h.t.Helper()
	require.NoError(h.t, h.clock.BlockUntilContext(h.ctx, n))
	h.clock.Advance(d)
}

func (h *engineHarness) playUntilRound() game.Snapshot {
	h.t.Helper()
	ok, err := h.engine.Start(h.ctx)
	require.NoError(h.t, err)
	require.True(h.t, ok)
	h.waitForPhase(game.PhaseCountdown)

	for want := 2; want >= 1; want-- {
		h.tick(1, time.Second)
		h.waitFor(func(s game.Snapshot) bool { return s.Countdown == want })
	}
	h.tick(1, time.Second)
	return h.waitForPhase(game.PhasePlaying)
}

func TestEngine_WinRoundFlow(t *testing.T) {
	h := newEngineHarness(t)
	snap := h.playUntilRound()
	assert.Len(t, snap.Cards, 16)

	// The engine keeps the full snapshot; only transports hide the odd card.
	latest := h.engine.Snapshot()
	require.Equal(t, game.PhasePlaying, latest.Phase)

	ok, err := h.engine.Tap(h.ctx, latest.OddIndex)
	require.NoError(t, err)
	require.True(t, ok)
	h.waitForPhase(game.PhaseWinRound)

	ok, err = h.engine.Tap(h.ctx, latest.OddIndex)
	require.NoError(t, err)
	assert.False(t, ok)

	h.tick(1, time.Second)
	snap = h.waitForPhase(game.PhaseCountdown)
	assert.Equal(t, 1, snap.RoundIndex)

	require.Eventually(t, func() bool {
		return len(h.pub.types()) >= 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []events.EventType{
		events.EventTypeGameStarted,
		events.EventTypeCountdownStarted,
		events.EventTypeRoundStarted,
		events.EventTypeRoundWon,
		events.EventTypeCountdownStarted,
	}, h.pub.types()[:5])
}

func TestEngine_FailReturnsToCover(t *testing.T) {
	h := newEngineHarness(t)
	h.playUntilRound()

	latest := h.engine.Snapshot()
	wrong := (latest.OddIndex + 1) % len(latest.Cards)
	ok, err := h.engine.Tap(h.ctx, wrong)
	require.NoError(t, err)
	require.True(t, ok)
	h.waitForPhase(game.PhaseFail)

	h.tick(1, time.Second)
	snap := h.waitForPhase(game.PhaseCover)
	assert.Equal(t, 0, snap.RoundIndex)
	assert.True(t, snap.Paused)
	assert.False(t, snap.GameOver)
}

func TestEngine_RejectsCommandsOutOfPhase(t *testing.T) {
	h := newEngineHarness(t)

	ok, err := h.engine.Tap(h.ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.engine.Acknowledge(h.ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, game.PhaseCover, h.engine.Snapshot().Phase)
}

func TestEngine_StopsWithContext(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine, err := NewEngine(uuid.New(), EngineConfig{
		Table: testTable(t),
		Rules: game.DefaultRules(),
		Clock: clock,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	snaps, _ := engine.Subscribe(1)
	go func() { _ = engine.Run(ctx) }()

	ok, err := engine.Start(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	cancel()
	select {
	case <-engine.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}

	_, err = engine.Start(context.Background())
	assert.ErrorIs(t, err, ErrEngineStopped)

	// Drain whatever was buffered; the channel must end closed.
	for range snaps {
	}

	late, unsubscribe := engine.Subscribe(1)
	_, open := <-late
	assert.False(t, open)
	unsubscribe()
}
