package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/oddcard/go/internal/content"
	"github.com/mcdev12/oddcard/go/internal/game"
	"github.com/mcdev12/oddcard/go/internal/publisher"
	"github.com/rs/zerolog/log"
)

// Config holds configuration for the session store
type Config struct {
	Rules        game.Rules
	IdleTimeout  time.Duration // Sessions without commands for this long are removed
	ReapInterval time.Duration
	EventBuffer  int
}

// DefaultConfig returns default session store configuration
func DefaultConfig() Config {
	return Config{
		Rules:        game.DefaultRules(),
		IdleTimeout:  30 * time.Minute,
		ReapInterval: time.Minute,
		EventBuffer:  64,
	}
}

type entry struct {
	engine *Engine
	cancel context.CancelFunc
}

// Store owns every live session engine.
type Store struct {
	table     *content.Table
	config    Config
	clock     clockwork.Clock
	publisher publisher.EventPublisher
	metrics   publisher.MetricsCollector

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
}

// NewStore creates an empty store. Engines it creates run until they are
// removed or the store is closed.
func NewStore(table *content.Table, cfg Config, clock clockwork.Clock, pub publisher.EventPublisher, metrics publisher.MetricsCollector) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = &publisher.NoOpMetricsCollector{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		table:     table,
		config:    cfg,
		clock:     clock,
		publisher: pub,
		metrics:   metrics,
		ctx:       ctx,
		cancel:    cancel,
		sessions:  make(map[uuid.UUID]*entry),
	}
}

// Rules returns the rules new sessions are created with.
func (s *Store) Rules() game.Rules {
	return s.config.Rules
}

// Create starts a new session with a fresh id.
func (s *Store) Create() (*Engine, error) {
	return s.GetOrCreate(uuid.New())
}

// GetOrCreate returns the session with id, creating it if needed.
func (s *Store) GetOrCreate(id uuid.UUID) (*Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		return e.engine, nil
	}

	engine, err := NewEngine(id, EngineConfig{
		Table:       s.table,
		Rules:       s.config.Rules,
		Clock:       s.clock,
		Publisher:   s.publisher,
		Metrics:     s.metrics,
		EventBuffer: s.config.EventBuffer,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.sessions[id] = &entry{engine: engine, cancel: cancel}
	go func() {
		if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("session_id", id.String()).Msg("session engine failed")
		}
	}()

	s.metrics.SetActiveSessions(len(s.sessions))
	log.Info().Str("session_id", id.String()).Msg("session created")
	return engine, nil
}

// Get returns the session with id.
func (s *Store) Get(id uuid.UUID) (*Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.engine, nil
}

// Remove stops and forgets the session with id.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Store) removeLocked(id uuid.UUID) {
	e, ok := s.sessions[id]
	if !ok {
		return
	}
	e.cancel()
	delete(s.sessions, id)
	s.metrics.SetActiveSessions(len(s.sessions))
	log.Info().Str("session_id", id.String()).Msg("session removed")
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run removes idle sessions until ctx is cancelled, then closes the store.
func (s *Store) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.config.ReapInterval)
	defer ticker.Stop()
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.reapIdle()
		}
	}
}

func (s *Store) reapIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		if s.clock.Since(e.engine.LastActive()) >= s.config.IdleTimeout {
			s.removeLocked(id)
		}
	}
}

// Close stops every session.
func (s *Store) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.sessions {
		s.removeLocked(id)
	}
}
