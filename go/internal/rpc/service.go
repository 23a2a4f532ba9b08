package rpc

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/oddcard/go/internal/session"
	"github.com/rs/zerolog/log"
)

// Sessions defines what the RPC layer needs from the session store
type Sessions interface {
	Create() (*session.Engine, error)
	Get(id uuid.UUID) (*session.Engine, error)
	GetOrCreate(id uuid.UUID) (*session.Engine, error)
}

// Service implements the GameService RPC interface
type Service struct {
	sessions Sessions
}

// NewService creates a new game RPC service
func NewService(sessions Sessions) *Service {
	return &Service{
		sessions: sessions,
	}
}

// Verify that Service implements the GameServiceHandler interface
var _ GameServiceHandler = (*Service)(nil)

// CreateSession opens a session, reusing it if the id is already live
func (s *Service) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	var (
		engine *session.Engine
		err    error
	)

	if req.Msg.SessionID == "" {
		engine, err = s.sessions.Create()
	} else {
		id, parseErr := uuid.Parse(req.Msg.SessionID)
		if parseErr != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid session id: %w", parseErr))
		}
		engine, err = s.sessions.GetOrCreate(id)
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", req.Msg.SessionID).Msg("failed to create session")
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&CreateSessionResponse{
		Snapshot: engine.Snapshot().Public(),
	}), nil
}

// GetSnapshot returns the current state of a session
func (s *Service) GetSnapshot(ctx context.Context, req *connect.Request[GetSnapshotRequest]) (*connect.Response[GetSnapshotResponse], error) {
	engine, err := s.lookup(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&GetSnapshotResponse{
		Snapshot: engine.Snapshot().Public(),
	}), nil
}

// StartGame starts a game from the cover screen
func (s *Service) StartGame(ctx context.Context, req *connect.Request[StartGameRequest]) (*connect.Response[StartGameResponse], error) {
	engine, err := s.lookup(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	accepted, err := engine.Start(ctx)
	if err != nil {
		return nil, commandError(err)
	}

	return connect.NewResponse(&StartGameResponse{
		Accepted: accepted,
		Snapshot: engine.Snapshot().Public(),
	}), nil
}

// TapCard taps one card of the current round
func (s *Service) TapCard(ctx context.Context, req *connect.Request[TapCardRequest]) (*connect.Response[TapCardResponse], error) {
	engine, err := s.lookup(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	accepted, err := engine.Tap(ctx, req.Msg.Index)
	if err != nil {
		return nil, commandError(err)
	}

	return connect.NewResponse(&TapCardResponse{
		Accepted: accepted,
		Snapshot: engine.Snapshot().Public(),
	}), nil
}

// Acknowledge dismisses the win or time-up screen
func (s *Service) Acknowledge(ctx context.Context, req *connect.Request[AcknowledgeRequest]) (*connect.Response[AcknowledgeResponse], error) {
	engine, err := s.lookup(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	accepted, err := engine.Acknowledge(ctx)
	if err != nil {
		return nil, commandError(err)
	}

	return connect.NewResponse(&AcknowledgeResponse{
		Accepted: accepted,
		Snapshot: engine.Snapshot().Public(),
	}), nil
}

func (s *Service) lookup(rawID string) (*session.Engine, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid session id: %w", err))
	}

	engine, err := s.sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return engine, nil
}

func commandError(err error) error {
	switch {
	case errors.Is(err, session.ErrEngineStopped):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
