package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/oddcard/go/internal/game"
)

// EventType names a game domain event.
type EventType string

const (
	EventTypeGameStarted      EventType = "GameStarted"
	EventTypeCountdownStarted EventType = "CountdownStarted"
	EventTypeRoundStarted     EventType = "RoundStarted"
	EventTypeRoundWon         EventType = "RoundWon"
	EventTypeGameWon          EventType = "GameWon"
	EventTypeRoundFailed      EventType = "RoundFailed"
	EventTypeTimeUp           EventType = "TimeUp"
	EventTypeReturnedToCover  EventType = "ReturnedToCover"
)

// Event is a domain event ready to be published.
type Event struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	EventType EventType
	Payload   []byte
	CreatedAt time.Time
}

// New marshals payload into an Event.
func New(sessionID uuid.UUID, eventType EventType, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		SessionID: sessionID,
		EventType: eventType,
		Payload:   data,
		CreatedAt: at,
	}, nil
}

// FromTransition returns the events implied by moving from prev to next.
// Snapshots in the same phase produce no events.
func FromTransition(prev, next game.Snapshot, at time.Time) ([]Event, error) {
	if prev.Phase == next.Phase {
		return nil, nil
	}

	gameID := next.GameID.String()
	var out []Event
	add := func(t EventType, payload any) error {
		ev, err := New(next.SessionID, t, payload, at)
		if err != nil {
			return err
		}
		out = append(out, ev)
		return nil
	}

	var err error
	switch next.Phase {
	case game.PhaseCountdown:
		if prev.Phase == game.PhaseCover {
			err = add(EventTypeGameStarted, GameStartedPayload{
				GameID:      gameID,
				TotalRounds: next.TotalRounds,
				StartedAt:   at,
			})
			if err != nil {
				return nil, err
			}
		}
		err = add(EventTypeCountdownStarted, CountdownStartedPayload{
			GameID:     gameID,
			RoundIndex: next.RoundIndex,
			From:       next.Countdown,
		})

	case game.PhasePlaying:
		err = add(EventTypeRoundStarted, RoundStartedPayload{
			GameID:           gameID,
			RoundIndex:       next.RoundIndex,
			Level:            next.Level,
			GridSize:         next.GridSize,
			CardCount:        len(next.Cards),
			RoundDurationSec: next.RoundDuration,
		})

	case game.PhaseWinRound:
		err = add(EventTypeRoundWon, RoundWonPayload{
			GameID:      gameID,
			RoundIndex:  next.RoundIndex,
			TimeLeftSec: next.RoundTimeLeft,
		})

	case game.PhaseWinGame:
		err = add(EventTypeGameWon, GameWonPayload{
			GameID:      gameID,
			TotalRounds: next.TotalRounds,
			TimeLeftSec: next.RoundTimeLeft,
		})

	case game.PhaseFail:
		err = add(EventTypeRoundFailed, RoundFailedPayload{
			GameID:      gameID,
			RoundIndex:  next.RoundIndex,
			TimeLeftSec: next.RoundTimeLeft,
		})

	case game.PhaseTimeUp:
		err = add(EventTypeTimeUp, TimeUpPayload{
			GameID:     gameID,
			RoundIndex: next.RoundIndex,
		})

	case game.PhaseCover:
		err = add(EventTypeReturnedToCover, ReturnedToCoverPayload{
			GameID: gameID,
			From:   prev.Phase.String(),
		})
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParsePayload decodes an event payload into its typed struct.
func ParsePayload(ev Event) (interface{}, error) {
	var target interface{}
	switch ev.EventType {
	case EventTypeGameStarted:
		target = &GameStartedPayload{}
	case EventTypeCountdownStarted:
		target = &CountdownStartedPayload{}
	case EventTypeRoundStarted:
		target = &RoundStartedPayload{}
	case EventTypeRoundWon:
		target = &RoundWonPayload{}
	case EventTypeGameWon:
		target = &GameWonPayload{}
	case EventTypeRoundFailed:
		target = &RoundFailedPayload{}
	case EventTypeTimeUp:
		target = &TimeUpPayload{}
	case EventTypeReturnedToCover:
		target = &ReturnedToCoverPayload{}
	default:
		return nil, nil
	}
	if err := json.Unmarshal(ev.Payload, target); err != nil {
		return nil, err
	}
	return target, nil
}
