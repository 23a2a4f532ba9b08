package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/oddcard/go/internal/game"
)

// GameMessage is the envelope for every server to client message
type GameMessage struct {
	ID        string          `json:"id"`         // Message UUID
	SessionID string          `json:"session_id"` // Session UUID
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// MessageType represents the type of server message
type MessageType string

const (
	MessageTypeSnapshot      MessageType = "Snapshot"
	MessageTypeCommandResult MessageType = "CommandResult"
	MessageTypeError         MessageType = "Error"
)

// ClientMessage is a command sent by the player
type ClientMessage struct {
	Type  string `json:"type"`            // "start", "tap" or "ack"
	Index *int   `json:"index,omitempty"` // Card index for "tap"
}

const (
	ClientStart = "start"
	ClientTap   = "tap"
	ClientAck   = "ack"
)

// CommandResultPayload reports whether a command changed the game
type CommandResultPayload struct {
	Command  string `json:"command"`
	Accepted bool   `json:"accepted"`
}

// ErrorPayload describes a rejected client message
type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(sessionID uuid.UUID, t MessageType, data any) (*GameMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &GameMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID.String(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

func snapshotMessage(snap game.Snapshot) (*GameMessage, error) {
	return newMessage(snap.SessionID, MessageTypeSnapshot, snap.Public())
}
