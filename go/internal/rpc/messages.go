package rpc

import "github.com/mcdev12/oddcard/go/internal/game"

// CreateSessionRequest opens a session. An empty SessionID asks the server to
// pick one.
type CreateSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type CreateSessionResponse struct {
	Snapshot game.Snapshot `json:"snapshot"`
}

type GetSnapshotRequest struct {
	SessionID string `json:"session_id"`
}

type GetSnapshotResponse struct {
	Snapshot game.Snapshot `json:"snapshot"`
}

type StartGameRequest struct {
	SessionID string `json:"session_id"`
}

type StartGameResponse struct {
	Accepted bool          `json:"accepted"`
	Snapshot game.Snapshot `json:"snapshot"`
}

type TapCardRequest struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

type TapCardResponse struct {
	Accepted bool          `json:"accepted"`
	Snapshot game.Snapshot `json:"snapshot"`
}

type AcknowledgeRequest struct {
	SessionID string `json:"session_id"`
}

type AcknowledgeResponse struct {
	Accepted bool          `json:"accepted"`
	Snapshot game.Snapshot `json:"snapshot"`
}
