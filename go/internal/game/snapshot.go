package game

import "github.com/google/uuid"

// Snapshot is a read-only copy of a machine's state.
type Snapshot struct {
	SessionID     uuid.UUID `json:"session_id"`
	GameID        uuid.UUID `json:"game_id"`
	Phase         Phase     `json:"phase"`
	RoundIndex    int       `json:"round_index"`
	Level         int       `json:"level"`
	TotalRounds   int       `json:"total_rounds"`
	GridSize      int       `json:"grid_size"`
	Countdown     int       `json:"countdown"`
	RoundTimeLeft float64   `json:"round_time_left"`
	RoundDuration float64   `json:"round_duration"`
	Progress      float64   `json:"progress"`
	Cards         []string  `json:"cards"`
	OddIndex      int       `json:"odd_index"`
	Revealed      bool      `json:"revealed"`
	Paused        bool      `json:"paused"`
	GameOver      bool      `json:"game_over"`
	Version       uint64    `json:"version"`
}

// Public returns a copy safe to send to the player: the odd card is hidden
// while the round is still being played.
func (s Snapshot) Public() Snapshot {
	out := s
	out.Cards = append([]string(nil), s.Cards...)
	if s.Phase == PhasePlaying {
		out.OddIndex = -1
	}
	return out
}
