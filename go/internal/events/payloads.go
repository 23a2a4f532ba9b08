package events

import (
	"time"
)

// Event payload types shared between the session engine, the publisher and
// the gateway

// GameStartedPayload is the payload for a GameStarted event
type GameStartedPayload struct {
	GameID      string    `json:"game_id"`
	TotalRounds int       `json:"total_rounds"`
	StartedAt   time.Time `json:"started_at"`
}

// CountdownStartedPayload is the payload for a CountdownStarted event
type CountdownStartedPayload struct {
	GameID     string `json:"game_id"`
	RoundIndex int    `json:"round_index"`
	From       int    `json:"from"`
}

// RoundStartedPayload is the payload for a RoundStarted event
type RoundStartedPayload struct {
	GameID           string  `json:"game_id"`
	RoundIndex       int     `json:"round_index"`
	Level            int     `json:"level"`
	GridSize         int     `json:"grid_size"`
	CardCount        int     `json:"card_count"`
	RoundDurationSec float64 `json:"round_duration_sec"`
}

// RoundWonPayload is the payload for a RoundWon event
type RoundWonPayload struct {
	GameID      string  `json:"game_id"`
	RoundIndex  int     `json:"round_index"`
	TimeLeftSec float64 `json:"time_left_sec"`
}

// GameWonPayload is the payload for a GameWon event
type GameWonPayload struct {
	GameID      string  `json:"game_id"`
	TotalRounds int     `json:"total_rounds"`
	TimeLeftSec float64 `json:"time_left_sec"`
}

// RoundFailedPayload is the payload for a RoundFailed event
type RoundFailedPayload struct {
	GameID      string  `json:"game_id"`
	RoundIndex  int     `json:"round_index"`
	TimeLeftSec float64 `json:"time_left_sec"`
}

// TimeUpPayload is the payload for a TimeUp event
type TimeUpPayload struct {
	GameID     string `json:"game_id"`
	RoundIndex int    `json:"round_index"`
}

// ReturnedToCoverPayload is the payload for a ReturnedToCover event
type ReturnedToCoverPayload struct {
	GameID string `json:"game_id"`
	From   string `json:"from"`
}
