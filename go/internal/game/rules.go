package game

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRules is returned by Rules.Validate.
var ErrInvalidRules = errors.New("invalid game rules")

// Rules holds the tunable constants of a game.
type Rules struct {
	// GridSizes is the ladder of grid sizes, one per round. Its length is
	// the number of rounds in a game.
	GridSizes      []int         `yaml:"grid_sizes" json:"grid_sizes"`
	CountdownFrom  int           `yaml:"countdown_from" json:"countdown_from"`
	CountdownStep  time.Duration `yaml:"countdown_step" json:"countdown_step"`
	RoundDuration  time.Duration `yaml:"round_duration" json:"round_duration"`
	SampleInterval time.Duration `yaml:"sample_interval" json:"sample_interval"`
	RevealDelay    time.Duration `yaml:"reveal_delay" json:"reveal_delay"`
	WinRoundDelay  time.Duration `yaml:"win_round_delay" json:"win_round_delay"`
	FailDelay      time.Duration `yaml:"fail_delay" json:"fail_delay"`
}

// DefaultRules returns the standard 4x4, 5x5, 6x6 game with a 10s round.
func DefaultRules() Rules {
	return Rules{
		GridSizes:      []int{4, 5, 6},
		CountdownFrom:  3,
		CountdownStep:  time.Second,
		RoundDuration:  10 * time.Second,
		SampleInterval: 50 * time.Millisecond,
		RevealDelay:    300 * time.Millisecond,
		WinRoundDelay:  time.Second,
		FailDelay:      time.Second,
	}
}

// TotalRounds is the number of rounds in a game.
func (r Rules) TotalRounds() int {
	return len(r.GridSizes)
}

// Validate checks that every value is usable.
func (r Rules) Validate() error {
	if len(r.GridSizes) == 0 {
		return fmt.Errorf("%w: grid ladder is empty", ErrInvalidRules)
	}
	for i, size := range r.GridSizes {
		if size < 1 {
			return fmt.Errorf("%w: grid size %d at round %d", ErrInvalidRules, size, i)
		}
	}
	if r.CountdownFrom < 1 {
		return fmt.Errorf("%w: countdown must start at 1 or more, got %d", ErrInvalidRules, r.CountdownFrom)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"countdown_step", r.CountdownStep},
		{"round_duration", r.RoundDuration},
		{"sample_interval", r.SampleInterval},
		{"reveal_delay", r.RevealDelay},
		{"win_round_delay", r.WinRoundDelay},
		{"fail_delay", r.FailDelay},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidRules, d.name)
		}
	}
	return nil
}
