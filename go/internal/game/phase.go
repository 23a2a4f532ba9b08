package game

// Phase is the active screen of a game session.
type Phase string

const (
	PhaseCover     Phase = "COVER"
	PhaseCountdown Phase = "COUNTDOWN"
	PhasePlaying   Phase = "PLAYING"
	PhaseWinRound  Phase = "WIN_ROUND"
	PhaseWinGame   Phase = "WIN_GAME"
	PhaseFail      Phase = "FAIL"
	PhaseTimeUp    Phase = "TIME_UP"
)

var validTransitions = map[Phase][]Phase{
	PhaseCover:     {PhaseCountdown},
	PhaseCountdown: {PhasePlaying},
	PhasePlaying:   {PhaseWinRound, PhaseWinGame, PhaseFail, PhaseTimeUp},
	PhaseWinRound:  {PhaseCountdown},
	PhaseWinGame:   {PhaseCover},
	PhaseFail:      {PhaseCover},
	PhaseTimeUp:    {PhaseCover},
}

func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo reports whether the machine may move from p to target.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, phase := range validTransitions[p] {
		if phase == target {
			return true
		}
	}
	return false
}

// AwaitsAcknowledge reports whether the phase only leaves on a player
// acknowledgment.
func (p Phase) AwaitsAcknowledge() bool {
	return p == PhaseWinGame || p == PhaseTimeUp
}
