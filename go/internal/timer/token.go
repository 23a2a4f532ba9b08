package timer

import (
	"fmt"
	"time"
)

// Kind names one class of scheduled callback. At most one timer per kind is
// active at a time.
type Kind string

const (
	KindCountdown Kind = "countdown"
	KindDeadline  Kind = "deadline"
	KindReveal    Kind = "reveal"
	KindWinRound  Kind = "win_round"
	KindFail      Kind = "fail"
)

// Token identifies a single scheduled callback. Seq increases every time a
// kind is rescheduled, so a token that was replaced can be recognised when
// it arrives late.
type Token struct {
	Kind Kind
	Seq  uint64
}

func (t Token) String() string {
	return fmt.Sprintf("%s#%d", t.Kind, t.Seq)
}

// Scheduler runs one-shot callbacks identified by tokens.
type Scheduler interface {
	ScheduleOnce(delay time.Duration, token Token)
	Cancel(token Token)
}
