// Package vote defines the time-boxed group ballot both schedulers use and
// the majority rule they share.
package vote

import (
	"context"
	"time"
)

// Kind names what a reached ballot means to the scheduler that opened it.
type Kind string

const (
	// KindVeto blocks an otherwise automatic turn extension.
	KindVeto Kind = "veto"
	// KindCooldown sends a period-dominant speaker to cooldown.
	KindCooldown Kind = "cooldown"
	// KindExtend extends the current round-robin turn.
	KindExtend Kind = "extend"
)

// Prompt describes one ballot. Voters is the fixed electorate for this
// ballot; Majority is precomputed from it when the ballot opens.
type Prompt struct {
	Kind     Kind
	TargetID string
	Voters   []string
	Majority int
	Timeout  time.Duration
	Text     string

	// ReachedText and FailedText are posted by the collector when the
	// ballot resolves; either may be empty to stay silent.
	ReachedText string
	FailedText  string
}

// Collector posts a prompt and collects votes until majority, timeout, or
// context cancellation. A cancelled ballot resolves as not reached; an error
// means the sink itself failed and the caller must take no action at all.
type Collector interface {
	Collect(ctx context.Context, p Prompt) (reached bool, err error)
}

// Announcer pushes a plain notification to the room.
type Announcer interface {
	Announce(text string)
}

// Majority returns the quorum for n voters: max(1, ceil(n/2)).
func Majority(n int) int {
	if n <= 1 {
		return 1
	}
	return (n + 1) / 2
}
