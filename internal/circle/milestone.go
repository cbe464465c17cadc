// Package circle implements the round-robin speaking queue: a rotating
// order of speakers driven by a milestone clock, with voted extensions and
// automatic advancement past silent holders.
package circle

import "time"

// ClockOptions set the milestone cadence. PreOffset is how long before a
// milestone the pre-milestone signal fires; Extension is the amount one
// passed extension vote adds.
type ClockOptions struct {
	Milestone time.Duration
	PreOffset time.Duration
	Extension time.Duration
}

// Span records one completed turn on the clock.
type Span struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Clock tracks the head speaker's turn against a pending milestone. It is
// not goroutine-safe; the owning controller serializes access.
type Clock struct {
	opts      ClockOptions
	startedAt time.Time
	pending   time.Time
	history   []Span
	preFired  bool
	running   bool

	now func() time.Time
}

func NewClock(opts ClockOptions) *Clock {
	return &Clock{opts: opts, now: time.Now}
}

// Start begins a fresh turn with a full milestone ahead of it.
func (c *Clock) Start() {
	now := c.now()
	c.startedAt = now
	c.pending = now.Add(c.opts.Milestone)
	c.preFired = false
	c.running = true
}

// Stop halts the clock. History survives for status queries.
func (c *Clock) Stop() {
	c.running = false
}

func (c *Clock) Running() bool {
	return c.running
}

// Advance checks the pending milestone. milestone reports that the turn is
// over and a new span was recorded; pre reports that the pre-milestone
// window just opened. Each fires at most once per turn.
func (c *Clock) Advance() (milestone, pre bool) {
	if !c.running {
		return false, false
	}
	now := c.now()
	remaining := c.pending.Sub(now)
	if remaining <= 0 {
		c.record(now)
		c.startedAt = now
		c.pending = now.Add(c.opts.Milestone)
		c.preFired = false
		return true, false
	}
	if !c.preFired && remaining <= c.opts.PreOffset {
		c.preFired = true
		return false, true
	}
	return false, false
}

// Extend pushes the pending milestone out by one extension and re-arms the
// pre-milestone signal for the longer turn.
func (c *Clock) Extend() {
	if !c.running {
		return
	}
	c.pending = c.pending.Add(c.opts.Extension)
	c.preFired = false
}

// FastForward ends the current turn immediately and starts the next one
// with a full milestone.
func (c *Clock) FastForward() {
	if !c.running {
		return
	}
	now := c.now()
	c.record(now)
	c.startedAt = now
	c.pending = now.Add(c.opts.Milestone)
	c.preFired = false
}

func (c *Clock) record(end time.Time) {
	c.history = append(c.history, Span{
		Start:    c.startedAt,
		End:      end,
		Duration: end.Sub(c.startedAt),
	})
}

// Elapsed is how long the current turn has been running.
func (c *Clock) Elapsed() time.Duration {
	if !c.running {
		return 0
	}
	return c.now().Sub(c.startedAt)
}

// Remaining is the time left until the pending milestone.
func (c *Clock) Remaining() time.Duration {
	if !c.running {
		return 0
	}
	return c.pending.Sub(c.now())
}

// History returns the recorded turns, oldest first.
func (c *Clock) History() []Span {
	out := make([]Span, len(c.history))
	copy(out, c.history)
	return out
}
