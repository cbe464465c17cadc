package circle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"vcwarden/internal/activity"
	"vcwarden/internal/vote"
	"vcwarden/pkg/utils"
)

// Options tune the queue mode. AutoNextThreshold is how long the head may
// stay silent before the queue advances without them.
type Options struct {
	TurnLimit         time.Duration
	WarningOffset     time.Duration
	TurnExtension     time.Duration
	VotePadding       time.Duration
	AutoNextThreshold time.Duration
}

// Muter mutes or unmutes one user in the room.
type Muter interface {
	SetMuted(userID string, muted bool, reason string) error
}

// Controller owns the speaking queue for one session. Inbound calls and
// ticker callbacks all run under the session mutex passed at construction.
type Controller struct {
	opts Options

	queue     *Queue
	clock     *Clock
	speaking  *activity.Log
	ballots   vote.Collector
	announcer vote.Announcer
	muter     Muter

	mu         sync.Locker
	ctx        context.Context
	cancelVote context.CancelFunc
	runCancel  context.CancelFunc
	wg         sync.WaitGroup

	now func() time.Time
}

func NewController(ctx context.Context, mu sync.Locker, opts Options, speaking *activity.Log,
	ballots vote.Collector, announcer vote.Announcer, muter Muter) *Controller {
	return &Controller{
		opts:  opts,
		queue: NewQueue(),
		clock: NewClock(ClockOptions{
			Milestone: opts.TurnLimit,
			PreOffset: opts.WarningOffset,
			Extension: opts.TurnExtension,
		}),
		speaking:  speaking,
		ballots:   ballots,
		announcer: announcer,
		muter:     muter,
		mu:        mu,
		ctx:       ctx,
		now:       time.Now,
	}
}

// Join adds a user to the back of the queue. The queue starts once a second
// user arrives.
func (c *Controller) Join(userID string) {
	if !c.queue.Add(userID) {
		return
	}
	switch c.queue.Len() {
	case 1:
		// A queue of one has nothing to rotate; the lone member keeps
		// their voice until someone else joins.
	case 2:
		c.start()
		c.announcer.Announce("Queue continues now that there are enough users.")
	default:
		c.setMuted(userID, true, "queued")
	}
}

// Leave removes a user. A departing head ends their turn; a queue shrunk to
// one stops rotating.
func (c *Controller) Leave(userID string) {
	if !c.queue.Contains(userID) {
		return
	}
	wasHead := c.queue.Head() == userID
	if wasHead {
		c.abortVote()
	}
	c.queue.Remove(userID)
	c.setMuted(userID, false, "left queue")

	if c.queue.Len() <= 1 {
		c.stop()
		for _, id := range c.queue.All() {
			c.setMuted(id, false, "queue suspended")
		}
		c.announcer.Announce("Queue temporarily stopped until another user joins.")
		return
	}
	if wasHead {
		c.clock.FastForward()
		c.setMuted(c.queue.Head(), false, "turn started")
		rotations.Inc()
	}
}

// Wait moves a non-head user to the back of the queue. The head cannot
// wait; they use Next.
func (c *Controller) Wait(userID string) bool {
	if !c.queue.MoveToBack(userID) {
		return false
	}
	c.abortVote()
	return true
}

// Next lets the head yield the rest of their turn.
func (c *Controller) Next(userID string) bool {
	if c.queue.Head() != userID || c.queue.Len() < 2 {
		return false
	}
	c.abortVote()
	c.clock.FastForward()
	c.rotate()
	return true
}

// End stops the queue and restores everyone's voice.
func (c *Controller) End() {
	c.stop()
	for _, id := range c.queue.All() {
		c.setMuted(id, false, "queue ended")
	}
}

// Order returns the queue, head first.
func (c *Controller) Order() []string {
	return c.queue.All()
}

// Elapsed is the head's time on the floor so far.
func (c *Controller) Elapsed() time.Duration {
	return c.clock.Elapsed()
}

// Remaining is the head's time left before rotation.
func (c *Controller) Remaining() time.Duration {
	return c.clock.Remaining()
}

func (c *Controller) start() {
	for _, id := range c.queue.All() {
		if id != c.queue.Head() {
			c.setMuted(id, true, "queued")
		}
	}
	c.setMuted(c.queue.Head(), false, "turn started")
	c.clock.Start()

	runCtx, cancel := context.WithCancel(c.ctx)
	c.runCancel = cancel
	go c.run(runCtx)
}

func (c *Controller) stop() {
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
	c.abortVote()
	c.clock.Stop()
}

func (c *Controller) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			c.tick()
			c.mu.Unlock()
		}
	}
}

func (c *Controller) tick() {
	if !c.clock.Running() {
		return
	}
	milestone, pre := c.clock.Advance()
	switch {
	case milestone:
		c.abortVote()
		c.rotate()
		return
	case pre:
		c.preMilestone()
	}
	c.autoAdvance()
}

func (c *Controller) rotate() {
	prev := c.queue.Head()
	c.queue.Rotate()
	next := c.queue.Head()
	c.setMuted(prev, true, "turn over")
	c.setMuted(next, false, "turn started")
	c.announcer.Announce(fmt.Sprintf("The floor passes to %s.", utils.FormatUserMention(next)))
	rotations.Inc()
}

// preMilestone opens an extension ballot among everyone but the head. A
// rotation or yield before it resolves cancels it.
func (c *Controller) preMilestone() {
	if c.queue.Len() < 2 {
		return
	}
	head := c.queue.Head()
	var voters []string
	for _, id := range c.queue.All() {
		if id != head {
			voters = append(voters, id)
		}
	}
	timeout := c.opts.WarningOffset - c.opts.VotePadding
	if timeout <= 0 {
		return
	}
	prompt := vote.Prompt{
		Kind:     vote.KindExtend,
		TargetID: head,
		Voters:   voters,
		Majority: vote.Majority(len(voters)),
		Timeout:  timeout,
		Text: fmt.Sprintf("%s's turn is almost over. Vote to extend it.",
			utils.FormatUserMention(head)),
		ReachedText: fmt.Sprintf("%s's turn was extended.", utils.FormatUserMention(head)),
	}

	voteCtx, cancel := context.WithCancel(c.ctx)
	c.cancelVote = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		reached, err := c.ballots.Collect(voteCtx, prompt)
		if err != nil {
			log.Printf("extension ballot for %s failed: %v", head, err)
			return
		}
		if !reached {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.queue.Head() != head || !c.clock.Running() {
			return
		}
		c.clock.Extend()
		extensionVotesPassed.Inc()
	}()
}

// autoAdvance skips a head who has gone quiet: either they never spoke this
// turn, or their last word was a threshold ago.
func (c *Controller) autoAdvance() {
	head := c.queue.Head()
	if head == "" || c.queue.Len() < 2 || c.speaking.IsOpen(head) {
		return
	}
	intervals := c.speaking.Intervals(head)
	now := c.now()
	silent := false
	if last, ok := lastClosedAfter(intervals, c.clockStart()); ok {
		silent = now.Sub(last.End) >= c.opts.AutoNextThreshold
	} else {
		silent = c.clock.Elapsed() >= c.opts.AutoNextThreshold
	}
	if !silent {
		return
	}
	c.abortVote()
	c.clock.FastForward()
	c.announcer.Announce(fmt.Sprintf("%s seems to be away; moving on.", utils.FormatUserMention(head)))
	c.rotate()
	autoAdvances.Inc()
}

func (c *Controller) clockStart() time.Time {
	return c.now().Add(-c.clock.Elapsed())
}

func lastClosedAfter(intervals []activity.Interval, after time.Time) (activity.Interval, bool) {
	for i := len(intervals) - 1; i >= 0; i-- {
		iv := intervals[i]
		if iv.Open() {
			continue
		}
		if iv.End.After(after) {
			return iv, true
		}
		return activity.Interval{}, false
	}
	return activity.Interval{}, false
}

func (c *Controller) abortVote() {
	if c.cancelVote != nil {
		c.cancelVote()
		c.cancelVote = nil
	}
}

func (c *Controller) setMuted(userID string, muted bool, reason string) {
	if err := c.muter.SetMuted(userID, muted, reason); err != nil {
		log.Printf("setting mute for %s (%s): %v", userID, reason, err)
	}
}
