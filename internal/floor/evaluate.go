// Package floor implements the open-floor moderation mode: soft per-turn
// time limits with veto-able automatic extensions, adaptive dominance
// periods, and vote-backed cooldowns.
//
// The state-carrying types here are not goroutine-safe; the owning session
// serializes timer callbacks and inbound events behind one mutex.
package floor

import (
	"time"

	"vcwarden/internal/activity"
)

// Options are the per-turn durations of the open-floor mode. All values are
// required and positive; validation happens at settings parse time.
type Options struct {
	// TurnLimit bounds one continuous turn, extensions aside.
	TurnLimit time.Duration
	// PauseDuration is the longest silence that still counts as the same
	// turn, and the minimum length a turn must reach to count at all.
	PauseDuration time.Duration
	// WarningOffset before the limit a turn becomes votable.
	WarningOffset time.Duration
	// VotePadding is reserved at the end of a vote window for the result
	// announcement.
	VotePadding time.Duration
	// ExtensionDuration is granted per non-vetoed extension vote.
	ExtensionDuration time.Duration
	// JailDuration is the cooldown mute length.
	JailDuration time.Duration
}

// TurnStatus classifies one active speaker's current turn.
type TurnStatus struct {
	UserID    string
	Elapsed   time.Duration
	EndOfTurn time.Time
	// Until is the vote deadline for a votable warning, or the moment the
	// limit was breached when over limit.
	Until          time.Time
	VotableWarning bool
	OverLimit      bool
}

// Evaluator smooths raw speaking intervals into logical turns and
// classifies them against the turn limit.
type Evaluator struct {
	opts       Options
	speaking   *activity.Log
	extensions *Ledger

	now func() time.Time
}

func NewEvaluator(opts Options, speaking *activity.Log, extensions *Ledger) *Evaluator {
	return &Evaluator{
		opts:       opts,
		speaking:   speaking,
		extensions: extensions,
		now:        time.Now,
	}
}

// ActiveUsers returns, for every user currently holding a turn, their latest
// smoothed speaking interval. A user is active if that interval is either
// still open or closed within PauseDuration of now, and the interval has
// been running for at least PauseDuration.
func (e *Evaluator) ActiveUsers() map[string]activity.Interval {
	now := e.now()
	active := make(map[string]activity.Interval)
	for _, id := range e.speaking.Users() {
		last, ok := lastSmoothed(e.speaking.Intervals(id), e.opts.PauseDuration)
		if !ok {
			continue
		}
		stillSpeaking := last.Open()
		recentlyStopped := !last.Open() && now.Sub(last.End) <= e.opts.PauseDuration
		longEnough := now.Sub(last.Start) >= e.opts.PauseDuration
		if longEnough && (stillSpeaking || recentlyStopped) {
			active[id] = last
		}
	}
	return active
}

// EvaluateActive classifies every user whose smoothed turn is still open.
func (e *Evaluator) EvaluateActive() []TurnStatus {
	now := e.now()
	var out []TurnStatus
	for id, iv := range e.ActiveUsers() {
		if !iv.Open() {
			continue
		}
		out = append(out, e.evaluate(id, iv, now))
	}
	return out
}

func (e *Evaluator) evaluate(userID string, iv activity.Interval, now time.Time) TurnStatus {
	elapsed := now.Sub(iv.Start)
	st := TurnStatus{
		UserID:    userID,
		Elapsed:   elapsed,
		EndOfTurn: iv.Start.Add(e.opts.TurnLimit),
	}
	switch {
	case elapsed > e.opts.TurnLimit:
		if ext := e.extensions.WindowOf(userID); ext.Count > 0 {
			return e.evaluateExtended(st, iv, elapsed)
		}
		st.OverLimit = true
		st.Until = st.EndOfTurn
	case elapsed > e.opts.TurnLimit-e.opts.WarningOffset:
		st.VotableWarning = true
		st.Until = st.EndOfTurn.Add(-e.opts.VotePadding)
	}
	return st
}

// evaluateExtended reclassifies a turn that ran past the base limit while
// the speaker holds a live extension window.
func (e *Evaluator) evaluateExtended(st TurnStatus, iv activity.Interval, elapsed time.Duration) TurnStatus {
	granted := e.extensions.DurationOf(st.UserID)
	st.EndOfTurn = iv.Start.Add(e.opts.TurnLimit + granted)
	remaining := granted - (elapsed - e.opts.TurnLimit)
	switch {
	case remaining < 0:
		st.OverLimit = true
		st.Until = st.EndOfTurn
	case remaining < e.opts.WarningOffset:
		st.VotableWarning = true
		st.Until = st.EndOfTurn.Add(-e.opts.VotePadding)
	}
	return st
}

// lastSmoothed merges the most recent raw interval backward while the gap
// to the previous interval is at most pause. The merged interval keeps the
// earliest merged start.
func lastSmoothed(intervals []activity.Interval, pause time.Duration) (activity.Interval, bool) {
	n := len(intervals)
	if n == 0 {
		return activity.Interval{}, false
	}
	last := intervals[n-1]
	for i := n - 2; i >= 0; i-- {
		prev := intervals[i]
		if prev.End.IsZero() || last.Start.Sub(prev.End) > pause {
			break
		}
		last.Start = prev.Start
	}
	return last, true
}

// SmoothIntervals merges near-contiguous closed intervals: consecutive
// intervals separated by at most pause collapse into one.
func SmoothIntervals(intervals []activity.Interval, pause time.Duration) []activity.Interval {
	if len(intervals) == 0 {
		return nil
	}
	var out []activity.Interval
	current := intervals[0]
	for _, next := range intervals[1:] {
		if next.Start.Sub(current.End) <= pause {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		out = append(out, current)
		current = next
	}
	return append(out, current)
}
