// Package activity records per-user spans of an observed voice signal
// (speaking, deafened) as append-only interval logs.
//
// A Log holds at most one open interval per user at a time. Opening while
// open and closing while closed are tolerated as signal inconsistencies:
// they are logged and ignored, never fatal.
//
// A Log is not goroutine-safe. Each moderation session owns its logs and
// serializes access behind its own mutex.
package activity

import (
	"log"
	"time"
)

// Interval is a contiguous span of the observed state. A zero End means the
// interval is still open.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Open reports whether the interval has not been closed yet.
func (iv Interval) Open() bool {
	return iv.End.IsZero()
}

// Log is an append-only interval log for one signal kind.
type Log struct {
	name      string
	users     map[string][]Interval
	startedAt time.Time

	now func() time.Time
}

// NewLog creates an empty log. The name only appears in diagnostics.
func NewLog(name string) *Log {
	return NewLogAt(name, time.Now)
}

// NewLogAt creates an empty log on an explicit clock.
func NewLogAt(name string, now func() time.Time) *Log {
	l := &Log{
		name:  name,
		users: make(map[string][]Interval),
		now:   now,
	}
	l.startedAt = l.now()
	return l
}

// StartedAt returns the moment the log was created.
func (l *Log) StartedAt() time.Time {
	return l.startedAt
}

// Seed registers a user with an empty history.
func (l *Log) Seed(userID string) {
	if _, ok := l.users[userID]; !ok {
		l.users[userID] = nil
	}
}

// Open appends a new open interval for the user. If one is already open the
// call is a no-op; that signals a missed close upstream.
func (l *Log) Open(userID string) {
	history := l.users[userID]
	if n := len(history); n > 0 && history[n-1].Open() {
		log.Printf("%s log: interval for %s already open, ignoring", l.name, userID)
		return
	}
	l.users[userID] = append(history, Interval{Start: l.now()})
}

// Close sets the end of the user's open interval. No-op if none is open.
func (l *Log) Close(userID string) {
	history := l.users[userID]
	n := len(history)
	if n == 0 || !history[n-1].Open() {
		log.Printf("%s log: no open interval for %s, ignoring close", l.name, userID)
		return
	}
	history[n-1].End = l.now()
}

// IsOpen reports whether the user currently has an open interval.
func (l *Log) IsOpen(userID string) bool {
	history := l.users[userID]
	n := len(history)
	return n > 0 && history[n-1].Open()
}

// OpenUsers returns every user with a currently open interval.
func (l *Log) OpenUsers() []string {
	var ids []string
	for id, history := range l.users {
		if n := len(history); n > 0 && history[n-1].Open() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Users returns every known user id, including ones with empty histories.
func (l *Log) Users() []string {
	ids := make([]string, 0, len(l.users))
	for id := range l.users {
		ids = append(ids, id)
	}
	return ids
}

// Intervals returns a copy of the user's raw history in append order.
func (l *Log) Intervals(userID string) []Interval {
	history := l.users[userID]
	out := make([]Interval, len(history))
	copy(out, history)
	return out
}

// InRange returns the user's intervals clipped to [from, to]. Open intervals
// are clipped at the current time, so every returned interval is closed.
func (l *Log) InRange(userID string, from, to time.Time) []Interval {
	now := l.now()
	var out []Interval
	for _, iv := range l.users[userID] {
		if !iv.Open() && iv.End.Before(from) {
			continue
		}
		if iv.Start.After(to) {
			continue
		}
		end := iv.End
		if iv.Open() {
			end = now
		}
		out = append(out, Interval{Start: maxTime(iv.Start, from), End: minTime(iv.End, to, end)})
	}
	return out
}

// DurationInRange returns the accumulated time of the user's intervals
// within [from, to].
func (l *Log) DurationInRange(userID string, from, to time.Time) time.Duration {
	now := l.now()
	var total time.Duration
	for _, iv := range l.users[userID] {
		start := maxTime(iv.Start, from)
		end := iv.End
		if iv.Open() {
			end = now
		}
		if end.After(to) {
			end = to
		}
		if end.After(start) {
			total += end.Sub(start)
		}
	}
	return total
}

// Duration returns the accumulated time of the user's intervals since the
// log was created.
func (l *Log) Duration(userID string) time.Duration {
	return l.DurationInRange(userID, l.startedAt, l.now())
}

// TotalDuration sums a slice of closed intervals.
func TotalDuration(intervals []Interval) time.Duration {
	var total time.Duration
	for _, iv := range intervals {
		if iv.End.After(iv.Start) {
			total += iv.End.Sub(iv.Start)
		}
	}
	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// minTime picks the earliest bound, treating the zero value in candidates as
// "unbounded".
func minTime(end, to, open time.Time) time.Time {
	e := end
	if e.IsZero() {
		e = open
	}
	if to.Before(e) {
		return to
	}
	return e
}
