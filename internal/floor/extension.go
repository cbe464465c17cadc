package floor

import "time"

// Window is one user's extension bookkeeping. While live (End has not
// passed), further grants stack onto the same window.
type Window struct {
	Count int
	Start time.Time
	End   time.Time
}

// Live reports whether the window still covers now.
func (w Window) Live(now time.Time) bool {
	return w.Count > 0 && !w.End.Before(now)
}

// Ledger tracks granted turn-time extensions per user.
type Ledger struct {
	users     map[string]Window
	extension time.Duration

	now func() time.Time
}

func NewLedger(extension time.Duration) *Ledger {
	return &Ledger{
		users:     make(map[string]Window),
		extension: extension,
		now:       time.Now,
	}
}

// Seed registers a user with an empty window.
func (l *Ledger) Seed(userID string) {
	if _, ok := l.users[userID]; !ok {
		l.users[userID] = Window{}
	}
}

// Grant stacks one extension onto the user's live window, or opens a fresh
// window anchored at anchor.
func (l *Ledger) Grant(userID string, anchor time.Time) {
	w := l.users[userID]
	if w.Live(l.now()) {
		w.Count++
		w.End = w.End.Add(l.extension)
	} else {
		w = Window{Count: 1, Start: anchor, End: anchor.Add(l.extension)}
	}
	l.users[userID] = w
}

// Revoke resets the user's window. Used when a speaker who held an
// extension stops being active.
func (l *Ledger) Revoke(userID string) {
	if _, ok := l.users[userID]; ok {
		l.users[userID] = Window{}
	}
}

// WindowOf returns the user's current window.
func (l *Ledger) WindowOf(userID string) Window {
	return l.users[userID]
}

// DurationOf returns the total extension time the user's window grants.
func (l *Ledger) DurationOf(userID string) time.Duration {
	return time.Duration(l.users[userID].Count) * l.extension
}

// ExtensionDuration is the time one grant adds.
func (l *Ledger) ExtensionDuration() time.Duration {
	return l.extension
}

// Users returns every id the ledger knows about.
func (l *Ledger) Users() []string {
	ids := make([]string, 0, len(l.users))
	for id := range l.users {
		ids = append(ids, id)
	}
	return ids
}
