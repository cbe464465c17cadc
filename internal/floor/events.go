package floor

import "time"

// EventKind names a semantic threshold event emitted by the scheduler.
type EventKind string

const (
	EventTurnLimitWarningVoteOpened EventKind = "TURN_LIMIT_WARNING_VOTE_OPENED"
	EventTurnLimitReached           EventKind = "TURN_LIMIT_REACHED"
	EventPeriodLimitWarning         EventKind = "PERIOD_LIMIT_WARNING"
	EventPeriodLimitReached         EventKind = "PERIOD_LIMIT_REACHED"
)

// Event carries the threshold that fired and everything a handler needs to
// act on it without reaching back into the scheduler.
type Event struct {
	Kind      EventKind
	UserID    string
	ActiveFor time.Duration
	Until     time.Time
	EndOfTurn time.Time
	Percent   int
	Voters    []string
}

// Handler processes one event. Handlers run synchronously on the emitting
// tick, under the session mutex.
type Handler func(Event)

// Events is an explicit per-session subscription table: event kind to an
// ordered list of handlers. Built at mode init, dropped whole at mode
// switch, so no handler can outlive its mode.
type Events struct {
	handlers map[EventKind][]Handler
}

func NewEvents() *Events {
	return &Events{handlers: make(map[EventKind][]Handler)}
}

// On appends a handler for the given kind.
func (e *Events) On(kind EventKind, h Handler) {
	e.handlers[kind] = append(e.handlers[kind], h)
}

// Emit invokes every handler registered for the event's kind, in
// registration order.
func (e *Events) Emit(ev Event) {
	for _, h := range e.handlers[ev.Kind] {
		h(ev)
	}
}

// Reset drops every registered handler.
func (e *Events) Reset() {
	e.handlers = make(map[EventKind][]Handler)
}
