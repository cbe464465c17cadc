package activity

import "time"

// Interruption records a speaker starting while others still held an open
// speaking interval. Informational only; nothing in the schedulers keys off
// of it.
type Interruption struct {
	At          time.Time
	Interruptor string
	Interrupted []string
}

// InterruptionLog accumulates interruption records per interruptor.
type InterruptionLog struct {
	byUser map[string][]Interruption
	now    func() time.Time
}

func NewInterruptionLog() *InterruptionLog {
	return &InterruptionLog{
		byUser: make(map[string][]Interruption),
		now:    time.Now,
	}
}

// Record appends an interruption by interruptor over the given speakers.
// No-op when interrupted is empty.
func (il *InterruptionLog) Record(interruptor string, interrupted []string) {
	if len(interrupted) == 0 {
		return
	}
	il.byUser[interruptor] = append(il.byUser[interruptor], Interruption{
		At:          il.now(),
		Interruptor: interruptor,
		Interrupted: interrupted,
	})
}

// Of returns the interruptions caused by one user.
func (il *InterruptionLog) Of(userID string) []Interruption {
	records := il.byUser[userID]
	out := make([]Interruption, len(records))
	copy(out, records)
	return out
}

// Total counts all recorded interruptions.
func (il *InterruptionLog) Total() int {
	n := 0
	for _, records := range il.byUser {
		n += len(records)
	}
	return n
}
