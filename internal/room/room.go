// Package room tracks who is in the moderated voice channel and what they
// can currently do there: be heard (speak) and hear others (listen).
//
// A Tracker is mutated only by presence events and is not goroutine-safe;
// the owning session serializes access.
package room

import (
	"log"
	"time"

	"vcwarden/internal/activity"
)

// State is the tracked per-user presence state.
type State struct {
	ChannelID string
	JoinedAt  time.Time
	LeftAt    time.Time
	Present   bool
	CanSpeak  bool
	CanListen bool
}

// Tracker holds the presence state of every user seen during the session.
type Tracker struct {
	users map[string]*State

	now func() time.Time
}

func NewTracker() *Tracker {
	return NewTrackerAt(time.Now)
}

// NewTrackerAt creates a tracker on an explicit clock.
func NewTrackerAt(now func() time.Time) *Tracker {
	return &Tracker{
		users: make(map[string]*State),
		now:   now,
	}
}

// Seed registers a user already in the channel when the session starts.
func (t *Tracker) Seed(userID, channelID string, canSpeak, canListen bool) {
	t.users[userID] = &State{
		ChannelID: channelID,
		JoinedAt:  t.now(),
		Present:   true,
		CanSpeak:  canSpeak,
		CanListen: canListen,
	}
}

// SetPresent marks a user as joined. Capability flags start false; the
// listenable/speakable events that accompany a join fill them in.
func (t *Tracker) SetPresent(userID, channelID string) {
	t.users[userID] = &State{
		ChannelID: channelID,
		JoinedAt:  t.now(),
		Present:   true,
	}
}

// SetAbsent marks a user as left. Unknown users are tolerated.
func (t *Tracker) SetAbsent(userID string) {
	state, ok := t.users[userID]
	if !ok {
		log.Printf("room: leave for unknown user %s, ignoring", userID)
		return
	}
	state.Present = false
	state.LeftAt = t.now()
}

func (t *Tracker) SetCanSpeak(userID string, can bool) {
	state, ok := t.users[userID]
	if !ok {
		log.Printf("room: speak flag for unknown user %s, ignoring", userID)
		return
	}
	state.CanSpeak = can
}

func (t *Tracker) SetCanListen(userID string, can bool) {
	state, ok := t.users[userID]
	if !ok {
		log.Printf("room: listen flag for unknown user %s, ignoring", userID)
		return
	}
	state.CanListen = can
}

// StateOf returns a copy of the user's state.
func (t *Tracker) StateOf(userID string) (State, bool) {
	state, ok := t.users[userID]
	if !ok {
		return State{}, false
	}
	return *state, true
}

// Present returns the ids of everyone currently in the channel.
func (t *Tracker) Present() []string {
	var ids []string
	for id, state := range t.users {
		if state.Present {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsPresent reports whether the user is currently in the channel.
func (t *Tracker) IsPresent(userID string) bool {
	state, ok := t.users[userID]
	return ok && state.Present
}

// EligibleVoters returns everyone allowed to vote: present, able to listen,
// present for at least minListen, and with at least minListen of cumulative
// non-deafened time since their last join.
func (t *Tracker) EligibleVoters(minListen time.Duration, deafened *activity.Log) []string {
	now := t.now()
	var voters []string
	for id, state := range t.users {
		if !state.Present || !state.CanListen {
			continue
		}
		present := now.Sub(state.JoinedAt)
		if present < minListen {
			continue
		}
		listening := present - deafened.DurationInRange(id, state.JoinedAt, now)
		if listening >= minListen {
			voters = append(voters, id)
		}
	}
	return voters
}
