// Package stage implements the single-speaker mode: one designated speaker
// keeps their voice, everyone else is muted while the mode is active.
package stage

import (
	"log"

	"vcwarden/internal/room"
)

// Muter mutes or unmutes one user in the room.
type Muter interface {
	SetMuted(userID string, muted bool, reason string) error
}

// Controller holds the stage for one session. The owning session serializes
// all calls.
type Controller struct {
	rooms     *room.Tracker
	muter     Muter
	speakerID string
}

func NewController(rooms *room.Tracker, muter Muter) *Controller {
	return &Controller{rooms: rooms, muter: muter}
}

// Start opens the stage for one speaker; everyone else present is muted.
func (c *Controller) Start(speakerID string) {
	c.speakerID = speakerID
	for _, id := range c.rooms.Present() {
		c.setMuted(id, id != speakerID, "stage opened")
	}
}

// SetSpeaker hands the stage to a new speaker.
func (c *Controller) SetSpeaker(speakerID string) {
	if c.speakerID == speakerID {
		return
	}
	prev := c.speakerID
	c.speakerID = speakerID
	if prev != "" {
		c.setMuted(prev, true, "left the stage")
	}
	c.setMuted(speakerID, false, "took the stage")
}

// Speaker returns the current stage holder, or "".
func (c *Controller) Speaker() string {
	return c.speakerID
}

// Join mutes an arriving user unless they are the speaker.
func (c *Controller) Join(userID string) {
	if userID != c.speakerID {
		c.setMuted(userID, true, "joined during stage")
	}
}

// Leave handles a departure. A departing speaker leaves the stage empty
// until a new one is set.
func (c *Controller) Leave(userID string) {
	if userID == c.speakerID {
		c.speakerID = ""
	}
	c.setMuted(userID, false, "left the room")
}

// End closes the stage and restores everyone's voice.
func (c *Controller) End() {
	c.speakerID = ""
	for _, id := range c.rooms.Present() {
		c.setMuted(id, false, "stage closed")
	}
}

func (c *Controller) setMuted(userID string, muted bool, reason string) {
	if err := c.muter.SetMuted(userID, muted, reason); err != nil {
		log.Printf("setting mute for %s (%s): %v", userID, reason, err)
	}
}
