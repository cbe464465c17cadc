// Package session owns one moderated voice channel: the shared activity
// logs, the room tracker, and whichever mode is currently running. Every
// inbound event and timer callback serializes on the session mutex.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vcwarden/internal/activity"
	"vcwarden/internal/circle"
	"vcwarden/internal/floor"
	"vcwarden/internal/models"
	"vcwarden/internal/room"
	"vcwarden/internal/stage"
	"vcwarden/internal/vote"
)

// Mode names the active moderation style.
type Mode string

const (
	ModeIdle   Mode = "idle"
	ModeFloor  Mode = "floor"
	ModeCircle Mode = "circle"
	ModeStage  Mode = "stage"
)

// Muter mutes or unmutes one user in the room.
type Muter interface {
	SetMuted(userID string, muted bool, reason string) error
}

// Ports are the host-side effects a session drives.
type Ports struct {
	Ballots   vote.Collector
	Announcer vote.Announcer
	Muter     Muter
}

// Session is the moderation state for one guild's voice channel.
type Session struct {
	ID        uuid.UUID
	GuildID   string
	ChannelID string

	mu       sync.Mutex
	settings models.GuildSettings
	ports    Ports

	rooms         *room.Tracker
	speaking      *activity.Log
	deafened      *activity.Log
	interruptions *activity.InterruptionLog

	mode Mode

	ctx    context.Context
	cancel context.CancelFunc

	// cancels the running mode's timers and ballots
	modeCancel context.CancelFunc

	// floor mode
	floorEvents *floor.Events
	extensions  *floor.Ledger
	scheduler   *floor.Scheduler
	enforcer    *floor.Enforcer

	// circle mode
	circleCtrl *circle.Controller

	// stage mode
	stageCtrl *stage.Controller
}

func New(guildID, channelID string, settings models.GuildSettings, ports Ports) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:            uuid.New(),
		GuildID:       guildID,
		ChannelID:     channelID,
		settings:      settings,
		ports:         ports,
		rooms:         room.NewTracker(),
		speaking:      activity.NewLog("speaking"),
		deafened:      activity.NewLog("deafened"),
		interruptions: activity.NewInterruptionLog(),
		mode:          ModeIdle,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Mode returns the active mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Settings returns the configuration the session was started with.
func (s *Session) Settings() models.GuildSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetMode tears down the running mode and starts the requested one.
// speakerID is only meaningful for the stage mode.
func (s *Session) SetMode(mode Mode, speakerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == s.mode {
		return fmt.Errorf("mode %s is already active", mode)
	}
	if mode == ModeStage && speakerID == "" {
		return fmt.Errorf("stage mode needs a speaker")
	}

	s.teardownLocked()
	s.mode = mode

	switch mode {
	case ModeIdle:
	case ModeFloor:
		s.initFloorLocked()
	case ModeCircle:
		s.initCircleLocked()
	case ModeStage:
		s.stageCtrl = stage.NewController(s.rooms, s.ports.Muter)
		s.stageCtrl.Start(speakerID)
	default:
		s.mode = ModeIdle
		return fmt.Errorf("unknown mode %q", mode)
	}
	return nil
}

func (s *Session) initFloorLocked() {
	opts, sched := s.settings.FloorOptions()
	ctx, cancel := context.WithCancel(s.ctx)
	s.modeCancel = cancel

	s.extensions = floor.NewLedger(opts.ExtensionDuration)
	for _, id := range s.rooms.Present() {
		s.extensions.Seed(id)
	}
	evaluator := floor.NewEvaluator(opts, s.speaking, s.extensions)
	s.floorEvents = floor.NewEvents()
	s.scheduler = floor.NewScheduler(sched, opts, evaluator, s.extensions,
		s.speaking, s.rooms, s.deafened, s.floorEvents)
	s.enforcer = floor.NewEnforcer(ctx, &s.mu, opts, sched, s.extensions,
		s.ports.Ballots, s.ports.Announcer, s.ports.Muter)
	s.enforcer.Attach(s.floorEvents)
	s.scheduler.Run(ctx, &s.mu)
}

func (s *Session) initCircleLocked() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.modeCancel = cancel
	s.circleCtrl = circle.NewController(ctx, &s.mu, s.settings.CircleOptions(),
		s.speaking, s.ports.Ballots, s.ports.Announcer, s.ports.Muter)
	for _, id := range s.rooms.Present() {
		s.circleCtrl.Join(id)
	}
}

func (s *Session) teardownLocked() {
	switch s.mode {
	case ModeFloor:
		for _, id := range s.enforcer.JailedUsers() {
			s.ports.Muter.SetMuted(id, false, "mode ended")
		}
		s.floorEvents.Reset()
		s.modeCancel()
		s.floorEvents, s.extensions, s.scheduler, s.enforcer = nil, nil, nil, nil
	case ModeCircle:
		s.circleCtrl.End()
		s.modeCancel()
		s.circleCtrl = nil
	case ModeStage:
		s.stageCtrl.End()
		s.stageCtrl = nil
	}
	s.modeCancel = nil
}

// Close ends the session and releases every suspended timer and ballot.
func (s *Session) Close() {
	s.mu.Lock()
	s.teardownLocked()
	s.mode = ModeIdle
	s.mu.Unlock()
	s.cancel()
}

// HandleJoin records a user entering the channel.
func (s *Session) HandleJoin(userID string, canSpeak, canListen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms.Seed(userID, s.ChannelID, canSpeak, canListen)
	s.speaking.Seed(userID)
	s.deafened.Seed(userID)
	if !canListen {
		s.deafened.Open(userID)
	}
	switch s.mode {
	case ModeFloor:
		s.extensions.Seed(userID)
	case ModeCircle:
		s.circleCtrl.Join(userID)
	case ModeStage:
		s.stageCtrl.Join(userID)
	}
}

// HandleLeave records a user leaving the channel.
func (s *Session) HandleLeave(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms.SetAbsent(userID)
	s.speaking.Close(userID)
	s.deafened.Close(userID)
	switch s.mode {
	case ModeCircle:
		s.circleCtrl.Leave(userID)
	case ModeStage:
		s.stageCtrl.Leave(userID)
	}
}

// HandleSpeakable records a mute flag change for a present user.
func (s *Session) HandleSpeakable(userID string, canSpeak bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms.SetCanSpeak(userID, canSpeak)
	if !canSpeak {
		s.speaking.Close(userID)
	}
}

// HandleListenable records a deafen flag change for a present user. Time
// spent deafened does not count toward voter eligibility.
func (s *Session) HandleListenable(userID string, canListen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms.SetCanListen(userID, canListen)
	if canListen {
		s.deafened.Close(userID)
	} else {
		s.deafened.Open(userID)
	}
}

// HandleSpeechStart opens a speaking interval and records who got talked
// over.
func (s *Session) HandleSpeechStart(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rooms.IsPresent(userID) {
		return
	}
	if s.speaking.IsOpen(userID) {
		return
	}
	var interrupted []string
	for _, id := range s.speaking.OpenUsers() {
		if id == userID {
			continue
		}
		st, ok := s.rooms.StateOf(id)
		if ok && st.Present && st.CanSpeak {
			interrupted = append(interrupted, id)
		}
	}
	s.interruptions.Record(userID, interrupted)
	s.speaking.Open(userID)
}

// HandleSpeechStop closes the user's speaking interval.
func (s *Session) HandleSpeechStop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speaking.Close(userID)
}

// Wait moves a queued user to the back of the circle queue.
func (s *Session) Wait(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeCircle {
		return false, fmt.Errorf("no queue is running")
	}
	return s.circleCtrl.Wait(userID), nil
}

// Next lets the circle head yield their turn.
func (s *Session) Next(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeCircle {
		return false, fmt.Errorf("no queue is running")
	}
	return s.circleCtrl.Next(userID), nil
}

// Status is a point-in-time snapshot for status commands and the dashboard.
type Status struct {
	SessionID     string         `json:"session_id"`
	GuildID       string         `json:"guild_id"`
	ChannelID     string         `json:"channel_id"`
	Mode          Mode           `json:"mode"`
	Present       []string       `json:"present"`
	Speaking      []string       `json:"speaking"`
	Interruptions int            `json:"interruptions"`
	Jailed        []string       `json:"jailed,omitempty"`
	PeriodLength  time.Duration  `json:"period_length,omitempty"`
	Activity      map[string]int `json:"activity,omitempty"`
	Queue         []string       `json:"queue,omitempty"`
	TurnElapsed   time.Duration  `json:"turn_elapsed,omitempty"`
	TurnRemaining time.Duration  `json:"turn_remaining,omitempty"`
	StageSpeaker  string         `json:"stage_speaker,omitempty"`
}

// Status snapshots the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		SessionID:     s.ID.String(),
		GuildID:       s.GuildID,
		ChannelID:     s.ChannelID,
		Mode:          s.mode,
		Present:       s.rooms.Present(),
		Speaking:      s.speaking.OpenUsers(),
		Interruptions: s.interruptions.Total(),
	}
	switch s.mode {
	case ModeFloor:
		st.Jailed = s.enforcer.JailedUsers()
		st.PeriodLength = s.scheduler.PeriodLength()
		st.Activity = s.scheduler.ActivityPercent()
	case ModeCircle:
		st.Queue = s.circleCtrl.Order()
		st.TurnElapsed = s.circleCtrl.Elapsed()
		st.TurnRemaining = s.circleCtrl.Remaining()
	case ModeStage:
		st.StageSpeaker = s.stageCtrl.Speaker()
	}
	return st
}
