package models

import (
	"fmt"
	"time"

	"vcwarden/internal/circle"
	"vcwarden/internal/floor"
)

// ModeDurations holds one mode's timing knobs in seconds, the unit admins
// configure them in. The effective engine durations derive from these: the
// vote window includes the result pause, and the turn limit and extension
// absorb both so a full vote always fits inside them.
type ModeDurations struct {
	Vote      int64
	Result    int64
	Turn      int64
	Extension int64
	Pause     int64
	Jail      int64
}

// GuildSettings is one guild's moderation configuration.
type GuildSettings struct {
	GuildID string
	RoleID  string
	Floor   ModeDurations
	Circle  ModeDurations
}

// DefaultSettings returns the stock configuration for a guild.
func DefaultSettings(guildID string) GuildSettings {
	return GuildSettings{
		GuildID: guildID,
		Floor:   ModeDurations{Vote: 15, Result: 15, Turn: 60, Extension: 30, Pause: 4, Jail: 90},
		Circle:  ModeDurations{Vote: 15, Result: 15, Turn: 60, Extension: 30, Pause: 10, Jail: 90},
	}
}

// SettingsError reports an out-of-range duration.
type SettingsError struct {
	Field   string
	Message string
}

func (e *SettingsError) Error() string {
	return e.Message
}

// Validate checks every duration against its allowed range.
func (s GuildSettings) Validate() error {
	for _, mode := range []struct {
		name string
		d    ModeDurations
	}{{"floor", s.Floor}, {"circle", s.Circle}} {
		checks := []struct {
			field    string
			value    int64
			min, max int64
		}{
			{"vote", mode.d.Vote, 5, 120},
			{"result", mode.d.Result, 5, 120},
			{"turn", mode.d.Turn, 15, 3600},
			{"extension", mode.d.Extension, 5, 600},
			{"pause", mode.d.Pause, 1, 30},
			{"jail", mode.d.Jail, 10, 3600},
		}
		for _, c := range checks {
			if c.value < c.min || c.value > c.max {
				return &SettingsError{
					Field: mode.name + "." + c.field,
					Message: fmt.Sprintf("%s %s must be between %d and %d seconds, got %d",
						mode.name, c.field, c.min, c.max, c.value),
				}
			}
		}
	}
	return nil
}

func seconds(n int64) time.Duration {
	return time.Duration(n) * time.Second
}

// effective folds the result pause into the windows that must contain it.
func (d ModeDurations) effective() (vote, turn, extension time.Duration) {
	vote = seconds(d.Vote + d.Result)
	turn = seconds(d.Turn + d.Vote + d.Result)
	extension = seconds(d.Extension + d.Vote + d.Result)
	return
}

// FloorOptions derives the open-floor engine options.
func (s GuildSettings) FloorOptions() (floor.Options, floor.SchedulerOptions) {
	vote, turn, extension := s.Floor.effective()
	opts := floor.Options{
		TurnLimit:         turn,
		PauseDuration:     seconds(s.Floor.Pause),
		WarningOffset:     vote,
		VotePadding:       seconds(s.Floor.Result),
		ExtensionDuration: extension,
		JailDuration:      seconds(s.Floor.Jail),
	}
	sched := floor.SchedulerOptions{
		JailDuration:        seconds(s.Floor.Jail),
		ActiveUserWeight:    0.8,
		PassiveUserWeight:   0.2,
		InitialPeriodFactor: 2,
		ActiveUserThreshold: 30 * time.Second,
		BreathingFactor:     1.1,
		VoterListenReq:      30 * time.Second,
		PeriodVoteRepeat:    turn,
		PeriodVoteDuration:  turn - opts.VotePadding,
	}
	return opts, sched
}

// CircleOptions derives the queue mode options.
func (s GuildSettings) CircleOptions() circle.Options {
	vote, turn, extension := s.Circle.effective()
	return circle.Options{
		TurnLimit:         turn,
		WarningOffset:     vote,
		TurnExtension:     extension,
		VotePadding:       seconds(s.Circle.Result),
		AutoNextThreshold: seconds(s.Circle.Pause),
	}
}
