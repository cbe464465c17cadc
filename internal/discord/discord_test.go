package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"vcwarden/internal/models"
	"vcwarden/internal/session"
)

func TestParseMode(t *testing.T) {
	cases := map[string]session.Mode{
		"floor":  session.ModeFloor,
		"circle": session.ModeCircle,
		"stage":  session.ModeStage,
		"idle":   session.ModeIdle,
	}
	for name, want := range cases {
		got, ok := parseMode(name)
		if !ok || got != want {
			t.Fatalf("parseMode(%s) = %s, %t", name, got, ok)
		}
	}
	if _, ok := parseMode("karaoke"); ok {
		t.Fatalf("unknown mode accepted")
	}
}

func TestSetDuration(t *testing.T) {
	s := models.DefaultSettings("guild-1")
	if !setDuration(&s, "floor", "turn", 120) {
		t.Fatalf("floor turn should be settable")
	}
	if s.Floor.Turn != 120 {
		t.Fatalf("Floor.Turn = %d, want 120", s.Floor.Turn)
	}
	if !setDuration(&s, "circle", "pause", 5) {
		t.Fatalf("circle pause should be settable")
	}
	if s.Circle.Pause != 5 {
		t.Fatalf("Circle.Pause = %d, want 5", s.Circle.Pause)
	}
	if setDuration(&s, "floor", "volume", 1) {
		t.Fatalf("unknown field accepted")
	}
	if setDuration(&s, "wave", "turn", 1) {
		t.Fatalf("unknown mode accepted")
	}
}

func TestSpeakerArg(t *testing.T) {
	if got := speakerArg([]string{"<@123>"}); got != "123" {
		t.Fatalf("speakerArg = %s, want 123", got)
	}
	if got := speakerArg([]string{"floor", "words"}); got != "" {
		t.Fatalf("speakerArg = %s, want empty", got)
	}
}

type recordingMuter struct {
	calls []string
}

func (m *recordingMuter) GuildMemberMute(guildID, userID string, mute bool, options ...discordgo.RequestOption) error {
	m.calls = append(m.calls, userID)
	return nil
}

func TestGuildMuterSkipsRedundantCalls(t *testing.T) {
	api := &recordingMuter{}
	g := newGuildMuter(api, "guild-1")

	if err := g.SetMuted("alice", true, "test"); err != nil {
		t.Fatalf("SetMuted: %v", err)
	}
	if err := g.SetMuted("alice", true, "test"); err != nil {
		t.Fatalf("SetMuted: %v", err)
	}
	if len(api.calls) != 1 {
		t.Fatalf("api called %d times, want 1", len(api.calls))
	}
	if err := g.SetMuted("alice", false, "test"); err != nil {
		t.Fatalf("SetMuted: %v", err)
	}
	if len(api.calls) != 2 {
		t.Fatalf("api called %d times, want 2", len(api.calls))
	}
}

func TestSpeechDetectorEdges(t *testing.T) {
	d := &speechDetector{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// two loud frames are not enough
	for i := 0; i < startFrames-1; i++ {
		if d.Feed(1000, now) {
			t.Fatalf("started after %d frames", i+1)
		}
		now = now.Add(20 * time.Millisecond)
	}
	if !d.Feed(1000, now) {
		t.Fatalf("should start after %d loud frames", startFrames)
	}
	if d.Feed(1000, now.Add(20*time.Millisecond)) {
		t.Fatalf("start edge fired twice")
	}

	// no stop until the hangover passes
	if d.Sweep(now.Add(100 * time.Millisecond)) {
		t.Fatalf("stopped before the hangover")
	}
	if !d.Sweep(now.Add(speechHangover + 100*time.Millisecond)) {
		t.Fatalf("should stop after the hangover")
	}
	if d.Sweep(now.Add(speechHangover + 200*time.Millisecond)) {
		t.Fatalf("stop edge fired twice")
	}
}

func TestSpeechDetectorQuietFramesResetRun(t *testing.T) {
	d := &speechDetector{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.Feed(1000, now)
	d.Feed(1000, now)
	d.Feed(10, now) // quiet frame breaks the run
	if d.Feed(1000, now) {
		t.Fatalf("one loud frame after a reset should not start")
	}
}

func TestRMS(t *testing.T) {
	if got := rms(nil); got != 0 {
		t.Fatalf("rms(nil) = %f", got)
	}
	if got := rms([]int16{0, 0, 0}); got != 0 {
		t.Fatalf("rms(silence) = %f", got)
	}
	if got := rms([]int16{1000, -1000}); got != 1000 {
		t.Fatalf("rms = %f, want 1000", got)
	}
}
