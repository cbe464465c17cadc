package room

import (
	"sort"
	"testing"
	"time"

	"vcwarden/internal/activity"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func newTestTracker() (*Tracker, *activity.Log, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewTrackerAt(clock.now), activity.NewLogAt("deafened", clock.now), clock
}

func TestPresence(t *testing.T) {
	tr, _, _ := newTestTracker()
	tr.Seed("alice", "chan-1", true, true)
	tr.SetPresent("bob", "chan-1")
	if !tr.IsPresent("alice") || !tr.IsPresent("bob") {
		t.Fatalf("expected both present")
	}
	tr.SetAbsent("bob")
	if tr.IsPresent("bob") {
		t.Fatalf("bob should be absent")
	}
	present := tr.Present()
	if len(present) != 1 || present[0] != "alice" {
		t.Fatalf("Present = %v, want [alice]", present)
	}
}

func TestUnknownUserTolerated(t *testing.T) {
	tr, _, _ := newTestTracker()
	tr.SetAbsent("ghost")
	tr.SetCanSpeak("ghost", true)
	tr.SetCanListen("ghost", true)
	if _, ok := tr.StateOf("ghost"); ok {
		t.Fatalf("ghost should not exist")
	}
}

func TestEligibleVotersRequiresListenTime(t *testing.T) {
	tr, deafened, clock := newTestTracker()
	tr.Seed("alice", "chan-1", true, true)
	clock.t = clock.t.Add(40 * time.Second)
	tr.Seed("bob", "chan-1", true, true)

	// alice has 40s in channel, bob 10s
	clock.t = clock.t.Add(10 * time.Second)
	voters := tr.EligibleVoters(30*time.Second, deafened)
	if len(voters) != 1 || voters[0] != "alice" {
		t.Fatalf("voters = %v, want [alice]", voters)
	}
}

func TestEligibleVotersExcludesDeafandDeafened(t *testing.T) {
	tr, deafened, clock := newTestTracker()
	tr.Seed("alice", "chan-1", true, true)
	tr.Seed("bob", "chan-1", true, false)
	tr.Seed("carol", "chan-1", true, true)

	// carol spent most of her time deafened
	deafened.Open("carol")
	clock.t = clock.t.Add(50 * time.Second)
	deafened.Close("carol")
	clock.t = clock.t.Add(10 * time.Second)
	tr.SetCanListen("carol", true)

	voters := tr.EligibleVoters(30*time.Second, deafened)
	sort.Strings(voters)
	if len(voters) != 1 || voters[0] != "alice" {
		t.Fatalf("voters = %v, want [alice]", voters)
	}
}
