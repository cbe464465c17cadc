package floor

import (
	"testing"
	"time"

	"vcwarden/internal/activity"
	"vcwarden/internal/room"
)

func testSchedulerOptions() SchedulerOptions {
	return SchedulerOptions{
		JailDuration:        90 * time.Second,
		ActiveUserWeight:    0.8,
		PassiveUserWeight:   0.2,
		InitialPeriodFactor: 2,
		ActiveUserThreshold: 30 * time.Second,
		BreathingFactor:     1.1,
		VoterListenReq:      30 * time.Second,
		PeriodVoteRepeat:    60 * time.Second,
		PeriodVoteDuration:  45 * time.Second,
	}
}

type schedulerFixture struct {
	sched    *Scheduler
	speaking *activity.Log
	deafened *activity.Log
	rooms    *room.Tracker
	ledger   *Ledger
	events   *Events
	clock    *fakeClock
}

func newSchedulerFixture() *schedulerFixture {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts := testOptions()
	speaking := activity.NewLogAt("speaking", clock.now)
	deafened := activity.NewLogAt("deafened", clock.now)
	rooms := room.NewTrackerAt(clock.now)
	ledger := NewLedger(opts.ExtensionDuration)
	ledger.now = clock.now
	evaluator := NewEvaluator(opts, speaking, ledger)
	evaluator.now = clock.now
	events := NewEvents()
	sched := NewScheduler(testSchedulerOptions(), opts, evaluator, ledger,
		speaking, rooms, deafened, events)
	sched.now = clock.now
	return &schedulerFixture{
		sched: sched, speaking: speaking, deafened: deafened,
		rooms: rooms, ledger: ledger, events: events, clock: clock,
	}
}

func (f *schedulerFixture) collect(kind EventKind) *[]Event {
	var got []Event
	f.events.On(kind, func(ev Event) {
		got = append(got, ev)
	})
	return &got
}

func TestInitialPeriodLength(t *testing.T) {
	f := newSchedulerFixture()
	if got := f.sched.PeriodLength(); got != 2*time.Minute {
		t.Fatalf("PeriodLength = %v, want 2m", got)
	}
}

func TestTickEmitsVotableWarning(t *testing.T) {
	f := newSchedulerFixture()
	start := f.clock.t
	f.rooms.Seed("alice", "chan-1", true, true)
	f.rooms.Seed("bob", "chan-1", true, true)
	f.speaking.Open("alice")
	f.clock.advance(40 * time.Second)

	warnings := f.collect(EventTurnLimitWarningVoteOpened)
	f.sched.Tick()

	if len(*warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(*warnings))
	}
	ev := (*warnings)[0]
	if ev.UserID != "alice" {
		t.Fatalf("warning for %s, want alice", ev.UserID)
	}
	if want := start.Add(45 * time.Second); !ev.Until.Equal(want) {
		t.Fatalf("Until = %v, want %v", ev.Until, want)
	}
	if len(ev.Voters) != 2 {
		t.Fatalf("Voters = %v, want both present users", ev.Voters)
	}
}

func TestTickEmitsTurnLimitReached(t *testing.T) {
	f := newSchedulerFixture()
	start := f.clock.t
	f.rooms.Seed("alice", "chan-1", true, true)
	f.speaking.Open("alice")
	f.clock.advance(61 * time.Second)

	reached := f.collect(EventTurnLimitReached)
	f.sched.Tick()

	if len(*reached) != 1 {
		t.Fatalf("got %d events, want 1", len(*reached))
	}
	if want := start.Add(60 * time.Second); !(*reached)[0].EndOfTurn.Equal(want) {
		t.Fatalf("EndOfTurn = %v, want %v", (*reached)[0].EndOfTurn, want)
	}
}

func TestTickRevokesStaleExtensions(t *testing.T) {
	f := newSchedulerFixture()
	f.rooms.Seed("bob", "chan-1", true, true)
	f.ledger.Grant("bob", f.clock.t)

	f.clock.advance(10 * time.Second)
	f.sched.Tick()

	if w := f.ledger.WindowOf("bob"); w.Count != 0 {
		t.Fatalf("inactive bob kept a live extension window: %+v", w)
	}
}

func TestClosePeriodAdaptsToBusyRoom(t *testing.T) {
	f := newSchedulerFixture()
	for _, id := range []string{"alice", "bob", "carol"} {
		f.rooms.Seed(id, "chan-1", true, true)
		f.speaking.Open(id)
	}
	f.clock.advance(35 * time.Second)
	for _, id := range []string{"alice", "bob", "carol"} {
		f.speaking.Close(id)
	}
	f.clock.advance(85 * time.Second)

	// three active speakers: weighted 2.4, scaled well past the floor
	next := f.sched.ClosePeriod()
	if next <= 2*time.Minute {
		t.Fatalf("next period length = %v, want above the 2m floor", next)
	}
	if next > 3*time.Minute {
		t.Fatalf("next period length = %v, unreasonably long", next)
	}
}

func TestClosePeriodKeepsFloorForQuietRoom(t *testing.T) {
	f := newSchedulerFixture()
	f.rooms.Seed("alice", "chan-1", true, true)
	f.clock.advance(2 * time.Minute)

	if next := f.sched.ClosePeriod(); next != 2*time.Minute {
		t.Fatalf("next period length = %v, want the 2m floor", next)
	}
}

func TestPeriodPhaseEmitsDominanceEvents(t *testing.T) {
	f := newSchedulerFixture()
	f.rooms.Seed("alice", "chan-1", true, true)
	f.rooms.Seed("bob", "chan-1", true, true)
	f.speaking.Open("alice")
	f.speaking.Open("bob")
	f.clock.advance(80 * time.Second)
	f.speaking.Close("bob") // 80s of 120s: 66%
	f.clock.advance(20 * time.Second)
	f.speaking.Close("alice") // 100s of 120s: 83%
	f.clock.advance(20 * time.Second)

	f.sched.ClosePeriod()
	reached := f.collect(EventPeriodLimitReached)
	warned := f.collect(EventPeriodLimitWarning)
	f.sched.Tick()

	if len(*reached) != 1 || (*reached)[0].UserID != "alice" {
		t.Fatalf("reached = %+v, want one event for alice", *reached)
	}
	if (*reached)[0].Percent <= 75 {
		t.Fatalf("Percent = %d, want above 75", (*reached)[0].Percent)
	}
	if len(*warned) != 1 || (*warned)[0].UserID != "bob" {
		t.Fatalf("warned = %+v, want one event for bob", *warned)
	}
}

func TestPeriodImmunityForActiveSpeaker(t *testing.T) {
	f := newSchedulerFixture()
	f.rooms.Seed("alice", "chan-1", true, true)
	f.speaking.Open("alice")
	f.clock.advance(2 * time.Minute)

	// alice holds a turn at the boundary: her dominance was already
	// adjudicated by the turn machinery
	f.sched.ClosePeriod()
	reached := f.collect(EventPeriodLimitReached)
	warned := f.collect(EventPeriodLimitWarning)
	f.sched.Tick()

	if len(*reached) != 0 || len(*warned) != 0 {
		t.Fatalf("immune speaker still adjudicated: reached=%v warned=%v", *reached, *warned)
	}
}
