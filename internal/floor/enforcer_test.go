package floor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"vcwarden/internal/vote"
)

type fakeCollector struct {
	mu      sync.Mutex
	prompts []vote.Prompt
	reached bool
	err     error
}

func (c *fakeCollector) Collect(ctx context.Context, p vote.Prompt) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, p)
	return c.reached, c.err
}

func (c *fakeCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

func (c *fakeCollector) last() vote.Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompts[len(c.prompts)-1]
}

type fakeAnnouncer struct {
	mu   sync.Mutex
	msgs []string
}

func (a *fakeAnnouncer) Announce(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, text)
}

func (a *fakeAnnouncer) contains(substr string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, m := range a.msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type fakeMuter struct {
	mu    sync.Mutex
	muted map[string]bool
}

func (m *fakeMuter) SetMuted(userID string, muted bool, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.muted == nil {
		m.muted = make(map[string]bool)
	}
	m.muted[userID] = muted
	return nil
}

func (m *fakeMuter) isMuted(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted[userID]
}

type enforcerFixture struct {
	enforcer  *Enforcer
	events    *Events
	ledger    *Ledger
	collector *fakeCollector
	announcer *fakeAnnouncer
	muter     *fakeMuter
	mu        *sync.Mutex
	cancel    context.CancelFunc
}

func newEnforcerFixture(t *testing.T) *enforcerFixture {
	t.Helper()
	opts := testOptions()
	sched := testSchedulerOptions()
	sched.JailDuration = time.Hour // releases never fire during a test

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := &enforcerFixture{
		events:    NewEvents(),
		ledger:    NewLedger(opts.ExtensionDuration),
		collector: &fakeCollector{},
		announcer: &fakeAnnouncer{},
		muter:     &fakeMuter{},
		mu:        &sync.Mutex{},
		cancel:    cancel,
	}
	f.enforcer = NewEnforcer(ctx, f.mu, opts, sched, f.ledger,
		f.collector, f.announcer, f.muter)
	f.enforcer.Attach(f.events)
	return f
}

func warningEvent(userID string) Event {
	now := time.Now()
	return Event{
		Kind:      EventTurnLimitWarningVoteOpened,
		UserID:    userID,
		Until:     now.Add(5 * time.Second),
		EndOfTurn: now.Add(20 * time.Second),
		Voters:    []string{userID, "bob", "carol"},
	}
}

func TestTurnWarningGrantsExtension(t *testing.T) {
	f := newEnforcerFixture(t)
	f.collector.reached = false // no veto majority

	f.events.Emit(warningEvent("alice"))
	f.enforcer.Wait()

	p := f.collector.last()
	if p.Kind != vote.KindVeto || p.TargetID != "alice" {
		t.Fatalf("prompt = %+v", p)
	}
	if len(p.Voters) != 2 {
		t.Fatalf("target should not be in the electorate: %v", p.Voters)
	}
	f.mu.Lock()
	count := f.ledger.WindowOf("alice").Count
	f.mu.Unlock()
	if count != 1 {
		t.Fatalf("extension count = %d, want 1", count)
	}
	if !f.announcer.contains("extension") {
		t.Fatalf("no extension announcement: %v", f.announcer.msgs)
	}
}

func TestTurnWarningVetoed(t *testing.T) {
	f := newEnforcerFixture(t)
	f.collector.reached = true

	f.events.Emit(warningEvent("alice"))
	f.enforcer.Wait()

	f.mu.Lock()
	count := f.ledger.WindowOf("alice").Count
	f.mu.Unlock()
	if count != 0 {
		t.Fatalf("vetoed turn still got an extension")
	}
}

func TestTurnWarningDeduplicated(t *testing.T) {
	f := newEnforcerFixture(t)
	ev := warningEvent("alice")

	f.events.Emit(ev)
	f.events.Emit(ev) // same vote window, re-emitted on the next tick
	f.enforcer.Wait()

	if got := f.collector.count(); got != 1 {
		t.Fatalf("opened %d ballots, want 1", got)
	}
}

func TestCollectorErrorTakesNoAction(t *testing.T) {
	f := newEnforcerFixture(t)
	f.collector.err = context.DeadlineExceeded

	f.events.Emit(warningEvent("alice"))
	f.enforcer.Wait()

	f.mu.Lock()
	count := f.ledger.WindowOf("alice").Count
	f.mu.Unlock()
	if count != 0 {
		t.Fatalf("failed ballot still granted an extension")
	}
}

type shutdownCollector struct{}

func (shutdownCollector) Collect(ctx context.Context, p vote.Prompt) (bool, error) {
	<-ctx.Done()
	return false, nil
}

func TestBallotResolvedByShutdownGrantsNothing(t *testing.T) {
	opts := testOptions()
	sched := testSchedulerOptions()
	ctx, cancel := context.WithCancel(context.Background())
	mu := &sync.Mutex{}
	ledger := NewLedger(opts.ExtensionDuration)
	announcer := &fakeAnnouncer{}
	events := NewEvents()
	enf := NewEnforcer(ctx, mu, opts, sched, ledger,
		shutdownCollector{}, announcer, &fakeMuter{})
	enf.Attach(events)

	events.Emit(warningEvent("alice"))
	cancel()
	enf.Wait()

	mu.Lock()
	count := ledger.WindowOf("alice").Count
	mu.Unlock()
	if count != 0 {
		t.Fatalf("ballot resolved by shutdown still granted an extension")
	}
	if announcer.contains("extension") {
		t.Fatalf("extension announced after shutdown: %v", announcer.msgs)
	}
}

func TestTurnLimitJails(t *testing.T) {
	f := newEnforcerFixture(t)

	f.events.Emit(Event{
		Kind:      EventTurnLimitReached,
		UserID:    "alice",
		EndOfTurn: time.Now().Add(-time.Second),
	})

	if !f.muter.isMuted("alice") {
		t.Fatalf("alice should be muted")
	}
	jailed := f.enforcer.JailedUsers()
	if len(jailed) != 1 || jailed[0] != "alice" {
		t.Fatalf("JailedUsers = %v, want [alice]", jailed)
	}
}

func TestWarningSkippedWhileJailed(t *testing.T) {
	f := newEnforcerFixture(t)
	f.events.Emit(Event{
		Kind:      EventTurnLimitReached,
		UserID:    "alice",
		EndOfTurn: time.Now().Add(-time.Second),
	})

	f.events.Emit(warningEvent("alice"))
	f.enforcer.Wait()

	if got := f.collector.count(); got != 0 {
		t.Fatalf("opened %d ballots for a jailed user, want 0", got)
	}
}

func TestCooldownVoteJailsOnMajority(t *testing.T) {
	f := newEnforcerFixture(t)
	f.collector.reached = true

	f.events.Emit(Event{
		Kind:    EventPeriodLimitReached,
		UserID:  "alice",
		Percent: 80,
		Voters:  []string{"alice", "bob", "carol"},
	})
	f.enforcer.Wait()

	p := f.collector.last()
	if p.Kind != vote.KindCooldown {
		t.Fatalf("prompt kind = %s, want cooldown", p.Kind)
	}
	if !f.muter.isMuted("alice") {
		t.Fatalf("alice should be on cooldown")
	}
}

func TestCooldownVoteNotReached(t *testing.T) {
	f := newEnforcerFixture(t)
	f.collector.reached = false

	f.events.Emit(Event{
		Kind:    EventPeriodLimitReached,
		UserID:  "alice",
		Percent: 80,
		Voters:  []string{"bob"},
	})
	f.enforcer.Wait()

	if f.muter.isMuted("alice") {
		t.Fatalf("alice jailed without a majority")
	}
}

func TestPeriodVoteDisarmedWhileRunning(t *testing.T) {
	f := newEnforcerFixture(t)
	f.collector.reached = false

	ev := Event{
		Kind:    EventPeriodLimitReached,
		UserID:  "alice",
		Percent: 80,
		Voters:  []string{"bob"},
	}
	f.events.Emit(ev)
	f.events.Emit(ev) // re-emitted every tick while above the threshold
	f.enforcer.Wait()

	if got := f.collector.count(); got != 1 {
		t.Fatalf("opened %d cooldown ballots, want 1", got)
	}
}
