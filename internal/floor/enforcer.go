package floor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"vcwarden/internal/vote"
	"vcwarden/pkg/utils"
)

// Muter mutes or unmutes one user in the room.
type Muter interface {
	SetMuted(userID string, muted bool, reason string) error
}

type userState struct {
	voteOpenUntil time.Time
	jailedUntil   time.Time
}

// Enforcer reacts to scheduler events: it opens veto ballots on turn
// warnings, grants extensions when no veto lands, sends over-limit speakers
// to cooldown, and runs the period cooldown vote. All handlers run under the
// session mutex; ballot collection happens in goroutines that re-acquire it
// to apply the outcome.
type Enforcer struct {
	turn  Options
	sched SchedulerOptions

	extensions *Ledger
	ballots    vote.Collector
	announcer  vote.Announcer
	muter      Muter

	users       map[string]*userState
	periodArmed bool

	ctx context.Context
	mu  sync.Locker
	wg  sync.WaitGroup
	now func() time.Time
}

func NewEnforcer(ctx context.Context, mu sync.Locker, turn Options, sched SchedulerOptions,
	extensions *Ledger, ballots vote.Collector, announcer vote.Announcer, muter Muter) *Enforcer {
	return &Enforcer{
		turn:        turn,
		sched:       sched,
		extensions:  extensions,
		ballots:     ballots,
		announcer:   announcer,
		muter:       muter,
		users:       make(map[string]*userState),
		periodArmed: true,
		ctx:         ctx,
		mu:          mu,
		now:         time.Now,
	}
}

// Attach registers the enforcer's handlers on the event table.
func (e *Enforcer) Attach(events *Events) {
	events.On(EventTurnLimitWarningVoteOpened, e.handleTurnWarning)
	events.On(EventTurnLimitReached, e.handleTurnLimit)
	events.On(EventPeriodLimitReached, e.handlePeriodLimit)
}

// Wait blocks until every in-flight ballot goroutine has resolved. Used by
// tests and teardown.
func (e *Enforcer) Wait() {
	e.wg.Wait()
}

func (e *Enforcer) stateOf(userID string) *userState {
	st, ok := e.users[userID]
	if !ok {
		st = &userState{}
		e.users[userID] = st
	}
	return st
}

func (e *Enforcer) handleTurnWarning(ev Event) {
	now := e.now()
	st := e.stateOf(ev.UserID)
	if now.Before(st.jailedUntil) {
		return
	}
	// The scheduler re-emits this event every tick of the warning window;
	// the vote window timestamp dedupes them.
	if st.voteOpenUntil.Equal(ev.Until) {
		return
	}
	st.voteOpenUntil = ev.Until

	voters := ev.Voters[:0:0]
	for _, id := range ev.Voters {
		if id == ev.UserID {
			continue
		}
		if vs, ok := e.users[id]; ok && now.Before(vs.jailedUntil) {
			continue
		}
		voters = append(voters, id)
	}
	timeout := ev.Until.Sub(now)
	if timeout <= 0 {
		return
	}
	prompt := vote.Prompt{
		Kind:     vote.KindVeto,
		TargetID: ev.UserID,
		Voters:   voters,
		Majority: vote.Majority(len(voters)),
		Timeout:  timeout,
		Text: fmt.Sprintf("%s is close to the turn limit. Vote to deny an extension.",
			utils.FormatUserMention(ev.UserID)),
		ReachedText: fmt.Sprintf("The room voted against an extension. %s, please wrap up.",
			utils.FormatUserMention(ev.UserID)),
	}
	endOfTurn := ev.EndOfTurn

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		vetoed, err := e.ballots.Collect(e.ctx, prompt)
		if err != nil {
			log.Printf("veto ballot for %s failed: %v", prompt.TargetID, err)
			return
		}
		if vetoed {
			vetoVotesReached.Inc()
			return
		}
		if e.ctx.Err() != nil {
			return
		}
		e.mu.Lock()
		e.extensions.Grant(prompt.TargetID, endOfTurn)
		e.mu.Unlock()
		extensionsGranted.Inc()
		e.announcer.Announce(fmt.Sprintf("%s received a speaking extension.",
			utils.FormatUserMention(prompt.TargetID)))
	}()
	vetoVotesOpened.Inc()
}

func (e *Enforcer) handleTurnLimit(ev Event) {
	now := e.now()
	if now.Before(ev.EndOfTurn) {
		return
	}
	st := e.stateOf(ev.UserID)
	if now.Before(st.jailedUntil) {
		return
	}
	e.jail(ev.UserID, e.sched.JailDuration)
}

func (e *Enforcer) handlePeriodLimit(ev Event) {
	if !e.periodArmed {
		return
	}
	e.periodArmed = false

	now := e.now()
	st := e.stateOf(ev.UserID)
	postponeUntil := st.jailedUntil
	if st.voteOpenUntil.After(postponeUntil) {
		postponeUntil = st.voteOpenUntil
	}
	if now.Before(postponeUntil) {
		// A cooldown or veto ballot is still pending for this user; try
		// again once it has run its course.
		utils.AfterFunc(e.ctx, postponeUntil.Sub(now), func() {
			e.mu.Lock()
			e.periodArmed = true
			e.mu.Unlock()
		})
		return
	}

	utils.AfterFunc(e.ctx, e.sched.PeriodVoteRepeat, func() {
		e.mu.Lock()
		e.periodArmed = true
		e.mu.Unlock()
	})

	voters := ev.Voters[:0:0]
	for _, id := range ev.Voters {
		if id != ev.UserID {
			voters = append(voters, id)
		}
	}
	prompt := vote.Prompt{
		Kind:     vote.KindCooldown,
		TargetID: ev.UserID,
		Voters:   voters,
		Majority: vote.Majority(len(voters)),
		Timeout:  e.sched.PeriodVoteDuration,
		Text: fmt.Sprintf("%s has held the floor for %d%% of the period. Vote to send them to cooldown.",
			utils.FormatUserMention(ev.UserID), ev.Percent),
		FailedText: "The cooldown vote did not pass.",
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		reached, err := e.ballots.Collect(e.ctx, prompt)
		if err != nil {
			log.Printf("cooldown ballot for %s failed: %v", prompt.TargetID, err)
			return
		}
		if !reached {
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.now().Before(e.stateOf(prompt.TargetID).jailedUntil) {
			return
		}
		e.jail(prompt.TargetID, e.sched.JailDuration)
	}()
	cooldownVotesOpened.Inc()
}

// jail mutes the user for d and schedules the release. Mute failures are
// logged but do not cancel the cooldown; the bookkeeping still suppresses
// further adjudication for its duration.
func (e *Enforcer) jail(userID string, d time.Duration) {
	st := e.stateOf(userID)
	st.jailedUntil = e.now().Add(d)
	if err := e.muter.SetMuted(userID, true, "cooldown"); err != nil {
		log.Printf("muting %s for cooldown: %v", userID, err)
	}
	e.announcer.Announce(fmt.Sprintf("%s is on cooldown for %s.",
		utils.FormatUserMention(userID), utils.FormatDuration(d)))
	jailsStarted.Inc()

	utils.AfterFunc(e.ctx, d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if err := e.muter.SetMuted(userID, false, "cooldown over"); err != nil {
			log.Printf("unmuting %s after cooldown: %v", userID, err)
		}
		e.announcer.Announce(fmt.Sprintf("%s can speak again.", utils.FormatUserMention(userID)))
	})
}

// JailedUsers returns everyone currently on cooldown.
func (e *Enforcer) JailedUsers() []string {
	now := e.now()
	var jailed []string
	for id, st := range e.users {
		if now.Before(st.jailedUntil) {
			jailed = append(jailed, id)
		}
	}
	return jailed
}
