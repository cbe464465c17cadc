package floor

import (
	"context"
	"sync"
	"time"

	"vcwarden/internal/activity"
	"vcwarden/internal/room"
)

// SchedulerOptions tune the adaptive period machinery. The weights and
// factors are constants of the mode; the durations derive from guild
// settings.
type SchedulerOptions struct {
	JailDuration        time.Duration
	ActiveUserWeight    float64
	PassiveUserWeight   float64
	InitialPeriodFactor int
	ActiveUserThreshold time.Duration
	BreathingFactor     float64
	VoterListenReq      time.Duration
	PeriodVoteRepeat    time.Duration
	PeriodVoteDuration  time.Duration
}

// Period is a trailing-window snapshot of smoothed speaking time per
// present user, taken at a period boundary.
type Period struct {
	Start  time.Time
	End    time.Time
	Spoken map[string]time.Duration
}

// Scheduler runs the open-floor timers: a fixed per-second tick that
// classifies active turns and emits threshold events, and a self-adapting
// period timer that measures sustained dominance.
type Scheduler struct {
	opts SchedulerOptions
	turn Options

	evaluator  *Evaluator
	extensions *Ledger
	speaking   *activity.Log
	rooms      *room.Tracker
	deafened   *activity.Log
	events     *Events

	periodLength time.Duration
	periods      []Period
	immune       map[string]struct{}

	now func() time.Time
}

func NewScheduler(opts SchedulerOptions, turn Options, evaluator *Evaluator, extensions *Ledger,
	speaking *activity.Log, rooms *room.Tracker, deafened *activity.Log, events *Events) *Scheduler {
	return &Scheduler{
		opts:         opts,
		turn:         turn,
		evaluator:    evaluator,
		extensions:   extensions,
		speaking:     speaking,
		rooms:        rooms,
		deafened:     deafened,
		events:       events,
		periodLength: turn.TurnLimit * time.Duration(opts.InitialPeriodFactor),
		immune:       make(map[string]struct{}),
		now:          time.Now,
	}
}

// Run drives the tick and period timers until ctx is cancelled. Every
// callback locks mu, so scheduler state only ever mutates under the owning
// session's mutex.
func (s *Scheduler) Run(ctx context.Context, mu sync.Locker) {
	go s.runTicks(ctx, mu)
	go s.runPeriods(ctx, mu)
}

func (s *Scheduler) runTicks(ctx context.Context, mu sync.Locker) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mu.Lock()
			s.Tick()
			mu.Unlock()
		}
	}
}

func (s *Scheduler) runPeriods(ctx context.Context, mu sync.Locker) {
	mu.Lock()
	length := s.periodLength
	mu.Unlock()
	timer := time.NewTimer(length)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			mu.Lock()
			next := s.ClosePeriod()
			mu.Unlock()
			if next == 0 {
				return
			}
			timer.Reset(next)
		}
	}
}

// Tick is one per-second pass: drop stale immunity and extensions, classify
// every active turn, and, once at least one period has completed, check the
// period thresholds.
func (s *Scheduler) Tick() {
	now := s.now()
	active := s.evaluator.ActiveUsers()

	for id := range s.immune {
		if _, ok := active[id]; !ok {
			delete(s.immune, id)
		}
	}
	for _, id := range s.extensions.Users() {
		if _, ok := active[id]; !ok && s.extensions.WindowOf(id).Live(now) {
			s.extensions.Revoke(id)
		}
	}

	s.turnPhase(now)
	if len(s.periods) > 0 {
		s.periodPhase()
	}
}

func (s *Scheduler) turnPhase(now time.Time) {
	statuses := s.evaluator.EvaluateActive()
	if len(statuses) == 0 {
		return
	}
	voters := s.rooms.EligibleVoters(s.opts.VoterListenReq, s.deafened)
	for _, st := range statuses {
		switch {
		case st.OverLimit:
			s.events.Emit(Event{
				Kind:      EventTurnLimitReached,
				UserID:    st.UserID,
				ActiveFor: st.Elapsed,
				EndOfTurn: st.EndOfTurn,
			})
		case st.VotableWarning:
			s.events.Emit(Event{
				Kind:      EventTurnLimitWarningVoteOpened,
				UserID:    st.UserID,
				ActiveFor: st.Elapsed,
				Until:     st.Until,
				EndOfTurn: st.EndOfTurn,
				Voters:    voters,
			})
		}
	}
}

func (s *Scheduler) periodPhase() {
	for id, percent := range s.ActivityPercent() {
		if _, immune := s.immune[id]; immune {
			continue
		}
		switch {
		case percent > 75:
			s.events.Emit(Event{
				Kind:    EventPeriodLimitReached,
				UserID:  id,
				Percent: percent,
				Voters:  s.rooms.EligibleVoters(s.opts.VoterListenReq, s.deafened),
			})
		case percent > 65:
			s.events.Emit(Event{
				Kind:    EventPeriodLimitWarning,
				UserID:  id,
				Percent: percent,
			})
		}
	}
}

// ClosePeriod handles a period boundary: everyone currently holding a turn
// becomes immune for the next period instance (their dominance was already
// adjudicated), the trailing window is snapshotted, and the next period
// length is derived from how busy the room was. Returns the next length;
// zero halts the cycle.
func (s *Scheduler) ClosePeriod() time.Duration {
	for id := range s.evaluator.ActiveUsers() {
		s.immune[id] = struct{}{}
	}
	period := s.PeriodActivity()
	s.periods = append(s.periods, period)
	s.periodLength = s.nextPeriodLength(s.weightedActivity(period))
	return s.periodLength
}

// PeriodActivity snapshots smoothed speaking time per present user over the
// trailing period window.
func (s *Scheduler) PeriodActivity() Period {
	now := s.now()
	from := now.Add(-s.periodLength)
	spoken := make(map[string]time.Duration)
	for _, id := range s.rooms.Present() {
		raw := s.speaking.InRange(id, from, now)
		smoothed := SmoothIntervals(raw, s.turn.PauseDuration)
		spoken[id] = activity.TotalDuration(smoothed)
	}
	return Period{Start: from, End: now, Spoken: spoken}
}

// ActivityPercent returns each present user's share of the current period
// spent speaking, in whole percent.
func (s *Scheduler) ActivityPercent() map[string]int {
	period := s.PeriodActivity()
	percents := make(map[string]int, len(period.Spoken))
	for id, spoken := range period.Spoken {
		percents[id] = int(int64(spoken) * 100 / int64(s.periodLength))
	}
	return percents
}

// weightedActivity scores the room: speakers above the activity threshold
// weigh in as active, the rest as passive.
func (s *Scheduler) weightedActivity(p Period) float64 {
	var weight float64
	for _, spoken := range p.Spoken {
		if spoken >= s.opts.ActiveUserThreshold {
			weight += s.opts.ActiveUserWeight
		} else {
			weight += s.opts.PassiveUserWeight
		}
	}
	return weight
}

// nextPeriodLength scales the turn limit by the room's weighted activity
// and the breathing factor, floored at twice the turn limit.
func (s *Scheduler) nextPeriodLength(weighted float64) time.Duration {
	if weighted < 1 {
		weighted = 1
	}
	scaled := time.Duration(float64(s.turn.TurnLimit) * weighted * s.opts.BreathingFactor)
	if lowest := 2 * s.turn.TurnLimit; scaled < lowest {
		return lowest
	}
	return scaled
}

// PeriodLength returns the current adaptive period length.
func (s *Scheduler) PeriodLength() time.Duration {
	return s.periodLength
}

// CompletedPeriods counts period boundaries seen so far.
func (s *Scheduler) CompletedPeriods() int {
	return len(s.periods)
}
