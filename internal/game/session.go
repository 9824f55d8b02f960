package game

import (
	"time"

	"github.com/verte-zerg/droptap/internal/clock"
	"github.com/verte-zerg/droptap/internal/profile"
)

// DefaultDropTTL is how long an unclicked drop stays in play.
const DefaultDropTTL = 3500 * time.Millisecond

// Options configures a Session.
type Options struct {
	Registry  *profile.Registry
	Scheduler clock.Scheduler
	Random    RandomSource
	Listener  Listener
	// DropTTL is the lifetime of an unclicked drop. Zero means DefaultDropTTL.
	DropTTL time.Duration
}

// Session is the game state machine. All methods must be called from the
// goroutine that advances its scheduler.
type Session struct {
	registry *profile.Registry
	sched    clock.Scheduler
	listener Listener
	dropTTL  time.Duration

	state     State
	outcome   Outcome
	spawner   *Spawner
	countdown clock.Timer
	targets   map[TargetID]*Target

	tally     Tally
	startedAt time.Time
	endedAt   time.Time
}

// NewSession returns an idle session showing the default profile.
func NewSession(opts Options) *Session {
	if opts.Registry == nil {
		opts.Registry = profile.Builtin()
	}
	if opts.Random == nil {
		opts.Random = NewRandomSource(0)
	}
	if opts.Listener == nil {
		opts.Listener = NopListener{}
	}
	if opts.DropTTL <= 0 {
		opts.DropTTL = DefaultDropTTL
	}
	s := &Session{
		registry: opts.Registry,
		sched:    opts.Scheduler,
		listener: opts.Listener,
		dropTTL:  opts.DropTTL,
		state:    NewState(opts.Registry.Default()),
		targets:  map[TargetID]*Target{},
	}
	s.spawner = NewSpawner(opts.Scheduler, opts.Random, s.handleSpawn)
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State {
	return s.state
}

// Outcome returns the outcome of the last ended session.
func (s *Session) Outcome() Outcome {
	return s.outcome
}

// Tally returns the counters of the current or last session.
func (s *Session) Tally() Tally {
	return s.tally
}

// LiveTargets returns the number of unresolved targets.
func (s *Session) LiveTargets() int {
	return len(s.targets)
}

// StartSession starts a session with the named profile. Unknown names use the
// default profile. It is a no-op while a session is running.
func (s *Session) StartSession(name string) {
	if s.state.Phase == Running {
		return
	}
	p := s.registry.Get(name)
	s.state = NewState(p)
	s.state.Phase = Running
	s.outcome = NoOutcome
	s.tally = Tally{PeakMultiplier: 1}
	s.startedAt = s.sched.Now()
	s.endedAt = time.Time{}

	s.listener.OnTick(s.state.RemainingSeconds)
	s.listener.OnMultiplierChanged(s.state.Multiplier)

	s.countdown = s.sched.Every(time.Second, s.tick)
	s.spawner.Start(p)
}

// ResetToIdle shows the defaults of the named profile without starting the
// clock. It is a no-op while a session is running.
func (s *Session) ResetToIdle(name string) {
	if s.state.Phase == Running {
		return
	}
	s.state = NewState(s.registry.Get(name))
	s.outcome = NoOutcome
	s.tally = Tally{}
	s.listener.OnTick(s.state.RemainingSeconds)
	s.listener.OnMultiplierChanged(s.state.Multiplier)
}

// Activate resolves a live target as clicked and applies its score effect.
// Unknown or already resolved targets, and calls outside a running session,
// are ignored.
func (s *Session) Activate(id TargetID) {
	if s.state.Phase != Running {
		return
	}
	t, ok := s.targets[id]
	if !ok || !t.Resolve(Activated) {
		return
	}
	delete(s.targets, id)

	prevMultiplier := s.state.Multiplier
	var effect Effect
	s.state, effect = ApplyActivation(s.state, t.Kind)
	s.count(effect)

	s.listener.OnActivationResult(id, effect)
	if effect.NewMultiplier != prevMultiplier {
		s.listener.OnMultiplierChanged(effect.NewMultiplier)
	}
	if effect.TriggeredWin {
		s.end(Win)
	}
}

func (s *Session) count(e Effect) {
	if e.Kind == Bad {
		s.tally.BadHits++
		return
	}
	s.tally.GoodHits++
	if s.state.StreakCount > s.tally.BestStreak {
		s.tally.BestStreak = s.state.StreakCount
	}
	if s.state.Multiplier > s.tally.PeakMultiplier {
		s.tally.PeakMultiplier = s.state.Multiplier
	}
}

func (s *Session) tick() {
	if s.state.Phase != Running {
		return
	}
	s.state.RemainingSeconds--
	if s.state.RemainingSeconds < 0 {
		s.state.RemainingSeconds = 0
	}
	s.listener.OnTick(s.state.RemainingSeconds)
	if s.state.RemainingSeconds <= 0 {
		s.end(Lose)
	}
}

func (s *Session) handleSpawn(t *Target) {
	if s.state.Phase != Running {
		return
	}
	id := t.ID
	t.timeout = s.sched.AfterFunc(s.dropTTL, func() { s.expire(id) })
	s.targets[id] = t
	s.tally.Spawned++
	s.listener.OnSpawn(t)
}

func (s *Session) expire(id TargetID) {
	if s.state.Phase != Running {
		return
	}
	t, ok := s.targets[id]
	if !ok || !t.Resolve(TimedOut) {
		return
	}
	delete(s.targets, id)
	if t.Kind == Bad {
		s.tally.ExpiredBad++
	} else {
		s.tally.ExpiredGood++
	}
	s.listener.OnTargetExpired(id)
}

func (s *Session) end(outcome Outcome) {
	if s.state.Phase != Running {
		return
	}
	s.state.Phase = Ended
	s.outcome = outcome
	s.endedAt = s.sched.Now()
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	s.spawner.Stop()
	for id, t := range s.targets {
		t.Resolve(Cancelled)
		delete(s.targets, id)
	}
	s.listener.OnSessionEnded(Result{
		Outcome:          outcome,
		FinalScore:       s.state.Score,
		Profile:          s.state.Profile.Name,
		Goal:             s.state.Profile.ScoreGoal,
		RemainingSeconds: s.state.RemainingSeconds,
		StartedAt:        s.startedAt,
		EndedAt:          s.endedAt,
		Tally:            s.tally,
	})
}
