package game

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/droptap/internal/clock"
	"github.com/verte-zerg/droptap/internal/profile"
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a RandomSource seeded with seed, or with the
// current time when seed is zero.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Spawner creates targets at the cadence of the active profile.
type Spawner struct {
	sched   clock.Scheduler
	rnd     RandomSource
	onSpawn func(*Target)

	nextID  TargetID
	timer   clock.Timer
	profile profile.Profile
}

// NewSpawner returns a stopped spawner.
func NewSpawner(sched clock.Scheduler, rnd RandomSource, onSpawn func(*Target)) *Spawner {
	return &Spawner{sched: sched, rnd: rnd, onSpawn: onSpawn}
}

// Start spawns one target immediately and then one every
// p.SpawnInterval. It returns false and does nothing if already started.
func (s *Spawner) Start(p profile.Profile) bool {
	if s.timer != nil {
		return false
	}
	s.profile = p
	s.timer = s.sched.Every(p.SpawnInterval, s.spawn)
	s.spawn()
	return true
}

// Stop halts spawning. It is safe to call when stopped.
func (s *Spawner) Stop() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
}

// Running reports whether the spawner is started.
func (s *Spawner) Running() bool {
	return s.timer != nil
}

func (s *Spawner) spawn() {
	if s.timer == nil {
		return
	}
	kind := Good
	if s.rnd.Float64() < s.profile.BadChance {
		kind = Bad
	}
	s.nextID++
	s.onSpawn(&Target{ID: s.nextID, Kind: kind, SpawnedAt: s.sched.Now()})
}
