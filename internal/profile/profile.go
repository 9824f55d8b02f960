// Package profile defines the difficulty profiles that govern a session.
package profile

import (
	"fmt"
	"time"
)

// Profile is an immutable bundle of difficulty constants.
type Profile struct {
	Name          string
	Duration      int // seconds
	ScoreGoal     int
	SpawnInterval time.Duration
	GoodPoints    int
	BadPenalty    int
	BadChance     float64
}

// Built-in profiles.
var (
	Easy = Profile{
		Name:          "Easy",
		Duration:      45,
		ScoreGoal:     10,
		SpawnInterval: 1000 * time.Millisecond,
		GoodPoints:    1,
		BadPenalty:    1,
		BadChance:     0.15,
	}
	Normal = Profile{
		Name:          "Normal",
		Duration:      30,
		ScoreGoal:     15,
		SpawnInterval: 700 * time.Millisecond,
		GoodPoints:    1,
		BadPenalty:    1,
		BadChance:     0.2,
	}
	Hard = Profile{
		Name:          "Hard",
		Duration:      20,
		ScoreGoal:     20,
		SpawnInterval: 450 * time.Millisecond,
		GoodPoints:    1,
		BadPenalty:    2,
		BadChance:     0.35,
	}
)

// DefaultName is the profile used when a lookup misses.
const DefaultName = "Normal"

// Validate reports the first field that is out of range.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	if p.Duration <= 0 {
		return fmt.Errorf("profile %s: duration must be > 0", p.Name)
	}
	if p.ScoreGoal <= 0 {
		return fmt.Errorf("profile %s: goal must be > 0", p.Name)
	}
	if p.SpawnInterval <= 0 {
		return fmt.Errorf("profile %s: spawn-interval-ms must be > 0", p.Name)
	}
	if p.GoodPoints <= 0 {
		return fmt.Errorf("profile %s: good-points must be > 0", p.Name)
	}
	if p.BadPenalty < 0 {
		return fmt.Errorf("profile %s: bad-penalty must be >= 0", p.Name)
	}
	if p.BadChance < 0 || p.BadChance > 1 {
		return fmt.Errorf("profile %s: bad-chance must be between 0 and 1", p.Name)
	}
	return nil
}

// Override holds optional replacements for profile fields.
type Override struct {
	Duration        *int
	ScoreGoal       *int
	SpawnIntervalMs *int
	GoodPoints      *int
	BadPenalty      *int
	BadChance       *float64
}

// Apply returns a copy of p with the set override fields replaced.
func (o Override) Apply(p Profile) Profile {
	if o.Duration != nil {
		p.Duration = *o.Duration
	}
	if o.ScoreGoal != nil {
		p.ScoreGoal = *o.ScoreGoal
	}
	if o.SpawnIntervalMs != nil {
		p.SpawnInterval = time.Duration(*o.SpawnIntervalMs) * time.Millisecond
	}
	if o.GoodPoints != nil {
		p.GoodPoints = *o.GoodPoints
	}
	if o.BadPenalty != nil {
		p.BadPenalty = *o.BadPenalty
	}
	if o.BadChance != nil {
		p.BadChance = *o.BadChance
	}
	return p
}
