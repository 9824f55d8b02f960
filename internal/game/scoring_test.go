package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/droptap/internal/profile"
)

func TestApplyActivationStreakScenario(t *testing.T) {
	st := NewState(profile.Normal)
	st.Phase = Running

	var deltas []int
	var effect Effect
	for i := 0; i < 5; i++ {
		st, effect = ApplyActivation(st, Good)
		deltas = append(deltas, effect.Delta)
	}
	assert.Equal(t, []int{1, 1, 1, 1, 2}, deltas)
	assert.Equal(t, 6, st.Score)
	assert.Equal(t, 5, st.StreakCount)
	assert.Equal(t, 2, st.Multiplier)
	assert.Equal(t, 2, effect.NewMultiplier)
	assert.False(t, effect.TriggeredWin)

	st, effect = ApplyActivation(st, Bad)
	assert.Equal(t, 5, st.Score)
	assert.Equal(t, 0, st.StreakCount)
	assert.Equal(t, 1, st.Multiplier)
	assert.Equal(t, -1, effect.Delta)
	assert.Equal(t, Bad, effect.Kind)
}

func TestApplyActivationMultiplierCaps(t *testing.T) {
	p := profile.Normal
	p.ScoreGoal = 1000
	st := NewState(p)

	for i := 1; i <= 4*StreakStep; i++ {
		st, _ = ApplyActivation(st, Good)
		want := 1 + i/StreakStep
		if want > MaxMultiplier {
			want = MaxMultiplier
		}
		require.Equal(t, want, st.Multiplier, "after %d hits", i)
	}
	// 4 at x1, 5 at x2, 5 at x3 (bumped on hit 10), 6 more at the cap.
	assert.Equal(t, 4*1+5*2+11*3, st.Score)
}

func TestApplyActivationScoreFloor(t *testing.T) {
	p := profile.Hard
	st := NewState(p)
	st.Score = 1

	st, effect := ApplyActivation(st, Bad)
	assert.Equal(t, 0, st.Score)
	assert.Equal(t, -p.BadPenalty, effect.Delta)
	assert.Equal(t, 0, effect.NewScore)

	st, effect = ApplyActivation(st, Bad)
	assert.Equal(t, 0, st.Score)
	assert.Equal(t, -p.BadPenalty, effect.Delta)
	assert.Equal(t, 0, effect.NewScore)
}

func TestApplyActivationTriggersWinAtGoal(t *testing.T) {
	st := NewState(profile.Normal)
	st.Score = 14

	st, effect := ApplyActivation(st, Good)
	assert.Equal(t, 15, st.Score)
	assert.Equal(t, 1, effect.Delta)
	assert.Equal(t, 15, effect.NewScore)
	assert.True(t, effect.TriggeredWin)
}

func TestApplyActivationIsPure(t *testing.T) {
	st := NewState(profile.Normal)
	st.Score = 3
	next, _ := ApplyActivation(st, Good)
	assert.Equal(t, 3, st.Score)
	assert.Equal(t, 4, next.Score)
}
