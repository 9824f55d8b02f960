package game

// ApplyActivation applies one activation of a target of kind k to st and
// returns the new state and the effect to render. It has no side effects.
// A bad hit reports the full penalty as its delta even when the score floor
// absorbs part of it.
func ApplyActivation(st State, k Kind) (State, Effect) {
	var delta int
	if k == Bad {
		st.Score -= st.Profile.BadPenalty
		if st.Score < 0 {
			st.Score = 0
		}
		st.StreakCount = 0
		st.Multiplier = 1
		delta = -st.Profile.BadPenalty
	} else {
		st.StreakCount++
		if st.StreakCount%StreakStep == 0 && st.Multiplier < MaxMultiplier {
			st.Multiplier++
		}
		delta = st.Profile.GoodPoints * st.Multiplier
		st.Score += delta
	}
	return st, Effect{
		Kind:          k,
		Delta:         delta,
		NewScore:      st.Score,
		NewMultiplier: st.Multiplier,
		TriggeredWin:  st.Score >= st.Profile.ScoreGoal,
	}
}
