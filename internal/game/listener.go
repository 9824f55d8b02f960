package game

// Listener receives session events. Implementations render them; they must
// not call back into the session synchronously.
type Listener interface {
	OnSpawn(t *Target)
	OnActivationResult(id TargetID, e Effect)
	OnTargetExpired(id TargetID)
	OnTick(remainingSeconds int)
	OnMultiplierChanged(multiplier int)
	OnSessionEnded(r Result)
}

// NopListener ignores every event. Embed it to implement part of Listener.
type NopListener struct{}

func (NopListener) OnSpawn(*Target)                     {}
func (NopListener) OnActivationResult(TargetID, Effect) {}
func (NopListener) OnTargetExpired(TargetID)            {}
func (NopListener) OnTick(int)                          {}
func (NopListener) OnMultiplierChanged(int)             {}
func (NopListener) OnSessionEnded(Result)               {}

// Listeners fans events out in order. Nil entries are skipped.
type Listeners []Listener

func (ls Listeners) OnSpawn(t *Target) {
	for _, l := range ls {
		if l != nil {
			l.OnSpawn(t)
		}
	}
}

func (ls Listeners) OnActivationResult(id TargetID, e Effect) {
	for _, l := range ls {
		if l != nil {
			l.OnActivationResult(id, e)
		}
	}
}

func (ls Listeners) OnTargetExpired(id TargetID) {
	for _, l := range ls {
		if l != nil {
			l.OnTargetExpired(id)
		}
	}
}

func (ls Listeners) OnTick(remainingSeconds int) {
	for _, l := range ls {
		if l != nil {
			l.OnTick(remainingSeconds)
		}
	}
}

func (ls Listeners) OnMultiplierChanged(multiplier int) {
	for _, l := range ls {
		if l != nil {
			l.OnMultiplierChanged(multiplier)
		}
	}
}

func (ls Listeners) OnSessionEnded(r Result) {
	for _, l := range ls {
		if l != nil {
			l.OnSessionEnded(r)
		}
	}
}
