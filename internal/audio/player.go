package audio

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/verte-zerg/droptap/internal/game"
)

// SampleRate is the output rate of every cue.
const SampleRate = beep.SampleRate(44100)

// Player turns session events into sounds. Its zero value is silent.
type Player struct {
	game.NopListener
	rate           beep.SampleRate
	play           func(beep.Streamer)
	lastMultiplier int
}

// NewPlayer opens the default audio device. When the device cannot be opened
// the error is logged and the returned player stays silent.
func NewPlayer(logger *log.Logger) *Player {
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		logger.Warn("audio disabled", "err", err)
		return &Player{}
	}
	mixer := &beep.Mixer{}
	speaker.Play(mixer)
	return newPlayer(SampleRate, func(s beep.Streamer) {
		speaker.Lock()
		mixer.Add(s)
		speaker.Unlock()
	})
}

func newPlayer(rate beep.SampleRate, play func(beep.Streamer)) *Player {
	return &Player{rate: rate, play: play, lastMultiplier: 1}
}

// Enabled reports whether the player has an output.
func (p *Player) Enabled() bool {
	return p.play != nil
}

// Close stops playback.
func (p *Player) Close() {
	if p.play == nil {
		return
	}
	speaker.Close()
	p.play = nil
}

func (p *Player) emit(s beep.Streamer) {
	if p.play != nil {
		p.play(s)
	}
}

func (p *Player) OnActivationResult(_ game.TargetID, e game.Effect) {
	if e.Kind == game.Bad {
		p.emit(Buzz(p.rate))
		return
	}
	p.emit(Bell(p.rate))
}

func (p *Player) OnMultiplierChanged(multiplier int) {
	if multiplier > p.lastMultiplier {
		p.emit(Chime(p.rate))
	}
	p.lastMultiplier = multiplier
}

func (p *Player) OnSessionEnded(r game.Result) {
	if r.Outcome == game.Win {
		p.emit(Jingle(p.rate))
		return
	}
	p.emit(Fall(p.rate))
}
