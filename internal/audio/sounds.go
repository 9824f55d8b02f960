// Package audio plays short synthesized cues for game events.
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Wave is an oscillator shape.
type Wave int

const (
	Sine Wave = iota
	Square
	Saw
)

type oscillator struct {
	freq     float64
	phase    float64
	total    int
	position int
	wave     Wave
	rate     beep.SampleRate
}

// Tone returns a streamer producing freq Hz for d.
func Tone(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return &oscillator{freq: freq, total: rate.N(d), wave: wave, rate: rate}
}

func (o *oscillator) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if o.position >= o.total {
			return i, i > 0
		}
		var val float64
		switch o.wave {
		case Square:
			val = -1
			if o.phase < 0.5 {
				val = 1
			}
		case Saw:
			val = 2 * (o.phase - 0.5)
		default:
			val = math.Sin(2 * math.Pi * o.phase)
		}
		samples[i][0] = val
		samples[i][1] = val
		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

type envelope struct {
	s        beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

// Shape applies a linear attack and release to s over d.
func Shape(s beep.Streamer, d, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{s: s, attack: rate.N(attack), release: rate.N(release), total: rate.N(d)}
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.s.Stream(samples)
	releaseStart := e.total - e.release
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}
		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if e.release > 0 && e.position >= releaseStart {
			vol = float64(e.total-e.position) / float64(e.release)
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.s.Err() }

func volume(s beep.Streamer, v float64) beep.Streamer {
	if v <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(v)}
}

func note(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return Shape(Tone(freq, d, wave, rate), d, 5*time.Millisecond, d/2, rate)
}

// Bell is the cue for a good tap.
func Bell(rate beep.SampleRate) beep.Streamer {
	d := 180 * time.Millisecond
	return beep.Take(rate.N(d), beep.Mix(
		volume(note(880, d, Sine, rate), 0.7),
		volume(note(1760, d, Sine, rate), 0.3),
	))
}

// Buzz is the cue for a bad tap.
func Buzz(rate beep.SampleRate) beep.Streamer {
	d := 150 * time.Millisecond
	return volume(Shape(Tone(110, d, Saw, rate), d, 5*time.Millisecond, 40*time.Millisecond, rate), 0.6)
}

// Chime is the cue for a multiplier increase.
func Chime(rate beep.SampleRate) beep.Streamer {
	return volume(beep.Seq(
		note(987.77, 70*time.Millisecond, Square, rate),
		note(1318.51, 160*time.Millisecond, Square, rate),
	), 0.4)
}

// Jingle is the cue for a win.
func Jingle(rate beep.SampleRate) beep.Streamer {
	d := 110 * time.Millisecond
	return volume(beep.Seq(
		note(523.25, d, Square, rate),
		note(659.25, d, Square, rate),
		note(783.99, d, Square, rate),
		note(1046.5, 3*d, Square, rate),
	), 0.4)
}

// Fall is the cue for running out of time.
func Fall(rate beep.SampleRate) beep.Streamer {
	d := 220 * time.Millisecond
	return volume(beep.Seq(
		note(392, d, Sine, rate),
		note(311.13, d, Sine, rate),
		note(261.63, 2*d, Sine, rate),
	), 0.6)
}
