// Package lfo provides the low-frequency modulators: a per-oscillator
// vibrato phase and the time-based tremolo.
package lfo

import "math"

// Waveform shapes for LFO.
const (
	WaveSine     = 0
	WaveSaw      = 1
	WaveSquare   = 2
	WaveTriangle = 3
)

// LFO is a phase accumulator in [0, 1). It carries no rate or depth so one
// value can live inside every oscillator and be driven by shared settings.
type LFO struct {
	Waveform int
	phase    float64
}

// Next advances the phase by rateHz/sampleRate and returns the waveform at the
// new phase, in [-1, 1]. A zero rate or sample rate holds the phase.
func (l *LFO) Next(rateHz, sampleRate float64) float64 {
	if rateHz > 0 && sampleRate > 0 {
		l.phase += rateHz / sampleRate
		for l.phase >= 1.0 {
			l.phase -= 1.0
		}
	}
	return l.Value()
}

// Value returns the waveform at the current phase without advancing.
func (l *LFO) Value() float64 {
	switch l.Waveform {
	case WaveSaw:
		return 1.0 - 2.0*l.phase
	case WaveSquare:
		if l.phase < 0.5 {
			return 1.0
		}
		return -1.0
	case WaveTriangle:
		if l.phase < 0.5 {
			return 4.0*l.phase - 1.0
		}
		return 3.0 - 4.0*l.phase
	default:
		return math.Sin(2 * math.Pi * l.phase)
	}
}

func (l *LFO) Phase() float64 { return l.phase }

// SetPhase places the accumulator at p, wrapped into [0, 1).
func (l *LFO) SetPhase(p float64) {
	p -= math.Floor(p)
	if p != p || p >= 1 {
		p = 0
	}
	l.phase = p
}

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
}

// Vibrato is the frequency modulation applied to every oscillator.
// Depth is in Hz, Onset in seconds of note time.
type Vibrato struct {
	Rate  float64
	Depth float64
	Onset float64
}

// Active reports whether Apply can change a frequency at all.
func (v Vibrato) Active() bool { return v.Rate > 0 && v.Depth != 0 }

// Apply returns freq unchanged until elapsed passes the onset. After that it
// advances l and returns freq + Depth*l.
func (v Vibrato) Apply(l *LFO, freq, elapsed, sampleRate float64) float64 {
	if !v.Active() || elapsed <= v.Onset {
		return freq
	}
	return freq + v.Depth*l.Next(v.Rate, sampleRate)
}

// Tremolo returns the amplitude multiplier 1 + depth*sin(2*pi*rate*t).
func Tremolo(rateHz, depth, t float64) float64 {
	if depth == 0 {
		return 1
	}
	return 1 + depth*math.Sin(2*math.Pi*rateHz*t)
}
