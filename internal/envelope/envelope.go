// Package envelope implements the linear-segment ADSR advanced once per sample.
package envelope

// State is the current envelope stage.
type State int

const (
	Attack State = iota
	Decay
	Sustain
	Release
	Off
)

func (s State) String() string {
	switch s {
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	case Off:
		return "off"
	default:
		return "unknown"
	}
}

const (
	// Floor is the level under which a releasing envelope is considered silent.
	Floor = 1e-4
	// attackTolerance lets integral sample counts land exactly on the peak.
	attackTolerance = 1e-9
)

// ADSR stage times are in seconds, SustainLvl is a level in [0,1].
type ADSR struct {
	State      State
	Value      float64
	AttackSec  float64
	DecaySec   float64
	SustainLvl float64
	ReleaseSec float64

	attackInc    float64
	decayInc     float64
	releaseTicks float64
}

// New returns an envelope in the Off state with increments computed for sampleRate.
func New(attack, decay, sustain, release, sampleRate float64) ADSR {
	e := ADSR{State: Off}
	e.Set(attack, decay, sustain, release, sampleRate)
	return e
}

// Set replaces the time constants and recomputes the per-sample increments.
// Stages shorter than one sample are stretched to one sample.
func (e *ADSR) Set(attack, decay, sustain, release, sampleRate float64) {
	e.AttackSec = attack
	e.DecaySec = decay
	e.SustainLvl = clamp01(sustain)
	e.ReleaseSec = release
	e.attackInc = 1.0 / samples(attack, sampleRate)
	e.decayInc = (1.0 - e.SustainLvl) / samples(decay, sampleRate)
	e.releaseTicks = samples(release, sampleRate)
}

func samples(seconds, sampleRate float64) float64 {
	n := seconds * sampleRate
	if n != n || n < 1 {
		return 1
	}
	return n
}

// Trigger restarts the attack from the current level.
func (e *ADSR) Trigger() { e.State = Attack }

// Release moves any sounding stage to Release.
func (e *ADSR) Release() {
	if e.State != Off {
		e.State = Release
	}
}

// Stop silences the envelope immediately.
func (e *ADSR) Stop() {
	e.State = Off
	e.Value = 0
}

// Active reports whether the envelope still produces a non-zero level.
func (e *ADSR) Active() bool { return e.State != Off }

// Advance steps the envelope by one sample and returns the new level.
func (e *ADSR) Advance() float64 {
	switch e.State {
	case Attack:
		e.Value += e.attackInc
		if e.Value >= 1-attackTolerance {
			e.Value = 1
			e.State = Decay
		}
	case Decay:
		e.Value -= e.decayInc
		if e.Value <= e.SustainLvl {
			e.Value = e.SustainLvl
			e.State = Sustain
		}
	case Sustain:
		e.Value = e.SustainLvl
	case Release:
		e.Value -= e.Value / e.releaseTicks
		if e.Value <= Floor {
			e.Value = 0
			e.State = Off
		}
	case Off:
		e.Value = 0
	}
	return e.Value
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
