package voice

import (
	"math"

	"github.com/cbegin/sgsa-go/internal/envelope"
	"github.com/cbegin/sgsa-go/internal/osc"
)

// Phase is the allocation state of a voice slot.
type Phase int

const (
	Idle      Phase = iota // inactive, no key
	Held                   // key down
	Releasing              // key up, envelope tail still sounding
	Silent                 // key up, envelope finished, slot not yet cleared
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Held:
		return "held"
	case Releasing:
		return "releasing"
	case Silent:
		return "silent"
	default:
		return "unknown"
	}
}

// Voice is one polyphonic slot.
type Voice struct {
	Active    bool
	Key       int // -1 when unassigned
	Amplitude float64
	Layer     osc.Layer
}

func (v *Voice) Phase() Phase {
	switch {
	case v.Active:
		return Held
	case v.Key < 0:
		return Idle
	case v.Layer.EnvState() == envelope.Off:
		return Silent
	default:
		return Releasing
	}
}

// Audible reports whether the voice belongs in the mix: held with a running
// envelope, or released with its tail still in the Release stage.
func (v *Voice) Audible() bool {
	st := v.Layer.EnvState()
	if v.Active {
		return st != envelope.Off
	}
	return v.Key >= 0 && st == envelope.Release
}

// Free reports whether the slot can take a new note.
func (v *Voice) Free() bool {
	p := v.Phase()
	return p == Idle || p == Silent
}

func (v *Voice) clear() {
	v.Active = false
	v.Key = -1
	v.Layer.Stop()
}

// Velocity curve breakpoints: (velocity/127, gain).
var velocityCurve = [...][2]float64{
	{0, 0.125},
	{0.25, 0.25},
	{0.75, 1.25},
	{1, 2.25},
}

const (
	MinVelocityGain = 0.125
	MaxVelocityGain = 2.25
)

// VelocityGain maps a MIDI velocity onto the piecewise linear amplitude
// curve, clamped to [MinVelocityGain, MaxVelocityGain].
func VelocityGain(velocity int) float64 {
	x := float64(velocity) / 127
	if x <= 0 {
		return MinVelocityGain
	}
	if x >= 1 {
		return MaxVelocityGain
	}
	for i := 1; i < len(velocityCurve); i++ {
		a, b := velocityCurve[i-1], velocityCurve[i]
		if x <= b[0] {
			g := a[1] + (x-a[0])/(b[0]-a[0])*(b[1]-a[1])
			return math.Min(MaxVelocityGain, math.Max(MinVelocityGain, g))
		}
	}
	return MaxVelocityGain
}
