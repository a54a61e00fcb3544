// Package wave holds the per-sample waveform generators. All functions take a
// phase normalized to [0, 1) and never allocate.
package wave

import (
	"math"
	"strings"
)

const twoPi = math.Pi * 2

// Increment bounds for the band-limited generators. Above MaxIncrement the
// correction windows overlap and the blep terms stop making sense.
const (
	MinIncrement = 1e-7
	MaxIncrement = 0.499
)

type Kind int

const (
	Sine Kind = iota
	PulseRaw
	SawRaw
	TriangleRaw
	PulsePoly
	SawPoly
	TrianglePoly
	kindCount
)

var kindNames = [kindCount]string{
	Sine:         "sine",
	PulseRaw:     "pulse",
	SawRaw:       "saw",
	TriangleRaw:  "triangle",
	PulsePoly:    "poly-pulse",
	SawPoly:      "poly-saw",
	TrianglePoly: "poly-triangle",
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

func (k Kind) Valid() bool { return k >= 0 && k < kindCount }

// Kinds returns every generator kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind resolves a generator name as printed by Kind.String.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// FromController maps a 0-127 controller value onto the kind range.
func FromController(value int) Kind {
	if value < 0 {
		value = 0
	}
	if value > 127 {
		value = 127
	}
	return Kind(value * int(kindCount) / 128)
}

func Sawtooth(amp, phase float64) float64 {
	return amp * (2*phase - 1)
}

func Square(amp, phase, duty float64) float64 {
	if phase < duty {
		return amp
	}
	return -amp
}

func Triangle(amp, phase float64) float64 {
	return amp * (2*math.Abs(2*(phase-0.5)) - 1)
}

func SineWave(amp, phase float64) float64 {
	return amp * math.Sin(twoPi*phase)
}

// ClampIncrement keeps a per-sample phase advance inside the range the
// band-limited generators can handle.
func ClampIncrement(inc float64) float64 {
	if inc != inc || inc < MinIncrement {
		return MinIncrement
	}
	if inc > MaxIncrement {
		return MaxIncrement
	}
	return inc
}
