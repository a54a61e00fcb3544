package wave

// TriangleState is the integrator and DC blocker memory of one band-limited
// triangle. It must persist between calls for the same oscillator.
type TriangleState struct {
	Integrator float64
	X          float64
	Y          float64
}

func (s *TriangleState) Reset() { *s = TriangleState{} }

// PolyBLEP reduces aliasing at waveform discontinuities.
// phase is the position [0,1), inc is the phase increment per sample.
func PolyBLEP(inc, phase float64) float64 {
	if phase < inc {
		t := phase / inc
		return t + t - t*t - 1
	}
	if phase > 1-inc {
		t := (phase - 1) / inc
		return t*t + t + t + 1
	}
	return 0
}

func PolySquare(amp, inc, phase, duty float64) float64 {
	inc = ClampIncrement(inc)
	out := Square(1, phase, duty)
	out += PolyBLEP(inc, phase)
	fall := phase - duty + 1
	fall -= float64(int(fall))
	out -= PolyBLEP(inc, fall)
	return amp * out
}

func PolySaw(amp, inc, phase float64) float64 {
	inc = ClampIncrement(inc)
	out := Sawtooth(1, phase)
	out -= PolyBLEP(inc, phase)
	return amp * out
}

// PolyTriangle integrates a band-limited square and runs the result through a
// DC blocker with coefficient dcBlock, so the integrator cannot drift.
func PolyTriangle(amp, inc, phase float64, st *TriangleState, dcBlock float64) float64 {
	inc = ClampIncrement(inc)
	sq := PolySquare(1, inc, phase, 0.5)
	st.Integrator += 4 * inc * sq
	y := st.Integrator - st.X + dcBlock*st.Y
	st.X = st.Integrator
	st.Y = y
	return amp * y
}

// Generate dispatches one sample for kind k. Raw kinds ignore inc and st.
func Generate(k Kind, amp, inc, phase, duty float64, st *TriangleState, dcBlock float64) float64 {
	switch k {
	case PulseRaw:
		return Square(amp, phase, duty)
	case SawRaw:
		return Sawtooth(amp, phase)
	case TriangleRaw:
		return Triangle(amp, phase)
	case PulsePoly:
		return PolySquare(amp, inc, phase, duty)
	case SawPoly:
		return PolySaw(amp, inc, phase)
	case TrianglePoly:
		return PolyTriangle(amp, inc, phase, st, dcBlock)
	default:
		return SineWave(amp, phase)
	}
}
