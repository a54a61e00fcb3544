package wave

import (
	"math"
	"testing"
)

func TestRawWaveformsStayInAmplitude(t *testing.T) {
	for _, amp := range []float64{0.25, 1, 3} {
		for i := 0; i < 1000; i++ {
			p := float64(i) / 1000
			for name, v := range map[string]float64{
				"saw":      Sawtooth(amp, p),
				"square":   Square(amp, p, 0.3),
				"triangle": Triangle(amp, p),
				"sine":     SineWave(amp, p),
			} {
				if math.Abs(v) > amp+1e-12 {
					t.Fatalf("%s(amp=%v, phase=%v) = %v out of range", name, amp, p, v)
				}
			}
		}
	}
}

func TestRawWaveformShapes(t *testing.T) {
	if got := Sawtooth(1, 0); got != -1 {
		t.Errorf("saw at 0 = %v, want -1", got)
	}
	if got := Square(1, 0.1, 0.5); got != 1 {
		t.Errorf("square high half = %v, want 1", got)
	}
	if got := Square(1, 0.6, 0.5); got != -1 {
		t.Errorf("square low half = %v, want -1", got)
	}
	if got := Triangle(1, 0.5); got != -1 {
		t.Errorf("triangle at 0.5 = %v, want -1", got)
	}
	if got := Triangle(1, 0); got != 1 {
		t.Errorf("triangle at 0 = %v, want 1", got)
	}
	if got := SineWave(1, 0.25); math.Abs(got-1) > 1e-12 {
		t.Errorf("sine at 0.25 = %v, want 1", got)
	}
}

func TestPolyBLEPZeroOutsideWindows(t *testing.T) {
	for _, inc := range []float64{0.001, 0.01, 0.1, 0.25, 0.49} {
		for i := 0; i <= 1000; i++ {
			p := inc + (1-2*inc)*float64(i)/1000
			if got := PolyBLEP(inc, p); got != 0 {
				t.Fatalf("PolyBLEP(%v, %v) = %v, want 0", inc, p, got)
			}
		}
	}
}

func TestPolyBLEPSmoothsEdges(t *testing.T) {
	inc := 0.01
	if got := PolyBLEP(inc, 0); got != -1 {
		t.Errorf("blep at edge start = %v, want -1", got)
	}
	// Raw saw jumps from +1 to -1 at the wrap; the corrected value sits at the midpoint.
	if got := PolySaw(1, inc, 0); math.Abs(got) > 1e-12 {
		t.Errorf("poly saw at wrap = %v, want 0", got)
	}
	if got := PolySquare(1, inc, 0, 0.5); math.Abs(got) > 1e-12 {
		t.Errorf("poly square at rising edge = %v, want 0", got)
	}
	if got := PolySquare(1, inc, 0.5, 0.5); math.Abs(got) > 1e-12 {
		t.Errorf("poly square at falling edge = %v, want 0", got)
	}
}

func TestPolyGeneratorsClampDegenerateIncrement(t *testing.T) {
	for _, inc := range []float64{0, -1, 0.5, 2, math.NaN(), math.Inf(1)} {
		var st TriangleState
		for i := 0; i < 64; i++ {
			p := float64(i) / 64
			for _, v := range []float64{
				PolySquare(1, inc, p, 0.5),
				PolySaw(1, inc, p),
				PolyTriangle(1, inc, p, &st, 0.999),
			} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("inc=%v phase=%v produced %v", inc, p, v)
				}
			}
		}
	}
}

func TestPolyTriangleSettlesAroundZero(t *testing.T) {
	var st TriangleState
	inc := 440.0 / 48000
	phase := 0.0
	var sum, peak float64
	const n = 48000
	for i := 0; i < n; i++ {
		v := PolyTriangle(1, inc, phase, &st, 0.9995)
		if i >= n/2 {
			sum += v
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
		phase += inc
		if phase >= 1 {
			phase -= 1
		}
	}
	if mean := sum / (n / 2); math.Abs(mean) > 0.05 {
		t.Errorf("triangle DC offset %v, want ~0", mean)
	}
	if peak < 0.5 || peak > 1.5 {
		t.Errorf("triangle peak %v, want ~1", peak)
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("noise"); ok {
		t.Error("unknown kind should not parse")
	}
	if FromController(0) != Sine || FromController(127) != TrianglePoly {
		t.Errorf("controller mapping ends: %v %v", FromController(0), FromController(127))
	}
}
