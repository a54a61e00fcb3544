package dsp

import (
	"math"
	"testing"
)

func TestQuantizeIdempotent(t *testing.T) {
	for _, bits := range []int{1, 4, 8, 12, 16} {
		for i := 0; i <= 2000; i++ {
			x := -1 + float64(i)/1000
			q := Quantize(x, bits)
			if qq := Quantize(q, bits); qq != q {
				t.Fatalf("Quantize(Quantize(%v, %d)) = %v, want %v", x, bits, qq, q)
			}
			if step := math.Ldexp(1, -bits); math.Abs(q-x) > step/2+1e-15 {
				t.Fatalf("Quantize(%v, %d) = %v, off by more than half a step", x, bits, q)
			}
		}
	}
}

func TestQuantizeDisabled(t *testing.T) {
	if got := Quantize(0.123456, 0); got != 0.123456 {
		t.Errorf("bits=0 changed value to %v", got)
	}
}

func TestLinearInterpolateConverges(t *testing.T) {
	cur := 0.0
	for i := 0; i < 10000; i++ {
		cur += LinearInterpolate(1, cur, 0.01)
	}
	if math.Abs(cur-1) > 1e-6 {
		t.Fatalf("smoothing ended at %v, want 1", cur)
	}
	if d := LinearInterpolate(2, 1, 0.5); d != 0.5 {
		t.Fatalf("delta = %v, want 0.5", d)
	}
}

func TestOnePoleAlphaRange(t *testing.T) {
	lo := OnePoleAlpha(30, 48000)
	hi := OnePoleAlpha(9000, 48000)
	if !(lo > 0 && lo < hi && hi < 1) {
		t.Fatalf("alphas lo=%v hi=%v, want 0 < lo < hi < 1", lo, hi)
	}
	if OnePoleAlpha(0, 48000) != 1 {
		t.Fatal("zero cutoff should pass through")
	}
}

func TestDCBlockCoeff(t *testing.T) {
	r := DCBlockCoeff(5, 48000)
	if r <= 0.99 || r >= 1 {
		t.Fatalf("coefficient %v, want just under 1", r)
	}
	if DCBlockCoeff(1e6, 48000) != 0.9 {
		t.Fatal("coefficient should floor at 0.9")
	}
}

func TestSoftClipAndClamp(t *testing.T) {
	if v := SoftClip(100); v > 1 || v < 0.999 {
		t.Errorf("SoftClip(100) = %v", v)
	}
	if SoftClip(0) != 0 {
		t.Error("SoftClip(0) != 0")
	}
	for _, tc := range []struct{ in, want float64 }{
		{2, 1}, {-3, -1}, {0.5, 0.5}, {math.NaN(), 0},
	} {
		if got := Clamp(tc.in, -1, 1); got != tc.want {
			t.Errorf("Clamp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPanConstantPower(t *testing.T) {
	for _, pos := range []float64{-1, -0.5, 0, 0.3, 1} {
		l, r := Pan(pos)
		if p := l*l + r*r; math.Abs(p-1) > 1e-12 {
			t.Errorf("Pan(%v) power = %v, want 1", pos, p)
		}
	}
	if l, r := Pan(-1); math.Abs(l-1) > 1e-12 || math.Abs(r) > 1e-12 {
		t.Errorf("hard left = %v, %v", l, r)
	}
}
