// Package dsp holds the small per-sample helpers shared by the oscillators,
// the voice mixer and the delay.
package dsp

import "math"

// Quantize rounds x onto a grid of 2^bits steps per unit. bits <= 0 returns x.
func Quantize(x float64, bits int) float64 {
	if bits <= 0 {
		return x
	}
	if bits > 52 {
		bits = 52
	}
	steps := math.Ldexp(1, bits)
	return math.Round(x*steps) / steps
}

// LinearInterpolate returns the one-pole step (target-current)*alpha.
// The caller accumulates it into current.
func LinearInterpolate(target, current, alpha float64) float64 {
	return (target - current) * alpha
}

// OnePoleAlpha derives a smoothing coefficient dt/(rc+dt) from a cutoff.
// A non-positive cutoff gives 1, which passes the input through.
func OnePoleAlpha(cutoffHz, sampleRate float64) float64 {
	if cutoffHz <= 0 || sampleRate <= 0 {
		return 1
	}
	dt := 1 / sampleRate
	rc := 1 / (2 * math.Pi * cutoffHz)
	return dt / (rc + dt)
}

// DCBlockCoeff returns the pole r of y = x - x1 + r*y1 for a corner at cutoffHz.
func DCBlockCoeff(cutoffHz, sampleRate float64) float64 {
	if cutoffHz <= 0 || sampleRate <= 0 {
		return 0.995
	}
	r := 1 - 2*math.Pi*cutoffHz/sampleRate
	if r < 0.9 {
		return 0.9
	}
	return r
}

// SoftClip is the tanh compressor used on oscillator, voice and delay sums.
func SoftClip(x float64) float64 { return math.Tanh(x) }

// Clamp limits x to [lo, hi]. NaN maps to 0.
func Clamp(x, lo, hi float64) float64 {
	if x != x {
		return 0
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Pan returns constant power gains for pos in [-1, 1], 0 being center.
func Pan(pos float64) (l, r float64) {
	pos = Clamp(pos, -1, 1)
	angle := (pos + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}
