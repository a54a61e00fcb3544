// Package osc implements the oscillator and the layer that stacks several of
// them under one base frequency.
package osc

import (
	"math/rand/v2"

	"github.com/cbegin/sgsa-go/internal/dsp"
	"github.com/cbegin/sgsa-go/internal/envelope"
	"github.com/cbegin/sgsa-go/internal/lfo"
	"github.com/cbegin/sgsa-go/internal/wave"
)

const (
	MaxOscillators = 8
	MaxChannels    = 2
)

// WaveSpec is the per-oscillator tuning. It is replaced as a whole.
type WaveSpec struct {
	Octave float64 // frequency multiplier, 0.5 = one octave down
	Duty   float64 // pulse width in [0,1]
	Volume float64
	Detune float64 // multiplier near 1; 1 = none
	Pan    float64 // -1 left, 0 center, 1 right
}

func DefaultSpec() WaveSpec {
	return WaveSpec{Octave: 1, Duty: 0.5, Volume: 1, Detune: 1}
}

// State is the mutable per-sample memory of one oscillator.
type State struct {
	Phase    float64
	Triangle wave.TriangleState
	Elapsed  float64
	Vibrato  lfo.LFO
	Fast     float64
	Slow     float64
}

// Context carries the engine-wide values an oscillator reads every sample.
type Context struct {
	SampleRate float64
	Dt         float64
	Vibrato    lfo.Vibrato
	OscGain    float64
	FastAlpha  float64
	SlowAlpha  float64
	DCBlock    float64
}

// NewContext derives the filter and DC blocker coefficients for sampleRate.
func NewContext(sampleRate, oscGain, highHz, lowHz, dcHz float64, vib lfo.Vibrato) Context {
	return Context{
		SampleRate: sampleRate,
		Dt:         1 / sampleRate,
		Vibrato:    vib,
		OscGain:    oscGain,
		FastAlpha:  dsp.OnePoleAlpha(highHz, sampleRate),
		SlowAlpha:  dsp.OnePoleAlpha(lowHz, sampleRate),
		DCBlock:    dsp.DCBlockCoeff(dcHz, sampleRate),
	}
}

type Oscillator struct {
	Kind  wave.Kind
	State State
	Env   envelope.ADSR

	spec         WaveSpec
	gainL, gainR float64
}

func New(kind wave.Kind, spec WaveSpec, env envelope.ADSR) Oscillator {
	o := Oscillator{Kind: kind, Env: env}
	o.SetSpec(spec)
	return o
}

func (o *Oscillator) Spec() WaveSpec { return o.spec }

// SetSpec replaces the tuning and recomputes the pan gains.
func (o *Oscillator) SetSpec(s WaveSpec) {
	if s.Detune == 0 {
		s.Detune = 1
	}
	if s.Octave == 0 {
		s.Octave = 1
	}
	o.spec = s
	o.gainL, o.gainR = dsp.Pan(s.Pan)
}

// Start clears the state and places the phase at phase.
func (o *Oscillator) Start(phase float64) {
	o.State = State{Phase: phase}
	o.State.Vibrato.SetPhase(phase)
}

// Next produces one sample at base Hz, scaled by env, and advances the phase.
func (o *Oscillator) Next(base, env float64, ctx *Context) float64 {
	st := &o.State
	freq := base * o.spec.Octave * o.spec.Detune
	freq = ctx.Vibrato.Apply(&st.Vibrato, freq, st.Elapsed, ctx.SampleRate)
	inc := wave.ClampIncrement(freq / ctx.SampleRate)

	s := wave.Generate(o.Kind, o.spec.Volume, inc, st.Phase, o.spec.Duty, &st.Triangle, ctx.DCBlock)
	s *= env

	st.Fast += dsp.LinearInterpolate(s, st.Fast, ctx.FastAlpha)
	st.Slow += dsp.LinearInterpolate(s, st.Slow, ctx.SlowAlpha)
	out := dsp.SoftClip((st.Fast - st.Slow) * ctx.OscGain)

	st.Phase += inc
	if st.Phase >= 1 {
		st.Phase -= 1
	}
	st.Elapsed += ctx.Dt
	return out
}

// EnvMode selects whether each oscillator owns its envelope or the layer
// shares one across all of them.
type EnvMode int

const (
	EnvPerOscillator EnvMode = iota
	EnvPerVoice
)

func (m EnvMode) String() string {
	if m == EnvPerVoice {
		return "per-voice"
	}
	return "per-oscillator"
}

// Layer is a fixed array of oscillators sharing BaseFreq. Count is at least 1
// for any layer built from a preset.
type Layer struct {
	Count    int
	BaseFreq float64
	Mode     EnvMode
	Env      envelope.ADSR
	Osc      [MaxOscillators]Oscillator
}

// Start begins a fresh note at freq. Every oscillator gets a random phase so
// stacked attacks do not line up, and every envelope restarts from zero.
func (l *Layer) Start(freq float64, rnd *rand.Rand) {
	l.BaseFreq = freq
	l.Env.Stop()
	l.Env.Trigger()
	for i := 0; i < l.Count; i++ {
		o := &l.Osc[i]
		o.Start(rnd.Float64())
		o.Env.Stop()
		o.Env.Trigger()
	}
}

// Retrigger restarts the envelopes of a sounding note from their current
// level. Phases and filter memory are kept.
func (l *Layer) Retrigger(freq float64) {
	l.BaseFreq = freq
	l.Env.Trigger()
	for i := 0; i < l.Count; i++ {
		l.Osc[i].Env.Trigger()
		l.Osc[i].State.Elapsed = 0
	}
}

func (l *Layer) Release() {
	l.Env.Release()
	for i := 0; i < l.Count; i++ {
		l.Osc[i].Env.Release()
	}
}

func (l *Layer) Stop() {
	l.Env.Stop()
	for i := 0; i < l.Count; i++ {
		l.Osc[i].Env.Stop()
	}
}

// SetKind switches every oscillator to kind k.
func (l *Layer) SetKind(k wave.Kind) {
	for i := 0; i < l.Count; i++ {
		l.Osc[i].Kind = k
	}
}

// EnvState reports the stage that decides whether the layer is still heard:
// the shared envelope in per-voice mode, otherwise the least advanced
// oscillator envelope.
func (l *Layer) EnvState() envelope.State {
	if l.Mode == EnvPerVoice {
		return l.Env.State
	}
	st := envelope.Off
	for i := 0; i < l.Count; i++ {
		if s := l.Osc[i].Env.State; s < st {
			st = s
		}
	}
	return st
}

// Level is the mean envelope value, used to find the quietest voice.
func (l *Layer) Level() float64 {
	if l.Mode == EnvPerVoice {
		return l.Env.Value
	}
	if l.Count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < l.Count; i++ {
		sum += l.Osc[i].Env.Value
	}
	return sum / float64(l.Count)
}

// Next adds one frame of the layer into out, one slot per channel, with
// every oscillator weighted by 1/Count. Mono output ignores the pan.
func (l *Layer) Next(ctx *Context, out []float64) {
	if l.Count == 0 {
		return
	}
	shared := 0.0
	if l.Mode == EnvPerVoice {
		shared = l.Env.Advance()
	}
	norm := 1 / float64(l.Count)
	for i := 0; i < l.Count; i++ {
		o := &l.Osc[i]
		env := shared
		if l.Mode == EnvPerOscillator {
			env = o.Env.Advance()
		}
		s := o.Next(l.BaseFreq, env, ctx) * norm
		if len(out) >= 2 {
			out[0] += s * o.gainL
			out[1] += s * o.gainR
		} else if len(out) == 1 {
			out[0] += s
		}
	}
}
