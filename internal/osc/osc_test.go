package osc

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cbegin/sgsa-go/internal/envelope"
	"github.com/cbegin/sgsa-go/internal/lfo"
	"github.com/cbegin/sgsa-go/internal/wave"
)

func testContext(sr float64) Context {
	return NewContext(sr, 2, 9000, 30, 5, lfo.Vibrato{Rate: 6, Depth: 5, Onset: 0.18})
}

func TestOscillatorFollowsEnvelope(t *testing.T) {
	ctx := testContext(48000)
	o := New(wave.SawPoly, DefaultSpec(), envelope.New(0.01, 0.01, 0.5, 0.01, 48000))
	o.Start(0)
	if v := o.Next(440, 0, &ctx); v != 0 {
		t.Fatalf("silent envelope produced %v", v)
	}
	var peak float64
	for i := 0; i < 4800; i++ {
		v := o.Next(440, 1, &ctx)
		if math.IsNaN(v) || math.Abs(v) > 1 {
			t.Fatalf("sample %d = %v", i, v)
		}
		peak = math.Max(peak, math.Abs(v))
	}
	if peak < 0.1 {
		t.Fatalf("peak %v, want audible output", peak)
	}
	if p := o.State.Phase; p < 0 || p >= 1 {
		t.Fatalf("phase %v escaped [0,1)", p)
	}
	if math.Abs(o.State.Elapsed-4801.0/48000) > 1e-9 {
		t.Fatalf("elapsed %v", o.State.Elapsed)
	}
}

func TestOscillatorSurvivesExtremeFrequency(t *testing.T) {
	ctx := testContext(8000)
	for _, k := range wave.Kinds() {
		o := New(k, DefaultSpec(), envelope.ADSR{})
		o.Start(0.3)
		for _, f := range []float64{0, 1e-9, 3999, 4000, 50000, math.Inf(1)} {
			for i := 0; i < 32; i++ {
				if v := o.Next(f, 1, &ctx); math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("%v at %v Hz produced %v", k, f, v)
				}
			}
		}
	}
}

func TestSetSpecDefaultsMultipliers(t *testing.T) {
	var o Oscillator
	o.SetSpec(WaveSpec{Volume: 1})
	if s := o.Spec(); s.Detune != 1 || s.Octave != 1 {
		t.Fatalf("spec %+v, want unit detune and octave", s)
	}
}

func TestPresetsBuildValidLayers(t *testing.T) {
	presets := Presets()
	if len(presets) < 6 {
		t.Fatalf("got %d presets", len(presets))
	}
	for _, p := range presets {
		l := p.Layer(48000)
		if l.Count < 1 || l.Count > MaxOscillators {
			t.Errorf("%s: count %d", p.Name, l.Count)
		}
		if l.EnvState() != envelope.Off {
			t.Errorf("%s: fresh layer state %v, want off", p.Name, l.EnvState())
		}
		if i, ok := FindPreset(presets, p.Name); !ok || presets[i].Name != p.Name {
			t.Errorf("FindPreset(%q) failed", p.Name)
		}
	}
	if _, ok := FindPreset(presets, "nope"); ok {
		t.Error("unknown preset found")
	}
}

func TestLayerLifecycle(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	ctx := testContext(1000)
	for _, mode := range []EnvMode{EnvPerOscillator, EnvPerVoice} {
		p := Presets()[0]
		p.Mode = mode
		l := p.Layer(1000)
		l.Start(220, rnd)
		if l.EnvState() != envelope.Attack {
			t.Fatalf("%v: state after start %v", mode, l.EnvState())
		}
		out := make([]float64, 2)
		for i := 0; i < 1000; i++ {
			l.Next(&ctx, out)
		}
		if l.EnvState() != envelope.Sustain {
			t.Fatalf("%v: state after 1s %v, want sustain", mode, l.EnvState())
		}
		if l.Level() <= 0 {
			t.Fatalf("%v: level %v", mode, l.Level())
		}
		l.Release()
		if l.EnvState() != envelope.Release {
			t.Fatalf("%v: state after release %v", mode, l.EnvState())
		}
		for i := 0; i < 10000 && l.EnvState() != envelope.Off; i++ {
			l.Next(&ctx, out)
		}
		if l.EnvState() != envelope.Off || l.Level() != 0 {
			t.Fatalf("%v: never went silent, level %v", mode, l.Level())
		}
	}
}

func TestLayerStartRandomizesPhases(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 7))
	l := Presets()[0].Layer(48000)
	l.Start(440, rnd)
	if l.Osc[0].State.Phase == l.Osc[1].State.Phase {
		t.Fatal("oscillators started in phase")
	}
	before := l.Osc[0].State.Phase
	l.Retrigger(440)
	if l.Osc[0].State.Phase != before {
		t.Fatal("retrigger moved the phase")
	}
}

func TestLayerPansStereo(t *testing.T) {
	ctx := testContext(48000)
	l := Preset{Name: "left", Oscillators: []PresetOsc{
		voiceOsc(wave.SawPoly, spec(1, 0.5, 1, 1, -1)),
	}}.Layer(48000)
	l.Start(440, rand.New(rand.NewPCG(1, 1)))
	out := make([]float64, 2)
	var left, right float64
	for i := 0; i < 4800; i++ {
		out[0], out[1] = 0, 0
		l.Next(&ctx, out)
		left += math.Abs(out[0])
		right += math.Abs(out[1])
	}
	if left == 0 || right > left*1e-6 {
		t.Fatalf("hard left pan: left=%v right=%v", left, right)
	}
}
