package osc

import (
	"strings"

	"github.com/cbegin/sgsa-go/internal/envelope"
	"github.com/cbegin/sgsa-go/internal/wave"
)

// Default envelope times in seconds.
const (
	DefaultAttack  = 0.125
	DefaultDecay   = 0.225
	DefaultSustain = 0.675
	DefaultRelease = 0.175
)

// PresetOsc describes one oscillator slot of a preset.
type PresetOsc struct {
	Kind    wave.Kind
	Spec    WaveSpec
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Preset is a named layer recipe. In EnvPerVoice mode the first oscillator's
// envelope times drive the shared envelope.
type Preset struct {
	Name        string
	Mode        EnvMode
	Oscillators []PresetOsc
}

// Layer builds the preset for sampleRate. Oscillators past MaxOscillators
// are ignored.
func (p Preset) Layer(sampleRate float64) Layer {
	l := Layer{Mode: p.Mode}
	for i, po := range p.Oscillators {
		if i >= MaxOscillators {
			break
		}
		env := envelope.New(po.Attack, po.Decay, po.Sustain, po.Release, sampleRate)
		l.Osc[i] = New(po.Kind, po.Spec, env)
		if i == 0 {
			l.Env = env
		}
		l.Count++
	}
	return l
}

func voiceOsc(kind wave.Kind, spec WaveSpec) PresetOsc {
	return PresetOsc{
		Kind:    kind,
		Spec:    spec,
		Attack:  DefaultAttack,
		Decay:   DefaultDecay,
		Sustain: DefaultSustain,
		Release: DefaultRelease,
	}
}

func spec(octave, duty, volume, detune, pan float64) WaveSpec {
	return WaveSpec{Octave: octave, Duty: duty, Volume: volume, Detune: detune, Pan: pan}
}

func withEnv(po PresetOsc, a, d, s, r float64) PresetOsc {
	po.Attack, po.Decay, po.Sustain, po.Release = a, d, s, r
	return po
}

// Presets returns the built-in layer presets. The first one is the default.
func Presets() []Preset {
	supersaw := Preset{Name: "detuned supersaw", Mode: EnvPerVoice}
	detunes := []float64{0.991, 0.994, 0.997, 1, 1.003, 1.006, 1.009}
	for i, d := range detunes {
		pan := -0.9 + 1.8*float64(i)/float64(len(detunes)-1)
		supersaw.Oscillators = append(supersaw.Oscillators,
			withEnv(voiceOsc(wave.SawPoly, spec(1, 0.5, 1, d, pan)), 0.05, 0.3, 0.8, 0.4))
	}

	return []Preset{
		{
			Name: "saw stack",
			Oscillators: []PresetOsc{
				voiceOsc(wave.SawPoly, spec(1, 0.5, 1, 0.996, -0.5)),
				voiceOsc(wave.SawPoly, spec(1, 0.5, 1, 1.004, 0.5)),
				voiceOsc(wave.SawPoly, spec(0.5, 0.5, 0.8, 1, 0)),
			},
		},
		{
			Name: "poly square",
			Oscillators: []PresetOsc{
				voiceOsc(wave.PulsePoly, spec(1, 0.5, 1, 1, 0)),
				voiceOsc(wave.PulsePoly, spec(2, 0.25, 0.5, 1.002, 0.3)),
			},
		},
		{
			Name: "triangle octaves",
			Oscillators: []PresetOsc{
				voiceOsc(wave.TrianglePoly, spec(0.5, 0.5, 1, 1, -0.3)),
				voiceOsc(wave.TrianglePoly, spec(1, 0.5, 1, 1, 0)),
				voiceOsc(wave.TrianglePoly, spec(2, 0.5, 0.6, 1, 0.3)),
			},
		},
		{
			Name: "sine bell",
			Oscillators: []PresetOsc{
				withEnv(voiceOsc(wave.Sine, spec(1, 0.5, 1, 1, 0)), 0.005, 0.4, 0.2, 0.8),
				withEnv(voiceOsc(wave.Sine, spec(2, 0.5, 0.6, 1.002, -0.2)), 0.005, 0.3, 0.1, 0.6),
				withEnv(voiceOsc(wave.Sine, spec(4, 0.5, 0.3, 1, 0.2)), 0.002, 0.15, 0, 0.3),
			},
		},
		{
			Name: "raw chip",
			Oscillators: []PresetOsc{
				withEnv(voiceOsc(wave.PulseRaw, spec(1, 0.125, 1, 1, 0)), 0.005, 0.1, 0.8, 0.1),
				withEnv(voiceOsc(wave.TriangleRaw, spec(0.5, 0.5, 0.8, 1, 0)), 0.005, 0.1, 0.8, 0.1),
			},
		},
		supersaw,
	}
}

// FindPreset looks a preset up by case-insensitive name.
func FindPreset(presets []Preset, name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, p := range presets {
		if strings.ToLower(p.Name) == name {
			return i, true
		}
	}
	return 0, false
}
