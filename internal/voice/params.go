package voice

import (
	"math"
	"strings"

	"github.com/cbegin/sgsa-go/internal/effects"
	"github.com/cbegin/sgsa-go/internal/osc"
)

const (
	MinSampleRate = 8000
	MaxSampleRate = 192000
	MaxVoices     = 64
	MaxQuantize   = 24
)

// StealPolicy decides what a Note-On does when every voice is busy.
type StealPolicy int

const (
	StealNone StealPolicy = iota
	StealQuietest
)

func (s StealPolicy) String() string {
	switch s {
	case StealNone:
		return "none"
	case StealQuietest:
		return "quietest"
	default:
		return "unknown"
	}
}

func ParseStealPolicy(name string) (StealPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "drop":
		return StealNone, true
	case "quietest", "quiet":
		return StealQuietest, true
	}
	return StealNone, false
}

// Controls maps controller numbers to engine functions. A negative number
// disables the mapping.
type Controls struct {
	Volume       int
	VibratoDepth int
	Waveform     int
	NextPreset   int
	PrevPreset   int
	DelayToggle  int
}

func DefaultControls() Controls {
	return Controls{
		Volume:       7,
		VibratoDepth: 1,
		Waveform:     20,
		NextPreset:   21,
		PrevPreset:   22,
		DelayToggle:  23,
	}
}

type Params struct {
	SampleRate   int
	Channels     int
	BufferFrames int
	Voices       int

	MasterVolume float64
	VoiceGain    float64
	OscGain      float64

	DelayEnabled  bool
	DelayGain     float64
	DelayFeedback float64
	DelayMix      float64
	DelaySeconds  float64

	VibratoRate  float64 // Hz
	VibratoDepth float64 // Hz
	VibratoOnset float64 // seconds
	TremoloRate  float64
	TremoloDepth float64

	QuantizeBits  int     // 0 = off
	FilterHighHz  float64 // band split upper corner
	FilterLowHz   float64 // band split lower corner
	DCBlockHz     float64
	GainSmoothing float64 // per-sample alpha of the voice count gain

	Stealing StealPolicy
	Seed     uint64 // 0 = time based

	Presets  []osc.Preset
	Preset   int
	Controls Controls
}

func DefaultParams() Params {
	return Params{
		SampleRate:    48000,
		Channels:      2,
		BufferFrames:  128,
		Voices:        8,
		MasterVolume:  1.0,
		VoiceGain:     2.0,
		OscGain:       2.0,
		DelayEnabled:  true,
		DelayGain:     1.5,
		DelayFeedback: 0.5,
		DelayMix:      0.5,
		DelaySeconds:  0.35,
		VibratoRate:   6.0,
		VibratoDepth:  5.0,
		VibratoOnset:  0.18,
		TremoloRate:   5.0,
		TremoloDepth:  0,
		FilterHighHz:  9000,
		FilterLowHz:   30,
		DCBlockHz:     5,
		GainSmoothing: 0.001,
		Presets:       osc.Presets(),
		Controls:      DefaultControls(),
	}
}

// Validate checks every field and returns a *ConfigError for the first bad one.
func (p Params) Validate() error {
	if p.SampleRate < MinSampleRate || p.SampleRate > MaxSampleRate {
		return configErr("SampleRate", p.SampleRate, ErrSampleRate)
	}
	if p.Channels != 1 && p.Channels != 2 {
		return configErr("Channels", p.Channels, ErrChannels)
	}
	if p.BufferFrames < 1 {
		return configErr("BufferFrames", p.BufferFrames, ErrRange)
	}
	if p.Voices < 1 || p.Voices > MaxVoices {
		return configErr("Voices", p.Voices, ErrPolyphony)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"MasterVolume", p.MasterVolume},
		{"VoiceGain", p.VoiceGain},
		{"OscGain", p.OscGain},
		{"DelayGain", p.DelayGain},
		{"DelayFeedback", p.DelayFeedback},
		{"VibratoRate", p.VibratoRate},
		{"VibratoDepth", p.VibratoDepth},
		{"VibratoOnset", p.VibratoOnset},
		{"TremoloRate", p.TremoloRate},
		{"TremoloDepth", p.TremoloDepth},
		{"FilterHighHz", p.FilterHighHz},
		{"FilterLowHz", p.FilterLowHz},
		{"DCBlockHz", p.DCBlockHz},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return configErr(f.name, f.v, ErrRange)
		}
	}
	if !(p.DelayMix >= 0 && p.DelayMix <= 1) {
		return configErr("DelayMix", p.DelayMix, ErrRange)
	}
	if !(p.DelaySeconds > 0 && p.DelaySeconds <= effects.MaxDelaySeconds) {
		return configErr("DelaySeconds", p.DelaySeconds, ErrRange)
	}
	if !(p.GainSmoothing > 0 && p.GainSmoothing <= 1) {
		return configErr("GainSmoothing", p.GainSmoothing, ErrRange)
	}
	if p.QuantizeBits < 0 || p.QuantizeBits > MaxQuantize {
		return configErr("QuantizeBits", p.QuantizeBits, ErrRange)
	}
	if p.Stealing != StealNone && p.Stealing != StealQuietest {
		return configErr("Stealing", p.Stealing, ErrRange)
	}
	if len(p.Presets) == 0 {
		return configErr("Presets", 0, ErrPreset)
	}
	if p.Preset < 0 || p.Preset >= len(p.Presets) {
		return configErr("Preset", p.Preset, ErrPreset)
	}
	for _, pr := range p.Presets {
		if n := len(pr.Oscillators); n < 1 || n > osc.MaxOscillators {
			return configErr("Presets["+pr.Name+"]", n, ErrOscillators)
		}
		for _, o := range pr.Oscillators {
			if !o.Kind.Valid() {
				return configErr("Presets["+pr.Name+"].Kind", int(o.Kind), ErrPreset)
			}
		}
	}
	return nil
}

// Immutable reports the first field that differs between p and q and
// requires building a new engine.
func (p Params) Immutable(q Params) (string, bool) {
	switch {
	case p.SampleRate != q.SampleRate:
		return "SampleRate", true
	case p.Channels != q.Channels:
		return "Channels", true
	case p.Voices != q.Voices:
		return "Voices", true
	}
	return "", false
}
