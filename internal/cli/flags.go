// Package cli holds the flag bindings and computer keyboard layout shared by
// the sgsa binaries.
package cli

import (
	"flag"
	"fmt"
	"strings"

	"github.com/cbegin/sgsa-go/internal/osc"
	"github.com/cbegin/sgsa-go/internal/voice"
)

// Flags binds the engine parameters to fs. Call Apply after fs.Parse.
type Flags struct {
	params *voice.Params
	steal  string
	preset string
}

func BindFlags(fs *flag.FlagSet, p *voice.Params) *Flags {
	f := &Flags{params: p, steal: p.Stealing.String()}
	if p.Preset >= 0 && p.Preset < len(p.Presets) {
		f.preset = p.Presets[p.Preset].Name
	}
	fs.IntVar(&p.SampleRate, "sample-rate", p.SampleRate, "output sample rate")
	fs.IntVar(&p.Channels, "channels", p.Channels, "output channels: 1|2")
	fs.IntVar(&p.BufferFrames, "buffer", p.BufferFrames, "audio buffer size in frames")
	fs.IntVar(&p.Voices, "voices", p.Voices, "polyphony")
	fs.Float64Var(&p.MasterVolume, "volume", p.MasterVolume, "master volume scalar")
	fs.Float64Var(&p.VoiceGain, "voice-gain", p.VoiceGain, "per voice gain before soft clip")
	fs.Float64Var(&p.OscGain, "osc-gain", p.OscGain, "per oscillator gain before soft clip")
	fs.BoolVar(&p.DelayEnabled, "delay", p.DelayEnabled, "enable the feedback delay")
	fs.Float64Var(&p.DelayGain, "delay-gain", p.DelayGain, "delay output gain")
	fs.Float64Var(&p.DelayFeedback, "delay-feedback", p.DelayFeedback, "delay feedback amount")
	fs.Float64Var(&p.DelaySeconds, "delay-time", p.DelaySeconds, "delay length in seconds")
	fs.Float64Var(&p.VibratoRate, "vibrato-rate", p.VibratoRate, "vibrato rate in Hz")
	fs.Float64Var(&p.VibratoDepth, "vibrato-depth", p.VibratoDepth, "vibrato depth in Hz")
	fs.Float64Var(&p.VibratoOnset, "vibrato-onset", p.VibratoOnset, "seconds before vibrato starts")
	fs.Float64Var(&p.TremoloDepth, "tremolo-depth", p.TremoloDepth, "tremolo depth, 0 disables")
	fs.IntVar(&p.QuantizeBits, "bits", p.QuantizeBits, "output quantization bits, 0 disables")
	fs.StringVar(&f.steal, "steal", f.steal, "voice stealing when full: none|quietest")
	fs.StringVar(&f.preset, "preset", f.preset, "initial preset name")
	fs.Uint64Var(&p.Seed, "seed", p.Seed, "random seed for oscillator phases, 0 = time based")
	return f
}

// Apply resolves the string flags into the bound Params and validates them.
func (f *Flags) Apply() error {
	pol, ok := voice.ParseStealPolicy(f.steal)
	if !ok {
		return fmt.Errorf("invalid -steal %q (expected none|quietest)", f.steal)
	}
	f.params.Stealing = pol
	if name := strings.TrimSpace(f.preset); name != "" {
		i, ok := osc.FindPreset(f.params.Presets, name)
		if !ok {
			return fmt.Errorf("invalid -preset %q (expected one of %s)", name, strings.Join(PresetNames(f.params.Presets), ", "))
		}
		f.params.Preset = i
	}
	return f.params.Validate()
}

func PresetNames(presets []osc.Preset) []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}
