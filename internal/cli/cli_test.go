package cli

import (
	"flag"
	"testing"

	"github.com/cbegin/sgsa-go/internal/voice"
)

func TestKeyNote(t *testing.T) {
	tests := []struct {
		r      rune
		octave int
		want   int
		ok     bool
	}{
		{'z', 0, 48, true},
		{'s', 0, 49, true},
		{'m', 0, 59, true},
		{',', 0, 60, true},
		{'q', 0, 60, true},
		{'u', 0, 71, true},
		{'i', 0, 72, true},
		{'q', 1, 72, true},
		{'z', -4, 0, true},
		{'z', -5, 0, false},
		{'i', 5, 0, false},
		{'p', 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := KeyNote(tt.r, tt.octave)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("KeyNote(%q, %d) = %d, %v; want %d, %v", tt.r, tt.octave, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBindFlags(t *testing.T) {
	p := voice.DefaultParams()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs, &p)
	err := fs.Parse([]string{"-sample-rate", "44100", "-channels", "1", "-steal", "quietest",
		"-preset", "Sine Bell", "-bits", "8", "-delay=false", "-seed", "9"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := f.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if p.SampleRate != 44100 || p.Channels != 1 || p.QuantizeBits != 8 || p.DelayEnabled || p.Seed != 9 {
		t.Fatalf("params not bound: %+v", p)
	}
	if p.Stealing != voice.StealQuietest {
		t.Fatalf("stealing = %v", p.Stealing)
	}
	if p.Presets[p.Preset].Name != "sine bell" {
		t.Fatalf("preset = %q", p.Presets[p.Preset].Name)
	}
}

func TestBindFlagsRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"steal", []string{"-steal", "oldest"}},
		{"preset", []string{"-preset", "nope"}},
		{"channels", []string{"-channels", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := voice.DefaultParams()
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := BindFlags(fs, &p)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}
			if err := f.Apply(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
