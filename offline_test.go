package sgsa

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-audio/wav"

	intmidi "github.com/cbegin/sgsa-go/internal/midi"
)

func phrase() []TimedEvent {
	on := func(frame, key int) TimedEvent {
		return TimedEvent{Frame: frame, Event: intmidi.Event{Status: intmidi.NoteOn, Data1: key, Data2: 100}}
	}
	off := func(frame, key int) TimedEvent {
		return TimedEvent{Frame: frame, Event: intmidi.Event{Status: intmidi.NoteOff, Data1: key}}
	}
	return []TimedEvent{
		off(9000, 64),
		on(1000, 60),
		on(3000, 64),
		off(6000, 60),
	}
}

func TestRenderDeterministicWithSeed(t *testing.T) {
	p := DefaultParams()
	p.Seed = 11
	a, err := Render(p, phrase(), 12000)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := Render(p, phrase(), 12000)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !slices.Equal(a, b) {
		t.Fatal("renders with the same seed differ")
	}
	if len(a) != 12000*p.Channels {
		t.Fatalf("len = %d, want %d", len(a), 12000*p.Channels)
	}
}

func TestRenderSilentBeforeFirstEvent(t *testing.T) {
	p := DefaultParams()
	p.Seed = 3
	out, err := Render(p, phrase(), 2000)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i, v := range out[:1000*p.Channels] {
		if v != 0 {
			t.Fatalf("sample %d = %v before first note", i, v)
		}
	}
	var peak float32
	for _, v := range out[1000*p.Channels:] {
		peak = max(peak, v, -v)
	}
	if peak == 0 {
		t.Fatal("no output after note on")
	}
}

func TestRenderRejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.SampleRate = 100
	if _, err := Render(p, nil, 10); err == nil {
		t.Fatal("expected error for bad sample rate")
	}
}

func TestWriteWAVRoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1, 2}
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteWAV(f, samples, 48000, 2); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		t.Fatal("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.Format.NumChannels != 2 || buf.Format.SampleRate != 48000 {
		t.Fatalf("format = %+v", buf.Format)
	}
	want := []int{0, 16384, -16384, 32767, -32767, 32767}
	if !slices.Equal(buf.Data, want) {
		t.Fatalf("data = %v, want %v", buf.Data, want)
	}
}

func TestWriteWAVRejectsZeroChannels(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := WriteWAV(f, nil, 48000, 0); err == nil {
		t.Fatal("expected error")
	}
}
