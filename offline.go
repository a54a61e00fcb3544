package sgsa

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	intmidi "github.com/cbegin/sgsa-go/internal/midi"
	intvoice "github.com/cbegin/sgsa-go/internal/voice"
)

// TimedEvent is an event applied before rendering the given frame.
type TimedEvent struct {
	Frame int
	Event intmidi.Event
}

// Render runs a fresh engine for frames frames, applying events at their
// frame offsets, and returns the interleaved output. With a fixed Seed the
// result is deterministic.
func Render(p Params, events []TimedEvent, frames int) ([]float32, error) {
	pool, err := intvoice.NewPool(p)
	if err != nil {
		return nil, err
	}
	if frames < 0 {
		frames = 0
	}
	sorted := make([]TimedEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })

	ch := p.Channels
	out := make([]float32, frames*ch)
	block := p.BufferFrames
	if block <= 0 {
		block = 512
	}
	pos, next := 0, 0
	for pos < frames {
		for next < len(sorted) && sorted[next].Frame <= pos {
			pool.Handle(sorted[next].Event)
			next++
		}
		end := min(pos+block, frames)
		if next < len(sorted) && sorted[next].Frame < end {
			end = sorted[next].Frame
		}
		pool.Process(out[pos*ch : end*ch])
		pos = end
	}
	return out, nil
}

// WriteWAV encodes interleaved samples in [-1, 1] as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate, channels int) error {
	if channels < 1 {
		return fmt.Errorf("write wav: %d channels", channels)
	}
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		buf.Data[i] = int(math.Round(v * 32767))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}
