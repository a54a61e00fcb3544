package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

type rampSource struct {
	channels int
	next     float32
}

func (s *rampSource) Process(dst []float32) {
	for i := 0; i+s.channels <= len(dst); i += s.channels {
		for c := 0; c < s.channels; c++ {
			dst[i+c] = s.next + float32(c)
		}
		s.next++
	}
}

func decode(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
	}
	return out
}

func TestStreamReaderPassThrough(t *testing.T) {
	r := NewStreamReader(&rampSource{channels: 2}, 2, 2)
	p := make([]byte, 3*8+5)
	n, err := r.Read(p)
	if err != nil || n != 24 {
		t.Fatalf("Read = %d, %v; want 24 bytes", n, err)
	}
	got := decode(p[:n])
	want := []float32{0, 1, 1, 2, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStreamReaderUpmixesMono(t *testing.T) {
	r := NewStreamReader(&rampSource{channels: 1}, 1, 2)
	p := make([]byte, 2*8)
	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	got := decode(p)
	want := []float32{0, 0, 1, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStreamReaderDownmixesStereo(t *testing.T) {
	r := NewStreamReader(&rampSource{channels: 2}, 2, 1)
	p := make([]byte, 2*4)
	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	got := decode(p)
	if got[0] != 0.5 || got[1] != 1.5 {
		t.Fatalf("downmix = %v, want [0.5 1.5]", got)
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	r := NewStreamReader(&rampSource{channels: 2}, 2, 2)
	if n, err := r.Read(make([]byte, 7)); n != 0 || err != nil {
		t.Fatalf("Read = %d, %v; want 0, nil", n, err)
	}
}

func TestFramesToDuration(t *testing.T) {
	if d := framesToDuration(480, 48000); d != 10*time.Millisecond {
		t.Fatalf("480 frames = %v, want 10ms", d)
	}
}
