package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

type SampleSource interface {
	Process(dst []float32)
}

// Backend is an output device pulling from a StreamReader.
type Backend interface {
	Play()
	Pause()
	IsPlaying() bool
	Stop() error
}

// StreamReader adapts a SampleSource producing srcChannels interleaved
// float32 samples into a little-endian float32 byte stream of outChannels.
// Mono sources are duplicated to both sides; stereo sources are averaged
// down to mono.
type StreamReader struct {
	mu          sync.Mutex
	source      SampleSource
	srcChannels int
	outChannels int
	buf         []float32
}

func NewStreamReader(source SampleSource, srcChannels, outChannels int) *StreamReader {
	if srcChannels < 1 {
		srcChannels = 1
	}
	if outChannels < 1 {
		outChannels = srcChannels
	}
	return &StreamReader{source: source, srcChannels: srcChannels, outChannels: outChannels}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameBytes := 4 * r.outChannels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	need := frames * r.srcChannels
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)

	src, out := r.srcChannels, r.outChannels
	for f := 0; f < frames; f++ {
		in := r.buf[f*src : f*src+src]
		for c := 0; c < out; c++ {
			var s float32
			switch {
			case src == out:
				s = in[c]
			case src == 1:
				s = in[0]
			default:
				s = (in[0] + in[1]) * 0.5
			}
			binary.LittleEndian.PutUint32(p[(f*out+c)*4:], math.Float32bits(s))
		}
	}
	return frames * frameBytes, nil
}

func (r *StreamReader) Close() error { return nil }
