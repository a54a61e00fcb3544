package effects

import "github.com/cbegin/sgsa-go/internal/dsp"

// MaxDelaySeconds bounds the ring capacity allocated up front.
const MaxDelaySeconds = 2.0

// DelayLine is a fixed capacity ring of samples with independent read and
// write cursors. Both wrap modulo the current length, which may be shortened
// below the capacity without reallocating.
type DelayLine struct {
	Active bool

	buf   []float32
	size  int
	read  int
	write int
}

// NewDelayLine allocates a ring of capacity samples, all zero.
func NewDelayLine(capacity int) *DelayLine {
	if capacity < 1 {
		capacity = 1
	}
	return &DelayLine{
		Active: true,
		buf:    make([]float32, capacity),
		size:   capacity,
	}
}

// Read returns the sample under the read cursor and advances it.
func (d *DelayLine) Read() float32 {
	out := d.buf[d.read]
	d.read++
	if d.read >= d.size {
		d.read = 0
	}
	return out
}

// Write stores x under the write cursor and advances it.
func (d *DelayLine) Write(x float32) {
	d.buf[d.write] = x
	d.write++
	if d.write >= d.size {
		d.write = 0
	}
}

// Cursors returns the read and write positions.
func (d *DelayLine) Cursors() (read, write int) { return d.read, d.write }

func (d *DelayLine) Len() int { return d.size }
func (d *DelayLine) Cap() int { return len(d.buf) }

// SetLen changes the delay length to n samples, clamped to [1, Cap]. The ring
// is cleared and both cursors restart at zero, so a read always sees the
// sample written n writes earlier.
func (d *DelayLine) SetLen(n int) {
	if n < 1 {
		n = 1
	}
	if n > len(d.buf) {
		n = len(d.buf)
	}
	d.size = n
	d.Reset()
}

func (d *DelayLine) Reset() {
	clear(d.buf)
	d.read = 0
	d.write = 0
}

// Echo is the feedback delay applied to the master mix, one line per channel.
type Echo struct {
	Gain     float64
	Feedback float64
	Mix      float64

	lines []*DelayLine
}

// NewEcho allocates channels rings sized for MaxDelaySeconds and sets the
// initial delay to delaySeconds.
func NewEcho(channels int, sampleRate, delaySeconds float64) *Echo {
	if channels < 1 {
		channels = 1
	}
	e := &Echo{Gain: 1, Feedback: 0.5, Mix: 0.5}
	capacity := int(MaxDelaySeconds * sampleRate)
	for i := 0; i < channels; i++ {
		e.lines = append(e.lines, NewDelayLine(capacity))
	}
	e.SetDelay(delaySeconds, sampleRate)
	return e
}

func (e *Echo) SetDelay(seconds, sampleRate float64) {
	n := int(seconds * sampleRate)
	for _, l := range e.lines {
		l.SetLen(n)
	}
}

func (e *Echo) SetActive(on bool) {
	for _, l := range e.lines {
		l.Active = on
	}
}

func (e *Echo) Active() bool { return len(e.lines) > 0 && e.lines[0].Active }

// Line exposes channel ch's ring.
func (e *Echo) Line(ch int) *DelayLine { return e.lines[ch] }

// Process runs one frame in place. Each channel reads its delayed sample,
// blends it with the dry input, soft clips and feeds the result back.
// An inactive echo leaves frame and rings untouched.
func (e *Echo) Process(frame []float64) {
	if !e.Active() {
		return
	}
	for ch := range frame {
		if ch >= len(e.lines) {
			break
		}
		l := e.lines[ch]
		delayed := float64(l.Read())
		y := dsp.SoftClip(e.Gain * (frame[ch]*(1-e.Mix) + delayed*e.Feedback*e.Mix))
		l.Write(float32(y))
		frame[ch] = y
	}
}

func (e *Echo) Reset() {
	for _, l := range e.lines {
		l.Reset()
	}
}
