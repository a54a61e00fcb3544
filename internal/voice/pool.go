package voice

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/cbegin/sgsa-go/internal/dsp"
	"github.com/cbegin/sgsa-go/internal/effects"
	"github.com/cbegin/sgsa-go/internal/lfo"
	"github.com/cbegin/sgsa-go/internal/midi"
	"github.com/cbegin/sgsa-go/internal/osc"
	"github.com/cbegin/sgsa-go/internal/scope"
	"github.com/cbegin/sgsa-go/internal/wave"
)

// Standard channel mode messages handled regardless of the Controls map.
const (
	ccAllSoundOff = 120
	ccAllNotesOff = 123
)

// Config is a validated parameter set with its layer templates built. It is
// prepared off the audio goroutine and handed over in a CmdConfig.
type Config struct {
	Params    Params
	templates []osc.Layer
}

func NewConfig(p Params) (*Config, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := &Config{Params: p, templates: make([]osc.Layer, len(p.Presets))}
	for i, pr := range p.Presets {
		c.templates[i] = pr.Layer(float64(p.SampleRate))
	}
	return c, nil
}

// Stats are counters safe to read from any goroutine.
type Stats struct {
	DroppedNotes    uint64
	DroppedCommands uint64
	AudibleVoices   int
	Frames          uint64
}

// Pool owns every voice, the echo and the render pipeline. Process and the
// direct note methods must be called from one goroutine; other goroutines
// talk to it through Queue.
type Pool struct {
	params    Params
	templates []osc.Layer
	ctx       osc.Context
	voices    []Voice
	queue     *Queue
	echo      *effects.Echo
	scope     *scope.Ring
	rnd       *rand.Rand

	preset       int
	kind         wave.Kind
	kindOverride bool
	ccVolume     float64
	vibratoScale float64
	gain         float64
	clock        float64
	dt           float64

	frame    [osc.MaxChannels]float64
	voiceOut [osc.MaxChannels]float64

	droppedNotes atomic.Uint64
	audible      atomic.Int32
	frames       atomic.Uint64
}

// NewPool validates p and allocates everything the render path needs.
func NewPool(p Params) (*Pool, error) {
	cfg, err := NewConfig(p)
	if err != nil {
		return nil, err
	}
	seed := p.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	sr := float64(p.SampleRate)
	pool := &Pool{
		voices:       make([]Voice, p.Voices),
		queue:        NewQueue(DefaultQueueSize),
		echo:         effects.NewEcho(p.Channels, sr, p.DelaySeconds),
		rnd:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ccVolume:     1,
		vibratoScale: 1,
		dt:           1 / sr,
		gain:         math.Sqrt(float64(p.Voices)),
	}
	pool.configure(cfg)
	for i := range pool.voices {
		v := &pool.voices[i]
		v.Layer = pool.templates[pool.preset]
		v.clear()
	}
	return pool, nil
}

// SetScope attaches the display ring. Call before the first Process.
func (p *Pool) SetScope(r *scope.Ring) { p.scope = r }

func (p *Pool) Queue() *Queue { return p.queue }
func (p *Pool) Echo() *effects.Echo { return p.echo }
func (p *Pool) Params() Params { return p.params }
func (p *Pool) Channels() int { return p.params.Channels }
func (p *Pool) Voice(i int) *Voice { return &p.voices[i] }
func (p *Pool) NumVoices() int { return len(p.voices) }
func (p *Pool) Gain() float64 { return p.gain }
func (p *Pool) Preset() int { return p.preset }
func (p *Pool) Kind() (wave.Kind, bool) { return p.kind, p.kindOverride }

func (p *Pool) Stats() Stats {
	return Stats{
		DroppedNotes:    p.droppedNotes.Load(),
		DroppedCommands: p.queue.Dropped(),
		AudibleVoices:   int(p.audible.Load()),
		Frames:          p.frames.Load(),
	}
}

// Reconfigure applies c directly. Fields that size buffers must match.
func (p *Pool) Reconfigure(c *Config) error {
	if field, ok := p.params.Immutable(c.Params); ok {
		return configErr(field, "changed", ErrRestart)
	}
	p.configure(c)
	return nil
}

func (p *Pool) configure(c *Config) {
	prev := p.params
	p.params = c.Params
	p.templates = c.templates
	sr := float64(p.params.SampleRate)
	p.ctx = osc.NewContext(sr, p.params.OscGain, p.params.FilterHighHz, p.params.FilterLowHz,
		p.params.DCBlockHz, lfo.Vibrato{
			Rate:  p.params.VibratoRate,
			Depth: p.params.VibratoDepth,
			Onset: p.params.VibratoOnset,
		})
	p.ctx.Vibrato.Depth *= p.vibratoScale
	p.echo.Gain = p.params.DelayGain
	p.echo.Feedback = p.params.DelayFeedback
	p.echo.Mix = p.params.DelayMix
	if prev.DelaySeconds != p.params.DelaySeconds {
		p.echo.SetDelay(p.params.DelaySeconds, sr)
	}
	p.echo.SetActive(p.params.DelayEnabled)
	if p.preset >= len(p.templates) || prev.Preset != p.params.Preset {
		p.preset = p.params.Preset
	}
}

// Handle routes a decoded MIDI event.
func (p *Pool) Handle(ev midi.Event) {
	switch ev.Status {
	case midi.NoteOn:
		p.NoteOn(ev.Data1, ev.Data2)
	case midi.NoteOff:
		p.NoteOff(ev.Data1)
	case midi.ControlChange:
		p.ApplyControl(ev.Data1, ev.Data2)
	}
}

// NoteOn starts key at the given velocity. A key that is already held or
// releasing is retriggered in its voice. Otherwise the first free voice is
// taken; when none is free the note is dropped (or a voice stolen, per
// Params.Stealing) and false is returned. Velocity 0 is a Note-Off.
func (p *Pool) NoteOn(key, velocity int) bool {
	if velocity <= 0 {
		p.NoteOff(key)
		return true
	}
	if key < 0 || key > 127 {
		return false
	}
	amp := VelocityGain(velocity)
	freq := midi.NoteToFreq(key)

	for i := range p.voices {
		v := &p.voices[i]
		if v.Key == key && !v.Free() {
			v.Active = true
			v.Amplitude = amp
			v.Layer.Retrigger(freq)
			return true
		}
	}

	idx := -1
	for i := range p.voices {
		if p.voices[i].Free() {
			idx = i
			break
		}
	}
	if idx < 0 && p.params.Stealing == StealQuietest {
		idx = p.quietest()
	}
	if idx < 0 {
		p.droppedNotes.Add(1)
		return false
	}

	v := &p.voices[idx]
	v.Layer = p.templates[p.preset]
	if p.kindOverride {
		v.Layer.SetKind(p.kind)
	}
	v.Layer.Start(freq, p.rnd)
	v.Active = true
	v.Key = key
	v.Amplitude = amp
	return true
}

// quietest prefers a releasing voice over a held one, then the lowest level.
func (p *Pool) quietest() int {
	best := -1
	var bestHeld bool
	var bestLevel float64
	for i := range p.voices {
		v := &p.voices[i]
		level := v.Layer.Level() * v.Amplitude
		if best < 0 || (bestHeld && !v.Active) || (bestHeld == v.Active && level < bestLevel) {
			best, bestHeld, bestLevel = i, v.Active, level
		}
	}
	return best
}

// NoteOff releases every held voice on key. The tail keeps sounding until
// its envelope reaches Off.
func (p *Pool) NoteOff(key int) bool {
	found := false
	for i := range p.voices {
		v := &p.voices[i]
		if v.Active && v.Key == key {
			v.Layer.Release()
			v.Active = false
			found = true
		}
	}
	return found
}

func (p *Pool) AllNotesOff() {
	for i := range p.voices {
		v := &p.voices[i]
		if v.Active {
			v.Layer.Release()
			v.Active = false
		}
	}
}

// AllSoundOff silences every voice and the echo immediately.
func (p *Pool) AllSoundOff() {
	for i := range p.voices {
		p.voices[i].clear()
	}
	p.echo.Reset()
}

// ApplyControl handles a control change through the Controls map. Waveform
// and preset changes apply to notes started afterwards.
func (p *Pool) ApplyControl(cc, value int) {
	if value < 0 {
		value = 0
	}
	if value > 127 {
		value = 127
	}
	c := p.params.Controls
	switch cc {
	case ccAllSoundOff:
		p.AllSoundOff()
	case ccAllNotesOff:
		p.AllNotesOff()
	case c.Volume:
		p.ccVolume = float64(value) / 127
	case c.VibratoDepth:
		// 64 is unity, 127 about double.
		p.vibratoScale = float64(value) / 64
		p.ctx.Vibrato.Depth = p.params.VibratoDepth * p.vibratoScale
	case c.Waveform:
		p.kind = wave.FromController(value)
		p.kindOverride = true
	case c.NextPreset:
		if value > 0 {
			p.SelectPreset(p.preset + 1)
		}
	case c.PrevPreset:
		if value > 0 {
			p.SelectPreset(p.preset - 1)
		}
	case c.DelayToggle:
		p.SetDelayEnabled(value >= 64)
	}
}

// SelectPreset switches the layer used by new notes, wrapping at both ends,
// and clears any waveform override.
func (p *Pool) SelectPreset(i int) {
	n := len(p.templates)
	p.preset = ((i % n) + n) % n
	p.kindOverride = false
}

func (p *Pool) SetDelayEnabled(on bool) {
	p.params.DelayEnabled = on
	p.echo.SetActive(on)
}

func (p *Pool) SetMasterVolume(v float64) {
	p.params.MasterVolume = dsp.Clamp(v, 0, 4)
}

func (p *Pool) apply(c Command) {
	switch c.Kind {
	case CmdNoteOn:
		p.NoteOn(c.Key, c.Value)
	case CmdNoteOff:
		p.NoteOff(c.Key)
	case CmdControl:
		p.ApplyControl(c.Key, c.Value)
	case CmdAllNotesOff:
		p.AllNotesOff()
	case CmdConfig:
		if c.Config != nil {
			_ = p.Reconfigure(c.Config)
		}
	case CmdVolume:
		p.SetMasterVolume(c.Amount)
	case CmdDelay:
		p.SetDelayEnabled(c.Value != 0)
	case CmdPreset:
		p.SelectPreset(c.Value)
	}
}

// Process drains pending commands, then renders len(dst)/channels
// interleaved frames into dst. A trailing partial frame is zeroed.
func (p *Pool) Process(dst []float32) {
drain:
	for {
		select {
		case c := <-p.queue.ch:
			p.apply(c)
		default:
			break drain
		}
	}

	ch := p.params.Channels
	n := len(dst) / ch
	audible := 0
	for i := 0; i < n; i++ {
		audible = p.renderFrame(dst[i*ch : i*ch+ch])
	}
	clear(dst[n*ch:])
	p.audible.Store(int32(audible))
	p.frames.Add(uint64(n))
}

func (p *Pool) renderFrame(out []float32) int {
	prm := &p.params
	frame := p.frame[:len(out)]
	clear(frame)

	trem := lfo.Tremolo(prm.TremoloRate, prm.TremoloDepth, p.clock)
	vmax := float64(len(p.voices))
	audible := 0
	for i := range p.voices {
		v := &p.voices[i]
		if !v.Audible() {
			if v.Key >= 0 && !v.Active {
				v.clear()
			}
			continue
		}
		audible++
		vo := p.voiceOut[:len(out)]
		clear(vo)
		v.Layer.Next(&p.ctx, vo)
		g := v.Amplitude * prm.VoiceGain * trem
		for c := range frame {
			frame[c] += dsp.SoftClip(vo[c]*g) / vmax
		}
	}

	target := math.Sqrt(vmax / float64(max(1, audible)))
	p.gain += dsp.LinearInterpolate(target, p.gain, prm.GainSmoothing)
	for c := range frame {
		frame[c] *= p.gain
	}

	p.echo.Process(frame)

	vol := prm.MasterVolume * p.ccVolume
	var mono float64
	for c := range frame {
		s := dsp.Quantize(frame[c]*vol, prm.QuantizeBits)
		s = dsp.Clamp(s, -1, 1)
		out[c] = float32(s)
		mono += s
	}
	if p.scope != nil {
		p.scope.Push(float32(mono / float64(len(frame))))
	}
	p.clock += p.dt
	return audible
}
