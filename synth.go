package sgsa

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	intaudio "github.com/cbegin/sgsa-go/internal/audio"
	intmidi "github.com/cbegin/sgsa-go/internal/midi"
	intscope "github.com/cbegin/sgsa-go/internal/scope"
	intvoice "github.com/cbegin/sgsa-go/internal/voice"
)

type (
	Params      = intvoice.Params
	Stats       = intvoice.Stats
	StealPolicy = intvoice.StealPolicy
	Event       = intmidi.Event
)

const (
	StealNone     = intvoice.StealNone
	StealQuietest = intvoice.StealQuietest
)

func DefaultParams() Params { return intvoice.DefaultParams() }

// Backend selects the output device driver used by Start.
type Backend string

const (
	BackendOto    Backend = "oto"
	BackendEbiten Backend = "ebiten"
	BackendNone   Backend = "none"
)

var (
	ErrRunning   = errors.New("synth already started")
	ErrQueueFull = errors.New("command queue full")
)

type Option func(*synthConfig)

type synthConfig struct {
	logger        *slog.Logger
	backend       Backend
	sampleTap     func([]float32)
	scopeCapacity int
}

func defaultSynthConfig() synthConfig {
	return synthConfig{backend: BackendOto, scopeCapacity: intscope.DefaultCapacity}
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *synthConfig) {
		cfg.logger = l
	}
}

func WithBackend(b Backend) Option {
	return func(cfg *synthConfig) {
		cfg.backend = b
	}
}

// WithSampleTap installs a callback invoked with each rendered buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *synthConfig) {
		cfg.sampleTap = tap
	}
}

// WithScope sets the capacity of the waveform display ring.
func WithScope(capacity int) Option {
	return func(cfg *synthConfig) {
		cfg.scopeCapacity = capacity
	}
}

// Synth is the live engine. Note and control methods may be called from any
// goroutine: they enqueue commands that the audio thread applies at the start
// of its next buffer. They return false when the queue is full.
type Synth struct {
	mu        sync.Mutex
	params    Params
	pool      *intvoice.Pool
	queue     *intvoice.Queue
	scope     *intscope.Ring
	backend   Backend
	out       intaudio.Backend
	logger    *slog.Logger
	sampleTap func([]float32)
}

// New validates p and builds the engine. Invalid configuration is returned as
// a *voice.ConfigError before any device is touched.
func New(p Params, opts ...Option) (*Synth, error) {
	cfg := defaultSynthConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	pool, err := intvoice.NewPool(p)
	if err != nil {
		return nil, err
	}
	ring := intscope.NewRing(cfg.scopeCapacity)
	pool.SetScope(ring)
	s := &Synth{
		params:    p,
		pool:      pool,
		queue:     pool.Queue(),
		scope:     ring,
		backend:   cfg.backend,
		logger:    cfg.logger,
		sampleTap: cfg.sampleTap,
	}
	s.logger.Info("synth configured", paramAttrs(p)...)
	return s, nil
}

func paramAttrs(p Params) []any {
	preset := ""
	if p.Preset >= 0 && p.Preset < len(p.Presets) {
		preset = p.Presets[p.Preset].Name
	}
	return []any{
		"sample_rate", p.SampleRate,
		"channels", p.Channels,
		"buffer_frames", p.BufferFrames,
		"voices", p.Voices,
		"volume", p.MasterVolume,
		"voice_gain", p.VoiceGain,
		"osc_gain", p.OscGain,
		"delay", p.DelayEnabled,
		"delay_gain", p.DelayGain,
		"delay_feedback", p.DelayFeedback,
		"delay_seconds", p.DelaySeconds,
		"vibrato_rate", p.VibratoRate,
		"vibrato_depth", p.VibratoDepth,
		"vibrato_onset", p.VibratoOnset,
		"tremolo_depth", p.TremoloDepth,
		"bits", p.QuantizeBits,
		"steal", p.Stealing.String(),
		"preset", preset,
	}
}

// Process renders interleaved frames into dst. It is the audio callback and
// is called by the backend; offline callers may drive it directly when no
// backend is started.
func (s *Synth) Process(dst []float32) {
	s.pool.Process(dst)
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
}

// Start opens the configured backend and begins playback.
func (s *Synth) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		return ErrRunning
	}
	p := s.params
	var (
		out intaudio.Backend
		err error
	)
	switch s.backend {
	case BackendOto:
		out, err = intaudio.NewOtoPlayer(p.SampleRate, p.Channels, p.BufferFrames, s)
	case BackendEbiten:
		out, err = intaudio.NewPlayer(p.SampleRate, p.Channels, p.BufferFrames, s)
	case BackendNone:
		return nil
	default:
		err = fmt.Errorf("unknown audio backend %q", s.backend)
	}
	if err != nil {
		return fmt.Errorf("open %s audio: %w", s.backend, err)
	}
	out.Play()
	s.out = out
	s.logger.Info("audio started", "backend", string(s.backend), "sample_rate", p.SampleRate, "channels", p.Channels)
	return nil
}

func (s *Synth) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		s.out.Pause()
	}
}

func (s *Synth) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		s.out.Play()
	}
}

func (s *Synth) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		return nil
	}
	err := s.out.Stop()
	s.out = nil
	s.logger.Info("audio stopped", "backend", string(s.backend))
	return err
}

// Output returns the running backend, or nil.
func (s *Synth) Output() intaudio.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out
}

func (s *Synth) push(c intvoice.Command) bool { return s.queue.Push(c) }

func (s *Synth) NoteOn(key, velocity int) bool { return s.push(intvoice.NoteOn(key, velocity)) }
func (s *Synth) NoteOff(key int) bool          { return s.push(intvoice.NoteOff(key)) }
func (s *Synth) Control(cc, value int) bool    { return s.push(intvoice.Control(cc, value)) }

func (s *Synth) AllNotesOff() bool {
	return s.push(intvoice.Command{Kind: intvoice.CmdAllNotesOff})
}

// Handle enqueues a decoded MIDI event.
func (s *Synth) Handle(ev Event) bool {
	switch ev.Status {
	case intmidi.NoteOn:
		return s.NoteOn(ev.Data1, ev.Data2)
	case intmidi.NoteOff:
		return s.NoteOff(ev.Data1)
	case intmidi.ControlChange:
		return s.Control(ev.Data1, ev.Data2)
	}
	return true
}

// SetMasterVolume sets the runtime volume scalar, clamped to [0, 4].
func (s *Synth) SetMasterVolume(v float64) bool {
	v = max(0, min(4, v))
	s.mu.Lock()
	s.params.MasterVolume = v
	s.mu.Unlock()
	return s.push(intvoice.Command{Kind: intvoice.CmdVolume, Amount: v})
}

func (s *Synth) SetDelayEnabled(on bool) bool {
	s.mu.Lock()
	s.params.DelayEnabled = on
	s.mu.Unlock()
	v := 0
	if on {
		v = 1
	}
	return s.push(intvoice.Command{Kind: intvoice.CmdDelay, Value: v})
}

// SelectPreset switches the layer used by new notes. The index wraps.
func (s *Synth) SelectPreset(i int) bool {
	return s.push(intvoice.Command{Kind: intvoice.CmdPreset, Value: i})
}

// SetParams validates p on the caller's goroutine and hands it to the audio
// thread. Sample rate, channel count and polyphony cannot change.
func (s *Synth) SetParams(p Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if field, ok := s.params.Immutable(p); ok {
		return &intvoice.ConfigError{Field: field, Value: "changed", Err: intvoice.ErrRestart}
	}
	cfg, err := intvoice.NewConfig(p)
	if err != nil {
		return err
	}
	if !s.push(intvoice.Command{Kind: intvoice.CmdConfig, Config: cfg}) {
		return fmt.Errorf("apply params: %w", ErrQueueFull)
	}
	s.params = p
	s.logger.Info("params updated", paramAttrs(p)...)
	return nil
}

// Params returns the last parameters accepted by New or SetParams.
func (s *Synth) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *Synth) Stats() Stats { return s.pool.Stats() }

// Scope is the display ring of recently rendered samples.
func (s *Synth) Scope() *intscope.Ring { return s.scope }

// PresetNames lists the configured presets in selection order.
func (s *Synth) PresetNames() []string {
	p := s.Params()
	names := make([]string, len(p.Presets))
	for i, pr := range p.Presets {
		names[i] = pr.Name
	}
	return names
}
