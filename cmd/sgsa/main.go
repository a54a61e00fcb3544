package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cbegin/sgsa-go"
	"github.com/cbegin/sgsa-go/internal/cli"
	"github.com/cbegin/sgsa-go/internal/midi"
)

const framePeriod = time.Second / 60

var logger *slog.Logger

func initLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, AddSource: debug})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func fatal(msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}

func main() {
	params := sgsa.DefaultParams()
	pf := cli.BindFlags(flag.CommandLine, &params)
	var (
		debug   = flag.Bool("debug", false, "debug logging with source locations")
		list    = flag.Bool("list", false, "list MIDI input ports and exit")
		wavPath = flag.String("wav", "", "render a demo phrase to this WAV file and exit")
		seconds = flag.Float64("seconds", 4, "length of the -wav demo")
		hold    = flag.Duration("hold", 400*time.Millisecond, "how long a typed key sounds")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [midi-port]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	device := flag.Arg(0)
	interactive := device == "" && *wavPath == "" && !*list
	if interactive {
		initLogger(&crlfWriter{w: os.Stderr}, *debug)
	} else {
		initLogger(os.Stderr, *debug)
	}

	if *list {
		for _, name := range midi.Ports() {
			fmt.Println(name)
		}
		midi.Close()
		return
	}
	if err := pf.Apply(); err != nil {
		fatal("invalid configuration", err)
	}
	if *wavPath != "" {
		if err := renderDemo(params, *wavPath, *seconds); err != nil {
			fatal("render demo", err)
		}
		logger.Info("wrote demo", "path", *wavPath, "seconds", *seconds)
		return
	}

	synth, err := sgsa.New(params, sgsa.WithLogger(logger), sgsa.WithBackend(sgsa.BackendOto))
	if err != nil {
		fatal("invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var kb *keyboard
	if device != "" {
		in, err := midi.FindPort(device)
		if err != nil {
			fatal("open midi port", fmt.Errorf("open midi port %q: %w", device, err))
		}
		logger.Info("listening", "port", in.String())
		defer midi.Close()
		go func() {
			err := midi.Listen(ctx, in.String(), func(ev midi.Event) { synth.Handle(ev) })
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("midi input", "err", err)
				stop()
			}
		}()
	} else {
		kb = newKeyboard()
		if err := kb.Start(); err != nil {
			fatal("keyboard input", err)
		}
		defer kb.Stop()
		logger.Info(cli.Help)
	}

	if err := synth.Start(); err != nil {
		if kb != nil {
			kb.Stop()
		}
		fatal("start audio", err)
	}
	defer synth.Stop()

	run(ctx, stop, synth, kb, *hold)
}

// run is the event loop. Each iteration handles typed keys, releases keys
// whose hold expired, reports drops, then sleeps out the rest of the frame.
func run(ctx context.Context, stop context.CancelFunc, synth *sgsa.Synth, kb *keyboard, hold time.Duration) {
	state := &keyState{
		synth:   synth,
		hold:    hold,
		held:    map[int]time.Time{},
		volume:  synth.Params().MasterVolume,
		delayOn: synth.Params().DelayEnabled,
	}
	var last sgsa.Stats
	lastReport := time.Now()
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return
		default:
		}

		if kb != nil {
		keys:
			for {
				select {
				case b := <-kb.Keys:
					if !state.key(b, start) {
						stop()
						return
					}
				default:
					break keys
				}
			}
			state.expire(start)
		}

		st := synth.Stats()
		if st.DroppedNotes > last.DroppedNotes {
			logger.Warn("voices exhausted", "dropped_notes", st.DroppedNotes-last.DroppedNotes)
		}
		if st.DroppedCommands > last.DroppedCommands {
			logger.Warn("command queue full", "dropped_commands", st.DroppedCommands-last.DroppedCommands)
		}
		if start.Sub(lastReport) >= time.Second {
			logger.Debug("stats", "audible", st.AudibleVoices, "frames", st.Frames)
			lastReport = start
		}
		last = st

		if elapsed := time.Since(start); elapsed < framePeriod {
			time.Sleep(framePeriod - elapsed)
		}
	}
}

type keyState struct {
	synth   *sgsa.Synth
	hold    time.Duration
	held    map[int]time.Time
	octave  int
	preset  int
	volume  float64
	delayOn bool
}

// key handles one typed byte and reports false when the user asked to quit.
func (k *keyState) key(b byte, now time.Time) bool {
	switch b {
	case 0x03, 0x1b:
		return false
	case ' ':
		k.synth.AllNotesOff()
		clear(k.held)
	case '[', ']':
		if b == '[' {
			k.preset--
		} else {
			k.preset++
		}
		k.synth.SelectPreset(k.preset)
		names := k.synth.PresetNames()
		i := ((k.preset % len(names)) + len(names)) % len(names)
		logger.Info("preset", "name", names[i])
	case '-', '=':
		if b == '-' {
			k.volume = max(0, k.volume-0.1)
		} else {
			k.volume = min(4, k.volume+0.1)
		}
		k.synth.SetMasterVolume(k.volume)
		logger.Info("volume", "value", fmt.Sprintf("%.1f", k.volume))
	case '<', '>':
		if b == '<' {
			k.octave = max(-4, k.octave-1)
		} else {
			k.octave = min(4, k.octave+1)
		}
		logger.Info("octave", "shift", k.octave)
	case '\\':
		k.delayOn = !k.delayOn
		k.synth.SetDelayEnabled(k.delayOn)
		logger.Info("delay", "enabled", k.delayOn)
	default:
		key, ok := cli.KeyNote(rune(b), k.octave)
		if !ok {
			return true
		}
		if !k.synth.NoteOn(key, 100) {
			return true
		}
		k.held[key] = now.Add(k.hold)
	}
	return true
}

func (k *keyState) expire(now time.Time) {
	for key, until := range k.held {
		if now.After(until) {
			k.synth.NoteOff(key)
			delete(k.held, key)
		}
	}
}

// renderDemo writes an arpeggio followed by a held chord.
func renderDemo(p sgsa.Params, path string, seconds float64) error {
	if p.Seed == 0 {
		p.Seed = 1
	}
	frames := int(seconds * float64(p.SampleRate))
	step := p.SampleRate / 4
	var events []sgsa.TimedEvent
	note := func(at, length, key int) {
		events = append(events,
			sgsa.TimedEvent{Frame: at, Event: midi.Event{Status: midi.NoteOn, Data1: key, Data2: 100}},
			sgsa.TimedEvent{Frame: at + length, Event: midi.Event{Status: midi.NoteOff, Data1: key}},
		)
	}
	for i, key := range []int{60, 64, 67, 72, 67, 64} {
		note(i*step, step, key)
	}
	chord := 6 * step
	for _, key := range []int{48, 60, 64, 67} {
		note(chord, 4*step, key)
	}

	samples, err := sgsa.Render(p, events, frames)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sgsa.WriteWAV(f, samples, p.SampleRate, p.Channels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
