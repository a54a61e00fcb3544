// Package midi turns gomidi messages into the three events the synth
// understands and wraps input port discovery. A driver must be registered by
// the binary, e.g. by importing gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
package midi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

const (
	A4     = 69
	A4Freq = 440.0
)

type Status int

const (
	None Status = iota
	NoteOn
	NoteOff
	ControlChange
)

func (s Status) String() string {
	switch s {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	case ControlChange:
		return "control-change"
	default:
		return "none"
	}
}

// Event is a decoded channel message. Data1 is the key or controller number,
// Data2 the velocity or controller value.
type Event struct {
	Status  Status
	Channel int
	Data1   int
	Data2   int
}

var ErrPortNotFound = errors.New("midi input port not found")

// Decode maps msg onto an Event. Note-On with velocity 0 decodes as Note-Off.
// Messages the synth does not use return false.
func Decode(msg gomidi.Message) (Event, bool) {
	var ch, a, b uint8
	switch {
	case msg.GetNoteStart(&ch, &a, &b):
		return Event{Status: NoteOn, Channel: int(ch), Data1: int(a), Data2: int(b)}, true
	case msg.GetNoteEnd(&ch, &a):
		return Event{Status: NoteOff, Channel: int(ch), Data1: int(a)}, true
	case msg.GetControlChange(&ch, &a, &b):
		return Event{Status: ControlChange, Channel: int(ch), Data1: int(a), Data2: int(b)}, true
	}
	return Event{}, false
}

// DecodeBytes decodes a raw three byte channel message.
func DecodeBytes(status, data1, data2 byte) (Event, bool) {
	return Decode(gomidi.Message{status, data1 & 0x7f, data2 & 0x7f})
}

// NoteToFreq is the equal tempered frequency of MIDI note n, A4 = 440 Hz.
func NoteToFreq(n int) float64 {
	return A4Freq * math.Pow(2, float64(n-A4)/12)
}

// Ports lists the input port names of the registered driver.
func Ports() []string {
	var names []string
	for _, in := range gomidi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// FindPort resolves name against the input ports: an exact match first, then
// the first port whose name contains it (case-insensitive).
func FindPort(name string) (drivers.In, error) {
	ins := gomidi.GetInPorts()
	for _, in := range ins {
		if in.String() == name {
			return in, nil
		}
	}
	lower := strings.ToLower(name)
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), lower) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPortNotFound, name)
}

// Listen opens the named input port and calls fn for every decoded event
// until ctx is done. fn runs on the driver's goroutine. A listener error
// ends Listen early and is returned.
func Listen(ctx context.Context, name string, fn func(Event)) error {
	in, err := FindPort(name)
	if err != nil {
		return err
	}
	if !in.IsOpen() {
		if err := in.Open(); err != nil {
			return fmt.Errorf("open midi port %q: %w", in.String(), err)
		}
	}
	defer in.Close()

	listenErr := make(chan error, 1)
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		if ev, ok := Decode(msg); ok {
			fn(ev)
		}
	}, gomidi.HandleError(func(err error) {
		select {
		case listenErr <- err:
		default:
		}
	}))
	if err != nil {
		return fmt.Errorf("listen on midi port %q: %w", in.String(), err)
	}
	defer stop()

	select {
	case <-ctx.Done():
		return nil
	case err := <-listenErr:
		return fmt.Errorf("midi port %q: %w", in.String(), err)
	}
}

// Close releases the registered driver.
func Close() { gomidi.CloseDriver() }
