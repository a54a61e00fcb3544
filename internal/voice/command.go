package voice

import "sync/atomic"

// DefaultQueueSize is the command capacity between two audio buffers.
const DefaultQueueSize = 256

type CommandKind int

const (
	CmdNoteOn CommandKind = iota
	CmdNoteOff
	CmdControl
	CmdAllNotesOff
	CmdConfig
	CmdVolume
	CmdDelay
	CmdPreset
)

// Command is one event for the audio goroutine. Key and Value carry the MIDI
// data bytes; Amount carries float settings; Config carries a prepared
// parameter set for CmdConfig.
type Command struct {
	Kind   CommandKind
	Key    int
	Value  int
	Amount float64
	Config *Config
}

func NoteOn(key, velocity int) Command { return Command{Kind: CmdNoteOn, Key: key, Value: velocity} }
func NoteOff(key int) Command           { return Command{Kind: CmdNoteOff, Key: key} }
func Control(cc, value int) Command     { return Command{Kind: CmdControl, Key: cc, Value: value} }

// Queue hands commands from event goroutines to the audio goroutine.
// Push never blocks; a full queue drops the command and counts it.
type Queue struct {
	ch      chan Command
	dropped atomic.Uint64
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Command, size)}
}

func (q *Queue) Push(c Command) bool {
	select {
	case q.ch <- c:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

func (q *Queue) Len() int { return len(q.ch) }
