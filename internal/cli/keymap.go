package cli

import "strings"

// Two tracker style rows: z..m is the lower octave, q..u the upper, with the
// sharps on the row above each.
const (
	lowerRow = "zsxdcvgbhnjm"
	upperRow = "q2w3er5t6y7u"

	// BaseKey is the MIDI key of 'z' at octave shift 0 (C3).
	BaseKey = 48
)

// KeyNote maps a typed character to a MIDI key transposed by octave. Keys
// outside 0..127 are rejected.
func KeyNote(r rune, octave int) (int, bool) {
	idx := -1
	if i := strings.IndexRune(lowerRow, r); i >= 0 {
		idx = i
	} else if i := strings.IndexRune(upperRow, r); i >= 0 {
		idx = i + 12
	} else if r == ',' {
		idx = 12
	} else if r == 'i' {
		idx = 24
	}
	if idx < 0 {
		return 0, false
	}
	key := BaseKey + octave*12 + idx
	if key < 0 || key > 127 {
		return 0, false
	}
	return key, true
}

// Help is a one line legend of the keyboard controls.
const Help = "keys: z-m / q-u play, [ ] preset, - = volume, < > octave, \\ delay, space all off, esc quit"
