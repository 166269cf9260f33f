package dub

import (
	"strconv"
	"unicode"
)

// Note is a note name such as c4 or F#3, with middle C as C4.
type Note struct {
	Name   string
	Number int // MIDI note number
}

func (Note) isNode() {}

var semitones = map[rune]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

// NoteNumber returns the MIDI number of a note name: a letter from A to G,
// an optional sharp (#) or flat (b) and an octave from -1 to 9.
func NoteNumber(name string) (int, bool) {
	r := []rune(name)
	if len(r) < 2 {
		return 0, false
	}
	semitone, ok := semitones[unicode.ToLower(r[0])]
	if !ok {
		return 0, false
	}
	rest := r[1:]
	switch rest[0] {
	case '#':
		semitone++
		rest = rest[1:]
	case 'b':
		semitone--
		rest = rest[1:]
	}
	if len(rest) == 0 || len(rest) > 2 || (len(rest) == 2 && rest[0] != '-') {
		return 0, false
	}
	octave, err := strconv.Atoi(string(rest))
	if err != nil || octave < -1 || octave > 9 {
		return 0, false
	}
	n := (octave+1)*12 + semitone
	if n < 0 || n > 127 {
		return 0, false
	}
	return n, true
}
