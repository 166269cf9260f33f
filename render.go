package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrdg/juno/synth"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteName formats a MIDI note number with middle C as C4.
func noteName(note int) string {
	if note < 0 || note > 127 {
		return "-"
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
}

func renderVoices(voices [synth.NumVoices]synth.VoiceInfo, w io.Writer) {
	for i, v := range voices {
		id := colorize(fmt.Sprintf("%d", i+1), colorMagenta)
		if !v.Active {
			fmt.Fprintf(w, "%s ○ %-4s %s\n", id, "", colorize("idle", colorBlack))
			continue
		}
		color := colorGreen
		if v.Stage == synth.StageRelease {
			color = colorYellow
		}
		fmt.Fprintf(w, "%s %s %-4s %s\n", id, colorize("●", color), noteName(v.Note), v.Stage)
	}
}

func renderParams(p synth.Params, w io.Writer) {
	var width int
	for id := synth.ParamID(0); id < synth.NumParams; id++ {
		if n := len(id.String()); n > width {
			width = n
		}
	}
	for id := synth.ParamID(0); id < synth.NumParams; id++ {
		name := id.String()
		name += strings.Repeat(" ", width-len(name))
		fmt.Fprintf(w, "%s %s\n", colorize(name, colorBlue), p.Format(id))
	}
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
