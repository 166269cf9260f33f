package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tphakala/simd/f32"
	wav "github.com/youpy/go-wav"

	"github.com/mrdg/juno/audio"
	"github.com/mrdg/juno/internal/analysis"
)

const (
	bounceChannels = 2
	bounceBits     = 16
	releaseShare   = 0.75 // of the rendered length that notes are held
)

// bounce holds notes for most of the rendered length and writes the mix as
// 16 bit stereo WAV.
func bounce(w io.Writer, mixer *audio.Mixer, player player, notes []int, sampleRate float64, bufferSize int, seconds float64) error {
	total := int(seconds * sampleRate)
	release := int(float64(total) * releaseShare)

	writer := wav.NewWriter(w, uint32(total), bounceChannels, uint32(sampleRate), bounceBits)
	buf := [][]float32{make([]float32, bufferSize), make([]float32, bufferSize)}
	interleaved := make([]float32, bounceChannels*bufferSize)
	samples := make([]wav.Sample, bufferSize)

	for _, n := range notes {
		player.NoteOn(0, n, 1)
	}
	for pos := 0; pos < total; pos += bufferSize {
		if pos <= release && release < pos+bufferSize {
			for _, n := range notes {
				player.NoteOff(0, n, 0)
			}
		}
		n := bufferSize
		if total-pos < n {
			n = total - pos
		}
		frame := [][]float32{buf[0][:n], buf[1][:n]}
		mixer.Process(frame)

		f32.Interleave2(interleaved[:2*n], frame[0], frame[1])
		f32.Scale(interleaved[:2*n], interleaved[:2*n], 32767)
		for i := 0; i < n; i++ {
			samples[i].Values = [2]int{toInt16(interleaved[2*i]), toInt16(interleaved[2*i+1])}
		}
		if err := writer.WriteSamples(samples[:n]); err != nil {
			return fmt.Errorf("write samples: %w", err)
		}
	}
	return nil
}

func toInt16(v float32) int {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int(v)
}

func bounceFile(path string, mixer *audio.Mixer, player player, notes []int, sampleRate float64, bufferSize int, seconds float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bounce(f, mixer, player, notes, sampleRate, bufferSize, seconds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseNotes(s string) ([]int, error) {
	var notes []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("bad note %q: %w", field, err)
		}
		if err := checkNote(n); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func analyzeFile(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	a, err := analysis.ReadWAV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	seconds := 0.0
	if len(a.Channels) > 0 && a.SampleRate > 0 {
		seconds = float64(len(a.Channels[0])) / float64(a.SampleRate)
	}
	fmt.Fprintf(w, "%s: %d Hz, %d channels, %.2f s\n", path, a.SampleRate, len(a.Channels), seconds)
	for _, r := range analysis.Analyze(a) {
		fmt.Fprintln(w, r)
	}
	return nil
}
