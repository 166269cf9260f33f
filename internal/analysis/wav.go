package analysis

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("invalid WAV file")

// Audio is decoded PCM audio with one slice per channel, scaled to [-1, 1].
type Audio struct {
	SampleRate int
	Channels   [][]float64
}

func ReadWAV(r io.ReadSeeker) (*Audio, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode WAV: %w", err)
	}
	format := buf.Format
	if format == nil || format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidWAV)
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, bitDepth)
	}

	return &Audio{SampleRate: format.SampleRate, Channels: deinterleave(buf, bitDepth)}, nil
}

// deinterleave splits buf into channels scaled to [-1, 1].
func deinterleave(buf *audio.IntBuffer, bitDepth int) [][]float64 {
	numChannels := buf.Format.NumChannels
	scale := 1 / math.Exp2(float64(bitDepth-1))
	channels := make([][]float64, numChannels)
	frames := len(buf.Data) / numChannels
	for c := range channels {
		channels[c] = make([]float64, frames)
	}
	for i, v := range buf.Data[:frames*numChannels] {
		channels[i%numChannels][i/numChannels] = float64(v) * scale
	}
	return channels
}

// Report summarizes one channel.
type Report struct {
	Channel int
	RMS     float64
	Peak    float64
	PeakHz  float64
}

func Analyze(a *Audio) []Report {
	reports := make([]Report, len(a.Channels))
	for c, samples := range a.Channels {
		reports[c] = Report{
			Channel: c,
			RMS:     RMS(samples),
			Peak:    Peak(samples),
			PeakHz:  PeakFrequency(samples, float64(a.SampleRate)),
		}
	}
	return reports
}

func (r Report) String() string {
	return fmt.Sprintf("channel %d: rms %.1f dBFS, peak %.1f dBFS, strongest partial %.1f Hz",
		r.Channel, DBFS(r.RMS), DBFS(r.Peak), r.PeakHz)
}
