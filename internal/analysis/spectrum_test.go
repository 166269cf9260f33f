package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdg/juno/synth"
)

const sampleRate = 48000.0

func sine(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func TestPeakFrequencySine(t *testing.T) {
	for _, freq := range []float64{100, 440, 1000, 5123} {
		assert.InDelta(t, freq, PeakFrequency(sine(freq, 16384), sampleRate), 1, "%v Hz", freq)
	}
}

func TestPeakFrequencyIgnoresDC(t *testing.T) {
	samples := sine(440, 8192)
	for i := range samples {
		samples[i] = 3 + 0.1*samples[i]
	}
	assert.InDelta(t, 440, PeakFrequency(samples, sampleRate), 2)
}

func TestSpectrumBins(t *testing.T) {
	s := NewSpectrum(make([]float64, 1024), sampleRate)
	assert.Len(t, s.Magnitudes, 513)
	assert.Equal(t, 0.0, s.Frequency(0))
	assert.InDelta(t, sampleRate/2, s.Frequency(512), 1e-9)
	assert.Equal(t, -1, s.PeakBin(sampleRate))
}

func TestLevels(t *testing.T) {
	samples := sine(1000, 4800) // whole number of periods
	assert.InDelta(t, 1/math.Sqrt2, RMS(samples), 1e-9)
	assert.InDelta(t, 1, Peak(samples), 1e-9)
	assert.InDelta(t, -3.0103, DBFS(RMS(samples)), 1e-3)
	assert.True(t, math.IsInf(DBFS(0), -1))
	assert.Zero(t, RMS(nil))
}

func renderVoice(t *testing.T, note int, p synth.Params, n int) []float64 {
	t.Helper()
	pool := synth.NewPool(synth.VarianceSeed)
	require.NoError(t, pool.Prepare(sampleRate, 512))
	pool.UpdateParameters(p)
	pool.NoteOn(0, note, 1)
	out := [][]float64{make([]float64, n)}
	pool.RenderBlock(out, 0, n)
	require.NotZero(t, Peak(out[0]))
	return out[0]
}

func TestRenderedSawPitch(t *testing.T) {
	p := synth.DefaultParams()
	p.Range = synth.Range8
	samples := renderVoice(t, 69, p, 16384)
	assert.InDelta(t, 440, PeakFrequency(samples, sampleRate), 1.5)
}

func TestRenderedRanges(t *testing.T) {
	for r, want := range map[synth.Range]float64{synth.Range16: 220, synth.Range4: 880} {
		p := synth.DefaultParams()
		p.Range = r
		samples := renderVoice(t, 69, p, 16384)
		assert.InDelta(t, want, PeakFrequency(samples, sampleRate), 1.5, "range %d", r)
	}
}

func TestRenderedSubOctave(t *testing.T) {
	p := synth.DefaultParams()
	p.SawOn = false
	p.SubLevel = 1
	samples := renderVoice(t, 69, p, 16384)
	assert.InDelta(t, 220, PeakFrequency(samples, sampleRate), 1.5)
}
