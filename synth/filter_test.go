package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq, amplitude float64, n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return buf
}

func peak(buf []float64) float64 {
	var p float64
	for _, v := range buf {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

func newTestLadder(t *testing.T, cutoff, resonance float64) *ladder {
	t.Helper()
	var l ladder
	l.setResonance(resonance)
	require.NoError(t, l.setSampleRate(testSampleRate))
	l.setCutoff(cutoff)
	return &l
}

func TestLadderBlockMatchesSamples(t *testing.T) {
	input := sine(220, 0.8, 1024)
	cutoff := make([]float64, len(input))
	for i := range cutoff {
		cutoff[i] = 200 + 10*float64(i/cutoffInterval)
	}

	block := newTestLadder(t, 1000, 0.7)
	got := append([]float64(nil), input...)
	block.process(got, cutoff)

	single := newTestLadder(t, 1000, 0.7)
	want := make([]float64, len(input))
	for i, x := range input {
		single.setCutoff(cutoff[i])
		want[i] = single.processSample(x)
	}
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestLadderLowPass(t *testing.T) {
	const n = 48000

	l := newTestLadder(t, 200, 0)
	high := sine(5000, 0.5, n)
	for i := range high {
		high[i] = l.processSample(high[i])
	}

	l = newTestLadder(t, 5000, 0)
	low := sine(50, 0.5, n)
	for i := range low {
		low[i] = l.processSample(low[i])
	}
	assert.Less(t, peak(high[n/2:]), 0.01)
	assert.Greater(t, peak(low[n/2:]), 100*peak(high[n/2:]))
}

func TestLadderResonanceRings(t *testing.T) {
	tail := func(resonance float64) float64 {
		l := newTestLadder(t, 900, resonance)
		var energy float64
		for i := 0; i < 4096; i++ {
			x := 0.0
			if i == 0 {
				x = 1
			}
			y := l.processSample(x)
			require.False(t, math.IsNaN(y) || math.IsInf(y, 0), "sample %d", i)
			if i >= 1024 {
				energy += y * y
			}
		}
		return energy
	}
	assert.Greater(t, tail(maxResonance), 4*tail(0.5))
}

func TestLadderResonanceClamp(t *testing.T) {
	l := newTestLadder(t, 1000, 5)
	assert.Equal(t, maxResonance, l.resonance)
	l.setResonance(-1)
	assert.Equal(t, 0.0, l.resonance)
}

func TestLadderCutoff(t *testing.T) {
	var l ladder
	l.setCutoff(500)
	assert.Zero(t, l.cutoff, "no filter before the sample rate is known")

	require.NoError(t, l.setSampleRate(testSampleRate))
	assert.Equal(t, defaultCutoff, l.cutoff)
	l.setCutoff(2000)
	assert.Equal(t, 2000.0, l.cutoff)

	// rebuilding for a new rate keeps the cutoff
	require.NoError(t, l.setSampleRate(testSampleRate/2))
	assert.Equal(t, 2000.0, l.cutoff)

	// the model rejects cutoffs at Nyquist
	l.setCutoff(testSampleRate / 4)
	assert.Equal(t, 2000.0, l.cutoff)

	assert.Error(t, l.setSampleRate(0))
}

func TestHighpassBlocksDC(t *testing.T) {
	f := biquad.NewSection(highpass(testSampleRate, 225))
	var out float64
	for i := 0; i < 48000; i++ {
		out = f.ProcessSample(1)
	}
	assert.Less(t, math.Abs(out), 1e-3)

	f = biquad.NewSection(highpass(testSampleRate, 10))
	high := sine(5000, 1, 48000)
	for i := range high {
		high[i] = f.ProcessSample(high[i])
	}
	assert.Greater(t, peak(high[24000:]), 0.95)
}

func TestHighpassCoefficients(t *testing.T) {
	c := highpass(testSampleRate, 720)
	// unity gain at Nyquist, zero at DC
	assert.InDelta(t, 0, (c.B0+c.B1+c.B2)/(1+c.A1+c.A2), 1e-12)
	assert.InDelta(t, 1, (c.B0-c.B1+c.B2)/(1-c.A1+c.A2), 1e-12)
}
