package audio

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mrdg/juno/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 48000.0

func newTestChorus(t *testing.T, mode synth.ChorusMode) *Chorus {
	t.Helper()
	c, err := NewChorus(testSampleRate)
	require.NoError(t, err)
	c.SetMode(mode)
	return c
}

func noise(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = rng.Float64()*2 - 1
	}
	return buf
}

func TestChorusOffIsBypass(t *testing.T) {
	c := newTestChorus(t, synth.ChorusOff)
	left := []float64{1, 0.5, -0.25}
	right := []float64{0, 1, 0}
	c.Process(left, right)
	assert.Equal(t, []float64{1, 0.5, -0.25}, left)
	assert.Equal(t, []float64{0, 1, 0}, right)
}

func TestChorusEveryModeIsBuilt(t *testing.T) {
	c := newTestChorus(t, synth.ChorusOff)
	for _, mode := range []synth.ChorusMode{synth.ChorusI, synth.ChorusII, synth.ChorusBoth} {
		c.SetMode(mode)
		assert.Equal(t, mode, c.Mode())
		require.NotNil(t, c.active(), "mode %v", mode)
		assert.Equal(t, chorusSettings[mode], c.active().setting)
	}
}

func TestChorusChangesSignal(t *testing.T) {
	for _, mode := range []synth.ChorusMode{synth.ChorusI, synth.ChorusII, synth.ChorusBoth} {
		c := newTestChorus(t, mode)
		input := noise(1, 4096)
		left := append([]float64(nil), input...)
		right := append([]float64(nil), input...)
		c.Process(left, right)
		assert.NotEqual(t, input, left, "mode %v", mode)
		for i := range left {
			require.False(t, math.IsNaN(left[i]) || math.IsInf(left[i], 0), "mode %v sample %d", mode, i)
		}
	}
}

func TestChorusSteadyInput(t *testing.T) {
	c := newTestChorus(t, synth.ChorusII)
	left := make([]float64, 4096)
	right := make([]float64, 4096)
	for i := range left {
		left[i], right[i] = 1, 1
	}
	c.Process(left, right)
	last := left[len(left)-1]
	for i := 2048; i < len(left); i++ {
		assert.InDelta(t, last, left[i], 1e-6)
		assert.InDelta(t, last, right[i], 1e-6)
	}
}

func TestChorusChannelsDiffer(t *testing.T) {
	c := newTestChorus(t, synth.ChorusBoth)
	n := int(testSampleRate / 4)
	left := make([]float64, n)
	right := make([]float64, n)
	for i := range left {
		left[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / testSampleRate)
		right[i] = left[i]
	}
	c.Process(left, right)
	assert.NotEqual(t, left, right)
}

func TestChorusModeChangeClears(t *testing.T) {
	input := noise(2, 2048)
	run := func(c *Chorus) []float64 {
		left := append([]float64(nil), input...)
		right := append([]float64(nil), input...)
		c.Process(left, right)
		return append(left, right...)
	}

	used := newTestChorus(t, synth.ChorusII)
	run(used)
	used.SetMode(synth.ChorusI)
	used.SetMode(synth.ChorusII)

	fresh := newTestChorus(t, synth.ChorusII)
	assert.Equal(t, run(fresh), run(used))
}
