package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLFOClamps(t *testing.T) {
	var l LFO
	l.SetRate(100)
	assert.Equal(t, maxLFORate, l.Rate())
	l.SetRate(0.001)
	assert.Equal(t, minLFORate, l.Rate())
	l.SetDelay(10)
	assert.Equal(t, maxLFODelay, l.Delay())
	l.SetDelay(-1)
	assert.Equal(t, 0.0, l.Delay())
}

func TestLFOSilentUntilTriggered(t *testing.T) {
	var l LFO
	l.SetSampleRate(1000)
	l.SetRate(5)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, 0.0, l.Next())
	}
}

func TestLFODelayFadeIn(t *testing.T) {
	const sampleRate = 1000
	var l LFO
	l.SetSampleRate(sampleRate)
	l.SetRate(10)
	l.SetDelay(1)
	l.Trigger()

	for n := 1; n <= sampleRate; n++ {
		v := l.Next()
		fade := float64(n) / sampleRate
		if math.Abs(v) > fade+1e-9 {
			t.Fatalf("sample %d: |%v| exceeds fade %v", n, v, fade)
		}
	}

	var peak float64
	for n := 0; n < sampleRate; n++ {
		peak = math.Max(peak, math.Abs(l.Next()))
	}
	assert.InDelta(t, 1.0, peak, 0.01)

	// a retrigger restarts the fade
	l.Trigger()
	assert.LessOrEqual(t, math.Abs(l.Next()), 1.0/sampleRate+1e-9)
}

func TestLFOWithoutDelay(t *testing.T) {
	const sampleRate = 1000
	var l LFO
	l.SetSampleRate(sampleRate)
	l.SetRate(1)
	l.Trigger()

	var peak float64
	for n := 0; n < sampleRate; n++ {
		v := l.Next()
		assert.InDelta(t, math.Sin(2*math.Pi*float64(n)/sampleRate), v, 1e-9)
		peak = math.Max(peak, math.Abs(v))
	}
	assert.InDelta(t, 1.0, peak, 1e-3)
}
