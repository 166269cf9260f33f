package synth

import "math"

const (
	minLFORate  = 0.1
	maxLFORate  = 30.0
	maxLFODelay = 3.0
)

// LFO is a sine modulation source with a delayed linear fade-in that restarts
// on every trigger. The phase runs freely and is not reset by triggers.
type LFO struct {
	sampleRate float64
	rate       float64
	delay      float64

	phase     float64
	timer     float64
	fade      float64
	triggered bool
	val       float64
}

func (l *LFO) SetSampleRate(sampleRate float64) {
	l.sampleRate = sampleRate
}

func (l *LFO) SetRate(hz float64) {
	l.rate = clamp(hz, minLFORate, maxLFORate)
}

func (l *LFO) SetDelay(seconds float64) {
	l.delay = clamp(seconds, 0, maxLFODelay)
}

func (l *LFO) Rate() float64  { return l.rate }
func (l *LFO) Delay() float64 { return l.delay }
func (l *LFO) Value() float64 { return l.val }

func (l *LFO) Trigger() {
	l.triggered = true
	l.timer = 0
	l.fade = 0
}

func (l *LFO) Reset() {
	l.phase = 0
	l.timer = 0
	l.fade = 0
	l.triggered = false
	l.val = 0
}

// Next advances the LFO by one sample and returns a value in [-1, 1].
func (l *LFO) Next() float64 {
	if l.sampleRate <= 0 {
		return 0
	}
	if l.triggered && l.fade < 1 {
		if l.delay > 0 {
			l.timer += 1 / l.sampleRate
			l.fade = clamp(l.timer/l.delay, 0, 1)
		} else {
			l.fade = 1
		}
	}
	l.val = math.Sin(2*math.Pi*l.phase) * l.fade
	l.phase += l.rate / l.sampleRate
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
	}
	return l.val
}
