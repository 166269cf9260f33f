package synth

import "math"

type EnvelopeStage int

const (
	StageIdle EnvelopeStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s EnvelopeStage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	}
	return "unknown"
}

const (
	envTimeConstants = 3.0
	attackTarget     = 1.01
	decayEpsilon     = 0.001
	releaseThreshold = 0.001
	minStageTime     = 0.001 // seconds
)

// Envelope is an exponential ADSR generator. In gate mode the curve is
// bypassed and the output is 1 while the note is held and 0 otherwise.
type Envelope struct {
	sampleRate float64

	attack  float64
	decay   float64
	sustain float64
	release float64

	attackRate  float64
	decayRate   float64
	releaseRate float64

	gate  bool
	stage EnvelopeStage
	val   float64
}

func (e *Envelope) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.attackRate = e.rate(e.attack)
	e.decayRate = e.rate(e.decay)
	e.releaseRate = e.rate(e.release)
}

func (e *Envelope) SetAttack(seconds float64) {
	e.attack = seconds
	e.attackRate = e.rate(seconds)
}

func (e *Envelope) SetDecay(seconds float64) {
	e.decay = seconds
	e.decayRate = e.rate(seconds)
}

func (e *Envelope) SetSustain(level float64) {
	e.sustain = clamp(level, 0, 1)
}

func (e *Envelope) SetRelease(seconds float64) {
	e.release = seconds
	e.releaseRate = e.rate(seconds)
}

func (e *Envelope) SetGateMode(enabled bool) {
	e.gate = enabled
}

// rate converts a stage time into a one-pole coefficient that covers
// envTimeConstants time constants within the stage time.
func (e *Envelope) rate(seconds float64) float64 {
	if e.sampleRate <= 0 {
		return 0
	}
	samples := math.Max(minStageTime, seconds) * e.sampleRate
	if samples < 1 {
		return 1
	}
	return 1 - math.Exp(-envTimeConstants/samples)
}

// Trigger enters the attack stage from the current level.
func (e *Envelope) Trigger() {
	e.stage = StageAttack
}

func (e *Envelope) Release() {
	if e.stage != StageIdle {
		e.stage = StageRelease
	}
}

func (e *Envelope) Reset() {
	e.stage = StageIdle
	e.val = 0
}

func (e *Envelope) Stage() EnvelopeStage { return e.stage }
func (e *Envelope) Value() float64       { return e.val }
func (e *Envelope) Active() bool         { return e.stage != StageIdle }

// Next advances the envelope by one sample and returns its output.
func (e *Envelope) Next() float64 {
	if e.gate {
		if e.stage == StageRelease || e.stage == StageIdle {
			e.val = 0
			e.stage = StageIdle
		} else {
			e.val = 1
		}
		return e.val
	}

	switch e.stage {
	case StageIdle:
		e.val = 0
	case StageAttack:
		e.val += (attackTarget - e.val) * e.attackRate
		if e.val >= 1 {
			e.val = 1
			e.stage = StageDecay
		}
	case StageDecay:
		e.val += (e.sustain - e.val) * e.decayRate
		if math.Abs(e.val-e.sustain) < decayEpsilon {
			e.val = e.sustain
			e.stage = StageSustain
		}
	case StageSustain:
		e.val = e.sustain
	case StageRelease:
		e.val -= e.val * e.releaseRate
		if e.val < releaseThreshold {
			e.val = 0
			e.stage = StageIdle
		}
	}
	return e.val
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
