package synth

import "math"

// Range is the footage selector of the oscillator.
type Range int

const (
	Range16 Range = iota
	Range8
	Range4
)

func (r Range) multiplier() float64 {
	switch r {
	case Range16:
		return 0.5
	case Range4:
		return 2
	}
	return 1
}

type PWMMode int

const (
	PWMManual PWMMode = iota
	PWMLFO
)

const (
	driftInterval    = 1000 // samples between drift targets
	driftSlew        = 0.005
	maxDrift         = 0.15 // semitones
	maxVibrato       = 0.5  // semitones
	pwmSlew          = 0.01
	minPulseWidth    = 0.05
	maxPulseWidth    = 0.95
	pwmLFODepth      = 0.45
	nyquistLimit     = 0.49
	oscillatorOutput = 0.5
)

// DCO mixes a band-limited sawtooth, a pulse, a sub oscillator and noise.
// The pulse phase accumulator is the master clock: the sub oscillator is a
// flip-flop toggled on every wrap of it, so it always sits exactly one octave
// below the oscillator frequency.
type DCO struct {
	sampleRate float64
	frequency  float64
	rng        Random

	rangeMul   float64
	sawLevel   float64
	pulseLevel float64
	subLevel   float64
	noiseLevel float64
	pwm        float64
	pwmMode    PWMMode
	lfoDepth   float64
	drift      float64

	sawPhase   float64
	pulsePhase float64
	pulseWidth float64
	sub        bool
	wraps      uint64

	driftCounter int
	driftTarget  float64
	driftValue   float64
	lastFreq     float64
}

// NewDCO returns an oscillator with the 8' range whose noise and drift are
// drawn from a generator seeded with seed.
func NewDCO(seed int64) DCO {
	return DCO{
		rng:        NewRandom(seed),
		rangeMul:   1,
		pulseWidth: 0.5,
	}
}

func (d *DCO) Prepare(sampleRate float64) {
	d.sampleRate = sampleRate
	d.Reset()
}

func (d *DCO) Reset() {
	d.sawPhase = 0
	d.pulsePhase = 0
	d.pulseWidth = clamp(d.pwm, minPulseWidth, maxPulseWidth)
	d.sub = false
	d.wraps = 0
	d.driftCounter = 0
	d.driftTarget = 0
	d.driftValue = 0
}

func (d *DCO) SetFrequency(hz float64)     { d.frequency = hz }
func (d *DCO) SetRange(r Range)            { d.rangeMul = r.multiplier() }
func (d *DCO) SetSawLevel(level float64)   { d.sawLevel = clamp(level, 0, 1) }
func (d *DCO) SetPulseLevel(level float64) { d.pulseLevel = clamp(level, 0, 1) }
func (d *DCO) SetSubLevel(level float64)   { d.subLevel = clamp(level, 0, 1) }
func (d *DCO) SetNoiseLevel(level float64) { d.noiseLevel = clamp(level, 0, 1) }
func (d *DCO) SetPWM(v float64)            { d.pwm = clamp(v, 0, 1) }
func (d *DCO) SetPWMMode(mode PWMMode)     { d.pwmMode = mode }
func (d *DCO) SetLFODepth(depth float64)   { d.lfoDepth = clamp(depth, 0, 1) }
func (d *DCO) SetDrift(amount float64)     { d.drift = clamp(amount, 0, 1) }

// Frequency returns the final frequency used for the last sample.
func (d *DCO) Frequency() float64 { return d.lastFreq }

// SubState reports the current level of the sub oscillator flip-flop.
func (d *DCO) SubState() bool { return d.sub }

// Wraps returns the number of pulse phase wraps since the last reset.
func (d *DCO) Wraps() uint64 { return d.wraps }

func (d *DCO) PulseWidth() float64 { return d.pulseWidth }

// Next renders one sample. lfo is the current LFO value in [-1, 1].
func (d *DCO) Next(lfo float64) float64 {
	if d.sampleRate <= 0 {
		return 0
	}

	d.driftCounter++
	if d.driftCounter >= driftInterval {
		d.driftCounter = 0
		d.driftTarget = d.rng.NextFloat()*2 - 1
	}
	d.driftValue += (d.driftTarget - d.driftValue) * driftSlew

	semitones := lfo*d.lfoDepth*maxVibrato + d.driftValue*d.drift*maxDrift
	freq := d.frequency * d.rangeMul * math.Exp2(semitones/12)
	if limit := d.sampleRate * nyquistLimit; freq >= limit {
		freq = limit
	}
	d.lastFreq = freq
	dt := freq / d.sampleRate

	d.pulsePhase += dt
	if d.pulsePhase >= 1 {
		d.pulsePhase -= 1
		d.sub = !d.sub
		d.wraps++
	}

	var out float64
	if d.sawLevel > 0 {
		out += (2*d.sawPhase - 1 - polyBLEP(d.sawPhase, dt)) * d.sawLevel
	}
	d.sawPhase += dt
	if d.sawPhase >= 1 {
		d.sawPhase -= 1
	}

	target := clamp(d.pwm, minPulseWidth, maxPulseWidth)
	if d.pwmMode == PWMLFO {
		target = clamp(0.5+lfo*d.pwm*pwmLFODepth, minPulseWidth, maxPulseWidth)
	}
	d.pulseWidth += (target - d.pulseWidth) * pwmSlew

	if d.pulseLevel > 0 {
		pulse := -1.0
		if d.pulsePhase < d.pulseWidth {
			pulse = 1
		}
		out += pulse * d.pulseLevel
	}
	if d.subLevel > 0 {
		sub := -1.0
		if d.sub {
			sub = 1
		}
		out += sub * d.subLevel
	}
	if d.noiseLevel > 0 {
		out += (d.rng.NextFloat()*2 - 1) * d.noiseLevel
	}
	return out * oscillatorOutput
}

// polyBLEP is the two-sample polynomial correction applied around the
// discontinuity of a sawtooth at phase t with phase increment dt.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
