package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

const (
	minEnvTime      = 0.0015 // seconds
	maxAttackTime   = 3.0
	maxDecayTime    = 12.0
	maxLFODelayTime = 3.0

	minCutoff          = 10.0
	maxCutoff          = 24000.0
	minModulatedCutoff = 5.0
	maxCutoffRatio     = 0.45 // of the sample rate
	cutoffInterval     = 8    // samples between cutoff updates
	envOctaves         = 14.0
	lfoOctaves         = 3.5
	benderOctaves      = 3.5
	resonanceGain      = 1.05

	maxGlideTime = 5.0 // seconds
	glideEpsilon = 0.1 // Hz
)

var hpfCutoffs = [4]float64{10, 225, 360, 720}

func attackTime(v float64) float64 { return minEnvTime * math.Pow(maxAttackTime/minEnvTime, v) }
func decayTime(v float64) float64  { return minEnvTime * math.Pow(maxDecayTime/minEnvTime, v) }
func lfoRateHz(v float64) float64  { return minLFORate * math.Pow(maxLFORate/minLFORate, v) }
func cutoffHz(v float64) float64   { return minCutoff * math.Pow(maxCutoff/minCutoff, v) }

func noteFrequency(note int) float64 {
	return 440 * math.Exp2(float64(note-69)/12)
}

// Voice renders one note through oscillator, high-pass, ladder filter and
// amplifier. A voice is active while its envelope is not idle.
type Voice struct {
	variance   Variance
	params     Params
	sampleRate float64

	note     int
	velocity float64
	current  float64 // Hz, gliding towards target
	target   float64

	env Envelope
	lfo LFO
	dco DCO
	vcf ladder
	hpf biquad.Section

	hpfIndex int

	// scratch, sized by Prepare
	buf    []float64
	cutoff []float64
}

func (v *Voice) init(variance Variance, seed int64) {
	*v = Voice{
		variance: variance,
		params:   DefaultParams(),
		note:     -1,
		dco:      NewDCO(seed),
		hpfIndex: -1,
	}
}

// Prepare resets the voice for a new sample rate and sizes its scratch
// buffers. Blocks longer than maxBlock are rendered in chunks.
func (v *Voice) Prepare(sampleRate float64, maxBlock int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	if maxBlock < 1 {
		maxBlock = 1
	}
	v.sampleRate = sampleRate
	v.buf = make([]float64, maxBlock)
	v.cutoff = make([]float64, maxBlock)
	v.note = -1
	v.current = 0
	v.target = 0

	if err := v.vcf.setSampleRate(sampleRate); err != nil {
		return fmt.Errorf("prepare filter: %w", err)
	}
	v.hpfIndex = -1
	// parameters first so the oscillator resets to the current pulse width
	v.UpdateParameters(v.params)

	v.env.SetSampleRate(sampleRate)
	v.env.Reset()
	v.lfo.SetSampleRate(sampleRate)
	v.lfo.Reset()
	v.dco.Prepare(sampleRate)
	v.vcf.reset()
	v.hpf.Reset()
	return nil
}

func (v *Voice) Trigger(note int, velocity float64) {
	v.note = note
	v.velocity = velocity
	v.target = noteFrequency(note)
	if !v.params.Portamento || !v.env.Active() {
		v.current = v.target
	}
	v.env.Trigger()
	v.lfo.Trigger()
}

func (v *Voice) Release() {
	v.env.Release()
}

// Stop silences the voice immediately.
func (v *Voice) Stop() {
	v.env.Reset()
}

func (v *Voice) Active() bool         { return v.env.Active() }
func (v *Voice) Note() int            { return v.note }
func (v *Voice) Velocity() float64    { return v.velocity }
func (v *Voice) Stage() EnvelopeStage { return v.env.Stage() }
func (v *Voice) Frequency() float64   { return v.current }
func (v *Voice) Variance() Variance   { return v.variance }
func (v *Voice) Envelope() *Envelope  { return &v.env }

func (v *Voice) UpdateParameters(p Params) {
	v.params = p
	vr := v.variance

	v.dco.SetRange(p.Range)
	v.dco.SetSawLevel(boolLevel(p.SawOn))
	v.dco.SetPulseLevel(boolLevel(p.PulseOn))
	v.dco.SetSubLevel(p.SubLevel)
	v.dco.SetNoiseLevel(p.NoiseLevel)
	v.dco.SetPWM(clamp(p.PWM+vr.PWOffset, 0, maxPulseWidth))
	v.dco.SetPWMMode(p.PWMMode)
	v.dco.SetLFODepth(clamp(p.LFOToDCO+p.ModWheel, 0, 1))
	v.dco.SetDrift(p.Drift)

	v.env.SetAttack(attackTime(p.Attack) * vr.EnvTimeScale)
	v.env.SetDecay(decayTime(p.Decay) * vr.EnvTimeScale)
	v.env.SetSustain(p.Sustain)
	v.env.SetRelease(decayTime(p.Release) * vr.EnvTimeScale)
	v.env.SetGateMode(p.VCAMode == VCAGate)

	v.vcf.setResonance(p.Resonance * resonanceGain * vr.ResonanceScale)
	v.setHPF(p.HPF)

	v.lfo.SetRate(lfoRateHz(p.LFORate))
	v.lfo.SetDelay(p.LFODelay * maxLFODelayTime)
}

func (v *Voice) setHPF(index int) {
	if index < 0 {
		index = 0
	}
	if index >= len(hpfCutoffs) {
		index = len(hpfCutoffs) - 1
	}
	if index == v.hpfIndex || v.sampleRate <= 0 {
		return
	}
	v.hpfIndex = index
	v.hpf = *biquad.NewSection(highpass(v.sampleRate, hpfCutoffs[index]))
}

// RenderBlock adds n samples into out[0] and, when present, out[1],
// starting at start.
func (v *Voice) RenderBlock(out [][]float64, start, n int) {
	if !v.env.Active() || len(v.buf) == 0 || len(out) == 0 {
		return
	}
	for n > 0 {
		chunk := n
		if chunk > len(v.buf) {
			chunk = len(v.buf)
		}
		v.render(out, start, chunk)
		start += chunk
		n -= chunk
	}
}

func (v *Voice) render(out [][]float64, start, n int) {
	p := &v.params
	buf := v.buf[:n]
	cutoff := v.cutoff[:n]

	pitchScale := math.Exp2(p.Tune/1200) * math.Exp2(p.Bender*p.BenderToDCO)

	baseCutoff := cutoffHz(p.Cutoff) * math.Exp2(float64(v.note-60)*p.KeyTrack/12)
	envMod := p.EnvAmount * envOctaves
	if p.Polarity == PolarityInverted {
		envMod = -envMod
	}
	lfoMod := clamp(p.VCFLFO+p.ModWheel, 0, 1) * lfoOctaves
	benderMod := p.Bender * p.BenderToVCF * benderOctaves
	maxFc := v.sampleRate * maxCutoffRatio

	var fc float64
	for i := range buf {
		v.glide()
		v.dco.SetFrequency(v.current * pitchScale)

		lfo := v.lfo.Next()
		if i%cutoffInterval == 0 {
			// the envelope only advances in the amplifier pass below, so its
			// contribution is the value at the start of the chunk
			octaves := v.env.Value()*envMod + lfo*lfoMod + benderMod
			fc = clamp(baseCutoff*math.Exp2(octaves)*v.variance.CutoffScale, minModulatedCutoff, maxFc)
		}
		cutoff[i] = fc
		buf[i] = v.hpf.ProcessSample(v.dco.Next(lfo))
	}

	v.vcf.process(buf, cutoff)

	gain := v.velocity * p.VCALevel
	for i, s := range buf {
		s *= v.env.Next() * gain
		out[0][start+i] += s
		if len(out) > 1 {
			out[1][start+i] += s
		}
	}
}

func (v *Voice) glide() {
	p := &v.params
	if !p.Portamento || math.Abs(v.current-v.target) <= glideEpsilon {
		v.current = v.target
		return
	}
	samples := p.PortamentoTime * maxGlideTime * v.sampleRate
	if samples <= 1 {
		v.current = v.target
		return
	}
	v.current += (v.target - v.current) / samples
}

func boolLevel(on bool) float64 {
	if on {
		return 1
	}
	return 0
}
