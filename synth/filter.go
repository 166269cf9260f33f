package synth

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/moog"
)

const (
	ladderDrive    = 1.2
	ladderFeedback = 4.0 // moog resonance at which the loop gain reaches unity
	maxResonance   = 1.1
	defaultCutoff  = 1000.0
)

// ladder is the voice's four pole low-pass, a zero-delay-feedback Moog model
// with a saturating input. Resonance is normalized so that 1.0 is the edge of
// self-oscillation.
type ladder struct {
	filter     *moog.Filter
	sampleRate float64
	cutoff     float64
	resonance  float64
}

// setSampleRate rebuilds the filter, clearing its state.
func (l *ladder) setSampleRate(sampleRate float64) error {
	cutoff := l.cutoff
	if cutoff <= 0 || cutoff >= sampleRate/2 {
		cutoff = math.Min(defaultCutoff, sampleRate*maxCutoffRatio)
	}
	f, err := moog.New(sampleRate,
		moog.WithVariant(moog.VariantZDF),
		moog.WithCutoffHz(cutoff),
		moog.WithResonance(l.resonance*ladderFeedback),
		moog.WithDrive(ladderDrive),
		moog.WithNormalizeOutput(false),
	)
	if err != nil {
		return err
	}
	l.filter = f
	l.sampleRate = sampleRate
	l.cutoff = cutoff
	return nil
}

// setCutoff retunes the filter. Frequencies the model rejects leave the
// previous cutoff in place.
func (l *ladder) setCutoff(hz float64) {
	if hz == l.cutoff || l.filter == nil {
		return
	}
	if err := l.filter.SetCutoffHz(hz); err == nil {
		l.cutoff = hz
	}
}

func (l *ladder) setResonance(r float64) {
	r = clamp(r, 0, maxResonance)
	if r == l.resonance {
		return
	}
	if l.filter != nil {
		if err := l.filter.SetResonance(r * ladderFeedback); err != nil {
			return
		}
	}
	l.resonance = r
}

func (l *ladder) reset() {
	if l.filter != nil {
		l.filter.Reset()
	}
}

func (l *ladder) processSample(x float64) float64 {
	return l.filter.ProcessSample(x)
}

// process filters buf in place. cutoff holds one frequency per sample and is
// only read every cutoffInterval samples, where the voice updates it.
func (l *ladder) process(buf, cutoff []float64) {
	for start := 0; start < len(buf); start += cutoffInterval {
		end := min(start+cutoffInterval, len(buf))
		l.setCutoff(cutoff[start])
		l.filter.ProcessInPlace(buf[start:end])
	}
}

// highpass returns Butterworth high-pass coefficients normalized by a0,
// following https://www.w3.org/2011/audio/audio-eq-cookbook.html
func highpass(sampleRate, freq float64) biquad.Coefficients {
	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / math.Sqrt2 // q = 1/sqrt(2)

	inv := 1 / (1 + alpha)
	return biquad.Coefficients{
		B0: (1 + cw) / 2 * inv,
		B1: -(1 + cw) * inv,
		B2: (1 + cw) / 2 * inv,
		A1: -2 * cw * inv,
		A2: (1 - alpha) * inv,
	}
}
