package audio

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects"

	"github.com/mrdg/juno/synth"
)

type chorusSetting struct {
	rate  float64 // Hz
	depth float64 // fraction of the delay
	delay float64 // seconds
}

var chorusSettings = [...]chorusSetting{
	synth.ChorusI:    {rate: 0.5, depth: 0.12, delay: 0.006},
	synth.ChorusII:   {rate: 0.8, depth: 0.25, delay: 0.008},
	synth.ChorusBoth: {rate: 1.0, depth: 0.15, delay: 0.007},
}

const chorusMix = 0.5

// ensemble is one chorus setting for both channels. The right channel runs
// its LFO half a cycle behind the left.
type ensemble struct {
	setting     chorusSetting
	left, right *effects.Chorus
}

func newEnsemble(sampleRate float64, s chorusSetting) (*ensemble, error) {
	e := &ensemble{setting: s, left: effects.NewChorus(), right: effects.NewChorus()}
	for _, c := range []*effects.Chorus{e.left, e.right} {
		if err := c.SetSampleRate(sampleRate); err != nil {
			return nil, err
		}
		if err := c.SetMix(chorusMix); err != nil {
			return nil, err
		}
		if err := c.SetDepth(s.delay * s.depth); err != nil {
			return nil, err
		}
		if err := c.SetSpeedHz(s.rate); err != nil {
			return nil, err
		}
		if err := c.SetStages(1); err != nil {
			return nil, err
		}
	}
	e.reset(sampleRate)
	return e, nil
}

// reset clears both delay lines and offsets the right LFO by running half
// a period of silence through it.
func (e *ensemble) reset(sampleRate float64) {
	e.left.Reset()
	e.right.Reset()
	for i := 0; i < int(sampleRate/(2*e.setting.rate)); i++ {
		e.right.ProcessSample(0)
	}
}

// Chorus is the stereo ensemble after the voice mix.
type Chorus struct {
	sampleRate float64
	mode       synth.ChorusMode
	ensembles  [len(chorusSettings)]*ensemble
}

// NewChorus builds every setting up front so that switching modes on the
// audio thread never fails.
func NewChorus(sampleRate float64) (*Chorus, error) {
	c := &Chorus{sampleRate: sampleRate}
	for mode, s := range chorusSettings {
		if synth.ChorusMode(mode) <= synth.ChorusOff {
			continue
		}
		e, err := newEnsemble(sampleRate, s)
		if err != nil {
			return nil, fmt.Errorf("chorus %v: %w", synth.ChorusMode(mode), err)
		}
		c.ensembles[mode] = e
	}
	return c, nil
}

// SetMode selects the chorus setting. Switching clears the delay lines.
func (c *Chorus) SetMode(mode synth.ChorusMode) {
	if mode == c.mode {
		return
	}
	c.mode = mode
	if e := c.active(); e != nil {
		e.reset(c.sampleRate)
	}
}

func (c *Chorus) Mode() synth.ChorusMode { return c.mode }

func (c *Chorus) active() *ensemble {
	if c.mode <= synth.ChorusOff || int(c.mode) >= len(c.ensembles) {
		return nil
	}
	return c.ensembles[c.mode]
}

// Process applies the chorus in place. left and right must have the same
// length.
func (c *Chorus) Process(left, right []float64) {
	e := c.active()
	if e == nil {
		return
	}
	for i := range left {
		left[i] = e.left.ProcessSample(left[i])
		right[i] = e.right.ProcessSample(right[i])
	}
}
