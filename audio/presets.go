package audio

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mrdg/juno/synth"
)

var ErrUnknownPreset = errors.New("unknown preset")

var presets = map[string]synth.Patch{
	"strings": {0x3a, 0x30, 0x08, 0x50, 0, 0x48, 0x10, 0x20, 0, 0x40, 0x60, 0x40, 0x50, 0x68, 0x50, 0, 0x1A, 0x09},
	"bass":    {0x40, 0, 0, 0, 0, 0x20, 0x40, 0x50, 0, 0x20, 0x70, 0, 0x38, 0x20, 0x10, 0x60, 0x31, 0x00},
	"brass":   {0x30, 0x20, 0x04, 0, 0, 0x30, 0x18, 0x58, 0, 0x30, 0x68, 0x28, 0x40, 0x58, 0x30, 0, 0x52, 0x08},
	"organ":   {0x40, 0, 0, 0x40, 0, 0x60, 0, 0, 0, 0x40, 0x60, 0, 0, 0x7f, 0x08, 0x50, 0x0C, 0x02},
}

func init() {
	for name, f := range testPrograms {
		p := testProgram()
		f(&p)
		presets[name] = p.Patch()
	}
}

// testProgram returns the settings shared by the service manual test
// programs.
func testProgram() synth.Params {
	p := synth.DefaultParams()
	p.LFORate = 0.5
	p.LFODelay = 0
	p.LFOToDCO = 0.8
	p.Range = synth.Range8
	p.SawOn = false
	p.PulseOn = false
	p.PWMMode = synth.PWMManual
	p.HPF = 1
	p.Cutoff = 1
	p.KeyTrack = 1
	p.VCAMode = synth.VCAEnv
	p.VCALevel = 0.5
	p.Attack, p.Decay, p.Sustain, p.Release = 0, 0, 1, 0
	p.Chorus = synth.ChorusOff
	return p
}

var testPrograms = map[string]func(*synth.Params){
	"test-vca-offset": func(p *synth.Params) {},
	"test-sub":        func(p *synth.Params) { p.SubLevel = 1 },
	"test-vcf": func(p *synth.Params) {
		p.Cutoff = 0.63
		p.Resonance = 1
	},
	"test-saw": func(p *synth.Params) { p.SawOn = true },
	"test-pulse": func(p *synth.Params) {
		p.PulseOn = true
		p.PWM = 0.5
	},
	"test-noise":   func(p *synth.Params) { p.NoiseLevel = 1 },
	"test-vcf-mod": func(p *synth.Params) {},
	"test-retrigger": func(p *synth.Params) {
		p.PulseOn = true
		p.Decay = 0.13
		p.Sustain = 0
		p.Release = 0.13
	},
}

// LoadPreset applies the named patch. Performance controls are left alone.
func LoadPreset(name string, s *ParamStore) error {
	patch, ok := presets[name]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownPreset, name)
	}
	return s.ApplyPatch(patch)
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
