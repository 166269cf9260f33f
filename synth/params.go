package synth

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownParam = errors.New("unknown parameter")
	ErrOutOfRange   = errors.New("value out of range")
	ErrInvalidPatch = errors.New("invalid patch")
)

type VCAMode int

const (
	VCAEnv VCAMode = iota
	VCAGate
)

type Polarity int

const (
	PolarityNormal Polarity = iota
	PolarityInverted
)

type ChorusMode int

const (
	ChorusOff ChorusMode = iota
	ChorusI
	ChorusII
	ChorusBoth
)

type PolyMode int

const (
	Poly1 PolyMode = iota
	Poly2
	Unison
)

var polyModeNames = []string{"poly1", "poly2", "unison"}

func (m PolyMode) String() string {
	if m < 0 || int(m) >= len(polyModeNames) {
		return fmt.Sprintf("PolyMode(%d)", int(m))
	}
	return polyModeNames[m]
}

// ParsePolyMode accepts the names printed by PolyMode.String.
func ParsePolyMode(s string) (PolyMode, error) {
	for i, name := range polyModeNames {
		if name == s {
			return PolyMode(i), nil
		}
	}
	return Poly1, fmt.Errorf("unknown poly mode %q", s)
}

// Params is a complete snapshot of the user controls. Continuous controls
// are normalized to [0, 1] unless noted.
type Params struct {
	Range      Range
	SawOn      bool
	PulseOn    bool
	PWM        float64
	PWMMode    PWMMode
	SubLevel   float64
	NoiseLevel float64
	LFOToDCO   float64
	Drift      float64

	HPF int // 0..3

	Cutoff    float64
	Resonance float64
	EnvAmount float64
	Polarity  Polarity
	KeyTrack  float64
	VCFLFO    float64

	VCAMode  VCAMode
	VCALevel float64

	Attack  float64
	Decay   float64
	Sustain float64
	Release float64

	LFORate  float64
	LFODelay float64

	Chorus ChorusMode

	Bender         float64 // -1..1
	BenderToDCO    float64
	BenderToVCF    float64
	ModWheel       float64
	Tune           float64 // cents, -50..50
	Portamento     bool
	PortamentoTime float64

	PolyMode PolyMode
}

func DefaultParams() Params {
	return Params{
		Range:    Range8,
		SawOn:    true,
		Cutoff:   1,
		VCALevel: 1,
		Sustain:  1,
		LFORate:  0.5,
	}
}

// ParamID addresses a single field of Params. Ids 0x00 to 0x0F follow the
// slider order of the patch layout.
type ParamID int

const (
	LFORate ParamID = iota
	LFODelay
	LFOToDCO
	PWM
	Noise
	Cutoff
	Resonance
	EnvAmount
	VCFLFO
	KeyTrack
	VCALevel
	Attack
	Decay
	Sustain
	Release
	SubLevel

	RangeSwitch
	SawSwitch
	PulseSwitch
	ChorusSwitch
	PWMModeSwitch
	VCAModeSwitch
	PolaritySwitch
	HPF
	PolyModeSwitch
	Bender
	BenderToDCO
	BenderToVCF
	ModWheel
	Tune
	Portamento
	PortamentoTime
	Drift

	NumParams
)

const numSliders = 16

type paramKind int

const (
	kindLevel paramKind = iota
	kindBipolar
	kindTune
	kindChoice
	kindToggle
)

type paramDef struct {
	name    string
	kind    paramKind
	choices []string

	level  func(*Params) *float64
	toggle func(*Params) *bool
	get    func(*Params) int
	set    func(*Params, int)
}

func level(name string, f func(*Params) *float64) paramDef {
	return paramDef{name: name, kind: kindLevel, level: f}
}

func toggle(name string, f func(*Params) *bool) paramDef {
	return paramDef{name: name, kind: kindToggle, toggle: f}
}

var paramDefs = [NumParams]paramDef{
	LFORate:   level("lfo_rate", func(p *Params) *float64 { return &p.LFORate }),
	LFODelay:  level("lfo_delay", func(p *Params) *float64 { return &p.LFODelay }),
	LFOToDCO:  level("lfo_dco", func(p *Params) *float64 { return &p.LFOToDCO }),
	PWM:       level("pwm", func(p *Params) *float64 { return &p.PWM }),
	Noise:     level("noise", func(p *Params) *float64 { return &p.NoiseLevel }),
	Cutoff:    level("cutoff", func(p *Params) *float64 { return &p.Cutoff }),
	Resonance: level("resonance", func(p *Params) *float64 { return &p.Resonance }),
	EnvAmount: level("env_amount", func(p *Params) *float64 { return &p.EnvAmount }),
	VCFLFO:    level("lfo_vcf", func(p *Params) *float64 { return &p.VCFLFO }),
	KeyTrack:  level("key_track", func(p *Params) *float64 { return &p.KeyTrack }),
	VCALevel:  level("vca_level", func(p *Params) *float64 { return &p.VCALevel }),
	Attack:    level("attack", func(p *Params) *float64 { return &p.Attack }),
	Decay:     level("decay", func(p *Params) *float64 { return &p.Decay }),
	Sustain:   level("sustain", func(p *Params) *float64 { return &p.Sustain }),
	Release:   level("release", func(p *Params) *float64 { return &p.Release }),
	SubLevel:  level("sub", func(p *Params) *float64 { return &p.SubLevel }),

	RangeSwitch: {
		name: "range", kind: kindChoice, choices: []string{"16", "8", "4"},
		get: func(p *Params) int { return int(p.Range) },
		set: func(p *Params, i int) { p.Range = Range(i) },
	},
	SawSwitch:   toggle("saw", func(p *Params) *bool { return &p.SawOn }),
	PulseSwitch: toggle("pulse", func(p *Params) *bool { return &p.PulseOn }),
	ChorusSwitch: {
		name: "chorus", kind: kindChoice, choices: []string{"off", "one", "two", "both"},
		get: func(p *Params) int { return int(p.Chorus) },
		set: func(p *Params, i int) { p.Chorus = ChorusMode(i) },
	},
	PWMModeSwitch: {
		name: "pwm_mode", kind: kindChoice, choices: []string{"manual", "lfo"},
		get: func(p *Params) int { return int(p.PWMMode) },
		set: func(p *Params, i int) { p.PWMMode = PWMMode(i) },
	},
	VCAModeSwitch: {
		name: "vca_mode", kind: kindChoice, choices: []string{"env", "gate"},
		get: func(p *Params) int { return int(p.VCAMode) },
		set: func(p *Params, i int) { p.VCAMode = VCAMode(i) },
	},
	PolaritySwitch: {
		name: "polarity", kind: kindChoice, choices: []string{"normal", "inverted"},
		get: func(p *Params) int { return int(p.Polarity) },
		set: func(p *Params, i int) { p.Polarity = Polarity(i) },
	},
	HPF: {
		name: "hpf", kind: kindChoice, choices: []string{"0", "1", "2", "3"},
		get: func(p *Params) int { return p.HPF },
		set: func(p *Params, i int) { p.HPF = i },
	},
	PolyModeSwitch: {
		name: "poly_mode", kind: kindChoice, choices: polyModeNames,
		get: func(p *Params) int { return int(p.PolyMode) },
		set: func(p *Params, i int) { p.PolyMode = PolyMode(i) },
	},
	Bender:         {name: "bender", kind: kindBipolar, level: func(p *Params) *float64 { return &p.Bender }},
	BenderToDCO:    level("bender_dco", func(p *Params) *float64 { return &p.BenderToDCO }),
	BenderToVCF:    level("bender_vcf", func(p *Params) *float64 { return &p.BenderToVCF }),
	ModWheel:       level("mod_wheel", func(p *Params) *float64 { return &p.ModWheel }),
	Tune:           {name: "tune", kind: kindTune, level: func(p *Params) *float64 { return &p.Tune }},
	Portamento:     toggle("portamento", func(p *Params) *bool { return &p.Portamento }),
	PortamentoTime: level("portamento_time", func(p *Params) *float64 { return &p.PortamentoTime }),
	Drift:          level("drift", func(p *Params) *float64 { return &p.Drift }),
}

func (id ParamID) String() string {
	if !id.valid() {
		return fmt.Sprintf("ParamID(%d)", int(id))
	}
	return paramDefs[id].name
}

// Choices returns the names of the positions of a switch, or nil for
// continuous controls.
func (id ParamID) Choices() []string {
	if !id.valid() {
		return nil
	}
	switch def := paramDefs[id]; def.kind {
	case kindChoice:
		return def.choices
	case kindToggle:
		return []string{"off", "on"}
	}
	return nil
}

func (id ParamID) valid() bool {
	return id >= 0 && id < NumParams
}

func ParamIDByName(name string) (ParamID, bool) {
	for id := ParamID(0); id < NumParams; id++ {
		if paramDefs[id].name == name {
			return id, true
		}
	}
	return 0, false
}

func lookup(id ParamID) (paramDef, error) {
	if !id.valid() {
		return paramDef{}, fmt.Errorf("%w: %d", ErrUnknownParam, int(id))
	}
	return paramDefs[id], nil
}

// SetNormalized maps v, clamped to [0, 1], onto the field addressed by id.
// Switch positions are quantized.
func (p *Params) SetNormalized(id ParamID, v float64) error {
	def, err := lookup(id)
	if err != nil {
		return err
	}
	v = clamp(v, 0, 1)
	switch def.kind {
	case kindLevel:
		*def.level(p) = v
	case kindBipolar:
		*def.level(p) = v*2 - 1
	case kindTune:
		*def.level(p) = v*100 - 50
	case kindChoice:
		def.set(p, int(math.Round(v*float64(len(def.choices)-1))))
	case kindToggle:
		*def.toggle(p) = v >= 0.5
	}
	return nil
}

func (p Params) Normalized(id ParamID) (float64, error) {
	def, err := lookup(id)
	if err != nil {
		return 0, err
	}
	switch def.kind {
	case kindBipolar:
		return clamp((*def.level(&p)+1)/2, 0, 1), nil
	case kindTune:
		return clamp((*def.level(&p)+50)/100, 0, 1), nil
	case kindChoice:
		i := def.get(&p)
		return clamp(float64(i)/float64(len(def.choices)-1), 0, 1), nil
	case kindToggle:
		if *def.toggle(&p) {
			return 1, nil
		}
		return 0, nil
	}
	return clamp(*def.level(&p), 0, 1), nil
}

// Set7 applies a 7-bit controller value.
func (p *Params) Set7(id ParamID, v uint8) error {
	if v > 0x7f {
		return fmt.Errorf("%s: %w: %d", id, ErrOutOfRange, v)
	}
	return p.SetNormalized(id, float64(v)/127)
}

func (p Params) Get7(id ParamID) (uint8, error) {
	v, err := p.Normalized(id)
	if err != nil {
		return 0, err
	}
	return uint8(math.Round(v * 127)), nil
}

// SetValue sets a field in its natural unit: levels in [0, 1], the bender in
// [-1, 1], tune in cents, switch positions by index and toggles as 0 or 1.
func (p *Params) SetValue(id ParamID, v float64) error {
	def, err := lookup(id)
	if err != nil {
		return err
	}
	check := func(lo, hi float64) error {
		if v < lo || v > hi || math.IsNaN(v) {
			return fmt.Errorf("%s: %w: %v not in %v - %v", id, ErrOutOfRange, v, lo, hi)
		}
		return nil
	}
	switch def.kind {
	case kindLevel:
		err = check(0, 1)
	case kindBipolar:
		err = check(-1, 1)
	case kindTune:
		err = check(-50, 50)
	case kindChoice:
		if err = check(0, float64(len(def.choices)-1)); err == nil && v != math.Trunc(v) {
			err = fmt.Errorf("%s: %w: %v is not a switch position", id, ErrOutOfRange, v)
		}
	case kindToggle:
		err = check(0, 1)
	}
	if err != nil {
		return err
	}
	switch def.kind {
	case kindChoice:
		def.set(p, int(v))
	case kindToggle:
		*def.toggle(p) = v != 0
	default:
		*def.level(p) = v
	}
	return nil
}

// Value returns a field in the unit accepted by SetValue.
func (p Params) Value(id ParamID) (float64, error) {
	def, err := lookup(id)
	if err != nil {
		return 0, err
	}
	switch def.kind {
	case kindChoice:
		return float64(def.get(&p)), nil
	case kindToggle:
		if *def.toggle(&p) {
			return 1, nil
		}
		return 0, nil
	}
	return *def.level(&p), nil
}

// SetChoice selects a switch position by name.
func (p *Params) SetChoice(id ParamID, name string) error {
	if _, err := lookup(id); err != nil {
		return err
	}
	for i, choice := range id.Choices() {
		if choice == name {
			return p.SetValue(id, float64(i))
		}
	}
	return fmt.Errorf("%s: %w: %q", id, ErrOutOfRange, name)
}

// Format renders a field for display.
func (p Params) Format(id ParamID) string {
	v, err := p.Value(id)
	if err != nil {
		return err.Error()
	}
	if choices := id.Choices(); choices != nil {
		if i := int(v); i >= 0 && i < len(choices) {
			return choices[i]
		}
		return fmt.Sprint(v)
	}
	if paramDefs[id].kind == kindTune {
		return fmt.Sprintf("%+.1f ct", v)
	}
	return fmt.Sprintf("%.3f", v)
}

const PatchSize = 18

// Patch is the 18 byte parameter dump: the 16 sliders in id order followed
// by two switch bytes.
type Patch [PatchSize]byte

const (
	sw1Range16   = 1 << 0
	sw1Range8    = 1 << 1
	sw1Range4    = 1 << 2
	sw1Pulse     = 1 << 3
	sw1Saw       = 1 << 4
	sw1ChorusOff = 1 << 5
	sw1ChorusI   = 1 << 6

	sw2PWMLFO   = 1 << 0
	sw2VCAGate  = 1 << 1
	sw2Inverted = 1 << 2
	sw2HPFShift = 3
)

// Patch encodes the patch fields of p. Chorus I+II has no encoding of its
// own and is stored as Chorus I.
func (p Params) Patch() Patch {
	var patch Patch
	for id := ParamID(0); id < numSliders; id++ {
		patch[id], _ = p.Get7(id)
	}

	var sw1 byte
	switch p.Range {
	case Range16:
		sw1 |= sw1Range16
	case Range8:
		sw1 |= sw1Range8
	default:
		sw1 |= sw1Range4
	}
	if p.PulseOn {
		sw1 |= sw1Pulse
	}
	if p.SawOn {
		sw1 |= sw1Saw
	}
	switch p.Chorus {
	case ChorusOff:
		sw1 |= sw1ChorusOff
	case ChorusI, ChorusBoth:
		sw1 |= sw1ChorusI
	}

	var sw2 byte
	if p.PWMMode == PWMLFO {
		sw2 |= sw2PWMLFO
	}
	if p.VCAMode == VCAGate {
		sw2 |= sw2VCAGate
	}
	if p.Polarity == PolarityInverted {
		sw2 |= sw2Inverted
	}
	sw2 |= byte(p.HPF&0x03) << sw2HPFShift

	patch[16] = sw1
	patch[17] = sw2
	return patch
}

// ApplyPatch overwrites the patch fields of p. Performance controls are left
// as they are. p is not modified when the patch is invalid.
func (p *Params) ApplyPatch(patch Patch) error {
	for i, b := range patch {
		if b > 0x7f {
			return fmt.Errorf("%w: byte %d is 0x%02x", ErrInvalidPatch, i, b)
		}
	}
	for id := ParamID(0); id < numSliders; id++ {
		if err := p.Set7(id, patch[id]); err != nil {
			return err
		}
	}

	sw1 := patch[16]
	switch {
	case sw1&sw1Range16 != 0:
		p.Range = Range16
	case sw1&sw1Range8 != 0:
		p.Range = Range8
	default:
		p.Range = Range4
	}
	p.PulseOn = sw1&sw1Pulse != 0
	p.SawOn = sw1&sw1Saw != 0
	switch {
	case sw1&sw1ChorusOff != 0:
		p.Chorus = ChorusOff
	case sw1&sw1ChorusI != 0:
		p.Chorus = ChorusI
	default:
		p.Chorus = ChorusII
	}

	sw2 := patch[17]
	p.PWMMode = PWMManual
	if sw2&sw2PWMLFO != 0 {
		p.PWMMode = PWMLFO
	}
	p.VCAMode = VCAEnv
	if sw2&sw2VCAGate != 0 {
		p.VCAMode = VCAGate
	}
	p.Polarity = PolarityNormal
	if sw2&sw2Inverted != 0 {
		p.Polarity = PolarityInverted
	}
	p.HPF = int(sw2>>sw2HPFShift) & 0x03
	return nil
}
