package audio

import (
	"errors"
	"testing"

	"github.com/mrdg/juno/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPreset(t *testing.T) {
	for _, name := range PresetNames() {
		s := NewParamStore(synth.DefaultParams())
		require.NoError(t, LoadPreset(name, s), name)
		assert.Equal(t, presets[name], s.Load().Patch(), name)
	}
}

func TestLoadUnknownPreset(t *testing.T) {
	s := NewParamStore(synth.DefaultParams())
	err := LoadPreset("kazoo", s)
	assert.True(t, errors.Is(err, ErrUnknownPreset))
	assert.Equal(t, synth.DefaultParams(), s.Load())
}

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	assert.Len(t, names, 12)
	assert.Contains(t, names, "strings")
	assert.Contains(t, names, "test-retrigger")
	assert.IsIncreasing(t, names)
}

func TestTestPrograms(t *testing.T) {
	s := NewParamStore(synth.DefaultParams())
	require.NoError(t, s.Set("mod_wheel", 0.5))

	require.NoError(t, LoadPreset("test-vcf", s))
	p := s.Load()
	assert.InDelta(t, 0.63, p.Cutoff, 0.5/127)
	assert.Equal(t, 1.0, p.Resonance)
	assert.Equal(t, 1, p.HPF)
	assert.InDelta(t, 0.8, p.LFOToDCO, 0.5/127)
	assert.False(t, p.SawOn)
	assert.Equal(t, synth.ChorusOff, p.Chorus)
	assert.Equal(t, 0.5, p.ModWheel)

	require.NoError(t, LoadPreset("test-retrigger", s))
	p = s.Load()
	assert.True(t, p.PulseOn)
	assert.Equal(t, 0.0, p.Sustain)
	assert.InDelta(t, 0.13, p.Decay, 0.5/127)
	assert.InDelta(t, 0.13, p.Release, 0.5/127)
}
