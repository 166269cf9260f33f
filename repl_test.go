package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdg/juno/audio"
	"github.com/mrdg/juno/dub"
	"github.com/mrdg/juno/synth"
)

const testSampleRate = 48000

func newTestEnv() *env {
	params := audio.NewParamStore(synth.DefaultParams())
	engine, err := audio.NewEngine(params, testSampleRate, 128)
	if err != nil {
		panic(err)
	}
	return &env{
		params:    params,
		engine:    engine,
		sequencer: audio.NewSequencer(testSampleRate),
		ccs:       newCCMap(),
	}
}

func (e *env) process() {
	e.engine.Process([][]float32{make([]float32, 128), make([]float32, 128)})
}

func mustEval(t *testing.T, e *env, input string) dub.Node {
	t.Helper()
	result, err := e.eval(input)
	require.NoError(t, err, input)
	return result
}

func TestSetAndGet(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "set cutoff 0.5")
	mustEval(t, e, "set hpf 2")
	mustEval(t, e, "set chorus both")
	mustEval(t, e, "set tune -25")
	mustEval(t, e, `set range "16"`)

	p := e.params.Load()
	assert.Equal(t, 0.5, p.Cutoff)
	assert.Equal(t, 2, p.HPF)
	assert.Equal(t, synth.ChorusBoth, p.Chorus)
	assert.Equal(t, -25.0, p.Tune)
	assert.Equal(t, synth.Range16, p.Range)

	assert.Equal(t, dub.String("0.500"), mustEval(t, e, "get cutoff"))
	assert.Equal(t, dub.String("both"), mustEval(t, e, "get chorus"))
}

func TestEvalErrors(t *testing.T) {
	e := newTestEnv()
	for _, input := range []string{
		"nope",
		"set cutoff",
		"set cutoff 2",
		"set wobble 1",
		"get wobble",
		"on 128",
		"on 60 2",
		"on x",
		"off",
		"mode poly3",
		"preset kazoo",
		"loop a 60",
		"loop a 60 -1 '1",
		"loop a 60 '*///*",
		"unloop a",
		"bpm 0",
		"level 20",
	} {
		_, err := e.eval(input)
		assert.Error(t, err, input)
	}

	_, err := e.eval("set wobble 1")
	assert.True(t, errors.Is(err, synth.ErrUnknownParam))
	_, err = e.eval("preset kazoo")
	assert.True(t, errors.Is(err, audio.ErrUnknownPreset))
}

func TestNotes(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "on 60")
	mustEval(t, e, "on 64 0.5")
	e.process()

	voices := e.engine.Voices()
	assert.Equal(t, 60, voices[0].Note)
	assert.Equal(t, 64, voices[1].Note)

	mustEval(t, e, "off 60")
	e.process()
	assert.Equal(t, synth.StageRelease, e.engine.Voices()[0].Stage)

	mustEval(t, e, "panic")
	e.process()
	assert.Equal(t, synth.StageRelease, e.engine.Voices()[1].Stage)
}

func TestMode(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "mode unison")
	assert.Equal(t, synth.Unison, e.params.Load().PolyMode)
	mustEval(t, e, "on 48")
	e.process()
	for _, v := range e.engine.Voices() {
		assert.Equal(t, 48, v.Note)
	}
}

func TestPreset(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "preset test-sub")
	assert.Equal(t, 1.0, e.params.Load().SubLevel)

	list := mustEval(t, e, "presets").(dub.String)
	assert.Contains(t, string(list), "strings")
}

func TestLoop(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "loop bass 36 '1,3")
	mustEval(t, e, "loop lead 72 0.5 '*/2")
	assert.Equal(t, []string{"bass", "lead"}, e.sequencer.Clips())
	assert.Equal(t, dub.String("bass: C2 0.25 '1,3\nlead: C5 0.5 '*/2"), mustEval(t, e, "loops"))

	mustEval(t, e, "unloop bass")
	assert.Equal(t, []string{"lead"}, e.sequencer.Clips())
	assert.Equal(t, dub.String("lead: C5 0.5 '*/2"), mustEval(t, e, "loops"))
}

func TestLoopPlays(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "loop a 50 '*")
	mixer := &audio.Mixer{}
	mixer.AddTicker(e.sequencer)
	mixer.AddSources(e.engine)
	mixer.Process([][]float32{make([]float32, 128), make([]float32, 128)})
	assert.Equal(t, 50, e.engine.Voices()[0].Note)
	assert.True(t, e.engine.Voices()[0].Active)
}

func TestTempoAndLevel(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "bpm 90")
	bpm, err := e.sequencer.Get("bpm")
	require.NoError(t, err)
	assert.Equal(t, 90.0, bpm)

	mustEval(t, e, "level -6.5")
	assert.Equal(t, -6.5, e.engine.Level())
}

func TestVoicesAndParams(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "on 69")
	e.process()

	voices := string(mustEval(t, e, "voices").(dub.String))
	assert.Equal(t, synth.NumVoices, strings.Count(voices, "\n")+1)
	assert.Contains(t, voices, "A4")
	assert.Contains(t, voices, "idle")

	params := string(mustEval(t, e, "params").(dub.String))
	assert.Equal(t, int(synth.NumParams), strings.Count(params, "\n")+1)
	assert.Contains(t, params, "poly_mode")
}

func TestHelp(t *testing.T) {
	e := newTestEnv()
	help := string(mustEval(t, e, "help").(dub.String))
	for _, cmd := range commands {
		assert.Contains(t, help, cmd.name)
	}
}

func TestCompleter(t *testing.T) {
	c := completer()
	line := []rune("set cut")
	candidates, length := c.Do(line, len(line))
	require.Len(t, candidates, 1)
	assert.Equal(t, "off ", string(candidates[0]))
	assert.Equal(t, 3, length)
}

func TestControllerCommands(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "bind 74 cutoff")
	ccs := string(mustEval(t, e, "ccs").(dub.String))
	assert.Contains(t, ccs, " 74 cutoff")
	assert.NotContains(t, ccs, " 23 cutoff")

	mustEval(t, e, "unbind 74")
	_, err := e.eval("unbind 74")
	assert.Error(t, err)
	_, err = e.eval("bind 64 cutoff")
	assert.ErrorIs(t, err, errReservedCC)
	_, err = e.eval("bind 300 cutoff")
	assert.Error(t, err)
	_, err = e.eval("learn nope")
	assert.ErrorIs(t, err, synth.ErrUnknownParam)

	mustEval(t, e, "learn resonance")
	id, ok := e.ccs.lookup(75)
	require.True(t, ok)
	assert.Equal(t, synth.Resonance, id)
}

func TestNoteNames(t *testing.T) {
	e := newTestEnv()
	mustEval(t, e, "on c4")
	mustEval(t, e, "on f#3 0.5")
	e.process()

	voices := e.engine.Voices()
	assert.Equal(t, 60, voices[0].Note)
	assert.Equal(t, 54, voices[1].Note)

	mustEval(t, e, "off C4")
	e.process()
	assert.Equal(t, synth.StageRelease, e.engine.Voices()[0].Stage)

	mustEval(t, e, "loop bass c2 '1,3")
	assert.Equal(t, dub.String("bass: C2 0.25 '1,3"), mustEval(t, e, "loops"))

	// a note name is still a valid loop name
	mustEval(t, e, "loop a1 a1 '1")
	mustEval(t, e, "unloop a1")
}
