package audio

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/tphakala/simd/f32"

	"github.com/mrdg/juno/synth"
)

const (
	eventBufferSize = 256
	maxPendingNotes = 128
	minLevel        = -40.0 // dB
	maxLevel        = 10.0
)

type pendingNote struct {
	pitch     int
	remaining int // samples until the note off
}

// Engine drives the voice pool from the audio callback. Notes arrive through
// lock-free queues and are applied at the start of the next block together
// with the latest parameter snapshot.
type Engine struct {
	params *ParamStore
	pool   *synth.Pool
	chorus *Chorus

	mu        sync.Mutex // serializes producers of events
	events    *eventBuffer
	seqEvents *eventBuffer // filled on the audio thread by the sequencer

	pending  [maxPendingNotes]pendingNote
	npending int
	sustain  bool
	held     [128]bool // note offs deferred by the sustain pedal

	mix     [][]float64
	out     []float32
	level   atomic.Value
	voices  [synth.NumVoices]atomic.Uint32
	dropped atomic.Uint64
}

// NewEngine prepares a pool for the sample rate. Blocks of any length can be
// processed; maxBlock only sizes the internal buffers.
func NewEngine(params *ParamStore, sampleRate float64, maxBlock int) (*Engine, error) {
	if maxBlock < 1 {
		maxBlock = 1
	}
	pool := synth.NewPool(synth.VarianceSeed)
	if err := pool.Prepare(sampleRate, maxBlock); err != nil {
		return nil, err
	}
	chorus, err := NewChorus(sampleRate)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		params:    params,
		pool:      pool,
		chorus:    chorus,
		events:    newEventBuffer(eventBufferSize),
		seqEvents: newEventBuffer(eventBufferSize),
		mix:       [][]float64{make([]float64, maxBlock), make([]float64, maxBlock)},
		out:       make([]float32, maxBlock),
	}
	e.level.Store(0.0)
	return e, nil
}

func (e *Engine) push(ev event) {
	e.mu.Lock()
	e.events.push(ev)
	e.mu.Unlock()
}

func (e *Engine) NoteOn(channel, note int, velocity float64) {
	e.push(event{kind: eventNoteOn, channel: channel, pitch: note, velocity: clampVelocity(velocity)})
}

func (e *Engine) NoteOff(channel, note int, velocity float64) {
	e.push(event{kind: eventNoteOff, channel: channel, pitch: note, velocity: clampVelocity(velocity)})
}

// SustainPedal holds released notes until the pedal goes up.
func (e *Engine) SustainPedal(down bool) {
	ev := event{kind: eventSustain}
	if down {
		ev.velocity = 1
	}
	e.push(ev)
}

func (e *Engine) AllNotesOff() {
	e.push(event{kind: eventAllNotesOff})
}

// PlayNote schedules a note of duration samples with a MIDI velocity of
// 0 - 127. It is called by the sequencer on the audio thread, so a full queue
// drops the note.
func (e *Engine) PlayNote(offset, pitch, velocity, duration int) {
	ev := event{
		kind:     eventNoteOn,
		pitch:    pitch,
		offset:   offset,
		velocity: clampVelocity(float64(velocity) / 127),
		duration: duration,
	}
	if !e.seqEvents.tryPush(ev) {
		e.dropped.Add(1)
	}
}

// Dropped returns the number of notes lost to full queues.
func (e *Engine) Dropped() uint64 { return e.dropped.Load() }

// SetLevel sets the output gain in dB.
func (e *Engine) SetLevel(db float64) error {
	if db < minLevel || db > maxLevel || math.IsNaN(db) {
		return fmt.Errorf("level is not in valid range %v - %v: %v", minLevel, maxLevel, db)
	}
	e.level.Store(db)
	return nil
}

func (e *Engine) Level() float64 { return e.level.Load().(float64) }

// Voices returns the voice states published at the end of the last block.
func (e *Engine) Voices() [synth.NumVoices]synth.VoiceInfo {
	var info [synth.NumVoices]synth.VoiceInfo
	for i := range e.voices {
		info[i] = unpackVoice(e.voices[i].Load())
	}
	return info
}

// Process adds the next block of the synth into samples.
func (e *Engine) Process(samples [][]float32) {
	if len(samples) == 0 {
		return
	}
	n := len(samples[0])

	p := e.params.Load()
	e.pool.SetPolyphonyMode(p.PolyMode)
	e.pool.UpdateParameters(p)
	e.chorus.SetMode(p.Chorus)

	e.releaseExpired()
	e.seqEvents.drain(e.handle)
	e.events.drain(e.handle)

	gain := float32(math.Pow(10, e.Level()/20.0))
	left, right := e.mix[0], e.mix[1]
	for start := 0; start < n; start += len(left) {
		m := n - start
		if m > len(left) {
			m = len(left)
		}
		l, r := left[:m], right[:m]
		for i := range l {
			l[i], r[i] = 0, 0
		}
		e.pool.RenderBlock(e.mix, 0, m)
		e.chorus.Process(l, r)

		for c, ch := range samples {
			src := l
			if c == 1 {
				src = r
			} else if c > 1 {
				break
			}
			out := e.out[:m]
			for i, s := range src {
				out[i] = float32(s)
			}
			f32.Scale(out, out, gain)
			dst := ch[start : start+m]
			for i, s := range out {
				dst[i] += s
			}
		}
	}

	for i := 0; i < e.npending; i++ {
		e.pending[i].remaining -= n
	}
	e.publishVoices()
}

func (e *Engine) handle(ev event) {
	switch ev.kind {
	case eventNoteOn:
		if ev.pitch < 0 || ev.pitch > 127 {
			return
		}
		e.held[ev.pitch] = false
		e.pool.NoteOn(ev.channel, ev.pitch, ev.velocity)
		if ev.duration > 0 {
			e.schedule(ev.pitch, ev.offset+ev.duration)
		}
	case eventNoteOff:
		e.noteOff(ev.channel, ev.pitch)
	case eventSustain:
		e.sustain = ev.velocity > 0
		if !e.sustain {
			for pitch, held := range e.held {
				if held {
					e.held[pitch] = false
					e.pool.NoteOff(0, pitch, 0)
				}
			}
		}
	case eventAllNotesOff:
		e.npending = 0
		e.held = [128]bool{}
		e.pool.ForceAllNotesOff()
	}
}

func (e *Engine) noteOff(channel, pitch int) {
	if pitch < 0 || pitch > 127 {
		return
	}
	if e.sustain {
		e.held[pitch] = true
		return
	}
	e.pool.NoteOff(channel, pitch, 0)
}

func (e *Engine) schedule(pitch, samples int) {
	if e.npending == len(e.pending) {
		e.dropped.Add(1)
		return
	}
	e.pending[e.npending] = pendingNote{pitch: pitch, remaining: samples}
	e.npending++
}

// releaseExpired sends the note offs of sequenced notes whose duration has
// elapsed.
func (e *Engine) releaseExpired() {
	for i := 0; i < e.npending; {
		if e.pending[i].remaining > 0 {
			i++
			continue
		}
		e.noteOff(0, e.pending[i].pitch)
		e.npending--
		e.pending[i] = e.pending[e.npending]
	}
}

func (e *Engine) publishVoices() {
	for i, v := range e.pool.Voices() {
		e.voices[i].Store(packVoice(v))
	}
}

// A voice state is packed as note (bits 0-7), stage (bits 8-11) and the
// active flag (bit 12). Idle voices that never played store note 0xff.
func packVoice(v synth.VoiceInfo) uint32 {
	x := uint32(uint8(v.Note)) | uint32(v.Stage&0xf)<<8
	if v.Active {
		x |= 1 << 12
	}
	return x
}

func unpackVoice(x uint32) synth.VoiceInfo {
	note := int(x & 0xff)
	if note == 0xff {
		note = -1
	}
	return synth.VoiceInfo{
		Active: x&(1<<12) != 0,
		Note:   note,
		Stage:  synth.EnvelopeStage((x >> 8) & 0xf),
	}
}

func clampVelocity(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
