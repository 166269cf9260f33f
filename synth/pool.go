package synth

import "fmt"

const NumVoices = 6

// VoiceInfo describes one voice slot for display.
type VoiceInfo struct {
	Active bool
	Note   int
	Stage  EnvelopeStage
}

// Pool is a fixed set of voices with round-robin, lowest-free and unison
// allocation. When every voice is busy the voice with the oldest allocation
// is stolen. All methods must be called from the rendering goroutine.
type Pool struct {
	voices     [NumVoices]Voice
	timestamps [NumVoices]uint64
	timestamp  uint64
	last       int
	mode       PolyMode
}

// NewPool creates a pool whose voice tolerances are drawn from seed.
func NewPool(seed int64) *Pool {
	p := &Pool{last: -1, mode: Poly1}
	for i, v := range NewVariances(seed, NumVoices) {
		p.voices[i].init(v, seed+int64(i+1)*7919)
	}
	return p
}

func (p *Pool) Prepare(sampleRate float64, maxBlock int) error {
	for i := range p.voices {
		if err := p.voices[i].Prepare(sampleRate, maxBlock); err != nil {
			return fmt.Errorf("voice %d: %w", i, err)
		}
	}
	return nil
}

// SetPolyphonyMode switches the allocation strategy. A change silences every
// voice so that no voice keeps the allocation state of the previous mode.
func (p *Pool) SetPolyphonyMode(mode PolyMode) {
	if mode == p.mode {
		return
	}
	p.mode = mode
	for i := range p.voices {
		p.voices[i].Stop()
	}
}

func (p *Pool) Mode() PolyMode { return p.mode }

// NoteOn allocates a voice for note. The channel is accepted for interface
// compatibility and ignored.
func (p *Pool) NoteOn(channel, note int, velocity float64) {
	if note < 0 || note > 127 {
		return
	}
	p.timestamp++

	if p.mode == Unison {
		for i := range p.voices {
			p.voices[i].Trigger(note, velocity)
			p.timestamps[i] = p.timestamp
		}
		p.last = 0
		return
	}

	// retrigger a voice that already holds the note
	for i := range p.voices {
		if v := &p.voices[i]; v.Active() && v.Note() == note {
			p.allocate(i, note, velocity)
			return
		}
	}

	i := p.findFree()
	if i < 0 {
		i = p.findOldest()
	}
	if i < 0 {
		return
	}
	p.allocate(i, note, velocity)
}

func (p *Pool) allocate(i, note int, velocity float64) {
	p.voices[i].Trigger(note, velocity)
	p.timestamps[i] = p.timestamp
	p.last = i
}

// NoteOff releases the voices playing note. In the poly modes only the first
// active voice holding the note is released.
func (p *Pool) NoteOff(channel, note int, velocity float64) {
	if p.mode == Unison {
		for i := range p.voices {
			if p.voices[i].Note() == note {
				p.voices[i].Release()
			}
		}
		return
	}
	for i := range p.voices {
		if v := &p.voices[i]; v.Active() && v.Note() == note {
			v.Release()
			return
		}
	}
}

func (p *Pool) findFree() int {
	switch p.mode {
	case Poly1:
		for n := 0; n < NumVoices; n++ {
			i := (p.last + 1 + n) % NumVoices
			if !p.voices[i].Active() {
				return i
			}
		}
	case Poly2:
		for i := range p.voices {
			if !p.voices[i].Active() {
				return i
			}
		}
	}
	return -1
}

func (p *Pool) findOldest() int {
	oldest := -1
	for i, ts := range p.timestamps {
		if oldest < 0 || ts < p.timestamps[oldest] {
			oldest = i
		}
	}
	return oldest
}

// RenderBlock adds the output of every active voice into out for the
// samples [start, start+n). Callers clear out beforehand.
func (p *Pool) RenderBlock(out [][]float64, start, n int) {
	for i := range p.voices {
		if p.voices[i].Active() {
			p.voices[i].RenderBlock(out, start, n)
		}
	}
}

func (p *Pool) UpdateParameters(params Params) {
	for i := range p.voices {
		p.voices[i].UpdateParameters(params)
	}
}

// ForceAllNotesOff releases every voice.
func (p *Pool) ForceAllNotesOff() {
	for i := range p.voices {
		p.voices[i].Release()
	}
}

func (p *Pool) Voices() [NumVoices]VoiceInfo {
	var info [NumVoices]VoiceInfo
	for i := range p.voices {
		v := &p.voices[i]
		info[i] = VoiceInfo{Active: v.Active(), Note: v.Note(), Stage: v.Stage()}
	}
	return info
}

func (p *Pool) Voice(i int) *Voice { return &p.voices[i] }

// LastAllocated returns the index of the most recently allocated voice, or
// -1 before the first note.
func (p *Pool) LastAllocated() int { return p.last }

func (p *Pool) Timestamp(i int) uint64 { return p.timestamps[i] }
