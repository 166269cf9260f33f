package audio

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// Pulses per quarter note
const PPQN = 960.

const (
	defaultBPM      = 120.0
	maxBPM          = 500.0
	defaultVelocity = 100
)

type Clip struct {
	Length     int
	instrument Playable
	notes      []note
}

func NewClip(length float64, p Playable) *Clip {
	return &Clip{
		Length:     int(length * PPQN),
		instrument: p,
	}
}

type Playable interface {
	PlayNote(offset, pitch, velocity, duration int)
}

func (c *Clip) AddNote(position float64, pitch int, length float64) {
	if pitch < 0 || pitch > 127 {
		return
	}
	c.notes = append(c.notes, note{
		pos:      int(position * PPQN),
		pitch:    pitch,
		velocity: defaultVelocity,
		length:   length,
	})
}

type note struct {
	pos      int // position of the note measured in PPQN from the start of a clip
	pitch    int // pitch as a midi note number
	velocity int
	length   float64 // note length in beats
}

// Sequencer loops clips in sync with the audio clock. Tick runs on the audio
// thread; tempo and clips are swapped in atomically from other goroutines.
type Sequencer struct {
	mu          sync.Mutex // serializes clip updates
	bpm         atomic.Value
	clips       atomic.Value
	sampleRate  float64
	totalPulses uint64
}

func NewSequencer(sampleRate float64) *Sequencer {
	seq := &Sequencer{sampleRate: sampleRate}
	seq.bpm.Store(defaultBPM)
	seq.clips.Store(map[string]*Clip{})
	return seq
}

func (s *Sequencer) Set(key string, value interface{}) error {
	if key != "bpm" {
		return fmt.Errorf("unknown property %s", key)
	}
	var bpm float64
	switch n := value.(type) {
	case float64:
		bpm = n
	case int:
		bpm = float64(n)
	default:
		return fmt.Errorf("value is not a float64: %v", value)
	}
	if bpm <= 0 || bpm > maxBPM {
		return fmt.Errorf("set property %s: value is not in valid range 0 - %v: %v", key, maxBPM, bpm)
	}
	s.bpm.Store(bpm)
	return nil
}

func (s *Sequencer) Get(key string) (interface{}, error) {
	if key != "bpm" {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return s.bpm.Load(), nil
}

// AddClip starts looping clip under name, replacing any clip with that name.
// The clip must not be modified afterwards.
func (s *Sequencer) AddClip(name string, clip *Clip) {
	s.updateClips(func(clips map[string]*Clip) bool {
		clips[name] = clip
		return true
	})
}

// RemoveClip reports whether a clip with the name was playing.
func (s *Sequencer) RemoveClip(name string) bool {
	return s.updateClips(func(clips map[string]*Clip) bool {
		_, ok := clips[name]
		delete(clips, name)
		return ok
	})
}

func (s *Sequencer) updateClips(f func(map[string]*Clip) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	clips := make(map[string]*Clip)
	for k, v := range s.clips.Load().(map[string]*Clip) {
		clips[k] = v
	}
	changed := f(clips)
	s.clips.Store(clips)
	return changed
}

func (s *Sequencer) Clips() []string {
	var names []string
	for name := range s.clips.Load().(map[string]*Clip) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Sequencer) Tick(numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)

	// The number of pulses to schedule for each buffer will be fractional,
	// because the PPQN is not a multiple of the buffer size. Truncating it
	// causes the next pulse to be a few samples early, but it's not noticeable.
	numPulses := int(math.Floor(PPQN * (bpm / 60.) / (s.sampleRate / float64(numSamples))))
	samplesPerPulse := s.sampleRate / ((bpm * PPQN) / 60.)

	for _, clip := range clips {
		if clip.Length <= 0 {
			continue
		}
		pos := int(s.totalPulses % uint64(clip.Length)) // current position within the clip
		nextPos := pos + numPulses                      // next position within the clip

		for _, note := range clip.notes {
			duration := int(note.length * s.sampleRate / (bpm / 60.))

			var pulses int
			switch {
			case note.pos >= pos && note.pos < nextPos:
				pulses = note.pos - pos
			case nextPos > clip.Length && note.pos < nextPos-clip.Length:
				// We've reached the end of the clip so the note plays after wrapping around.
				pulses = clip.Length - pos + note.pos
			default:
				continue
			}
			offset := int(math.Round(float64(pulses) * samplesPerPulse))
			clip.instrument.PlayNote(offset, note.pitch, note.velocity, duration)
		}
	}
	s.totalPulses += uint64(numPulses)
}
