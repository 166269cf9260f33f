package main

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the driver

	"github.com/mrdg/juno/audio"
	"github.com/mrdg/juno/synth"
)

const (
	ccModWheel    = 1
	ccSustain     = 64
	ccAllNotesOff = 123
)

// defaultCCs maps controllers 16 to 32 onto the panel sliders.
var defaultCCs = map[uint8]synth.ParamID{
	16: synth.LFORate,
	17: synth.LFODelay,
	18: synth.LFOToDCO,
	19: synth.PWM,
	20: synth.SubLevel,
	21: synth.Noise,
	22: synth.HPF,
	23: synth.Cutoff,
	24: synth.Resonance,
	25: synth.EnvAmount,
	26: synth.VCFLFO,
	27: synth.KeyTrack,
	28: synth.Attack,
	29: synth.Decay,
	30: synth.Sustain,
	31: synth.Release,
	32: synth.VCALevel,
}

var errReservedCC = errors.New("controller is reserved")

func reservedCC(cc uint8) bool {
	return cc == ccModWheel || cc == ccSustain || cc == ccAllNotesOff
}

// ccMap binds controllers to parameters, at most one controller per
// parameter. It is shared by the MIDI callback and the shell.
type ccMap struct {
	mu       sync.Mutex
	params   map[uint8]synth.ParamID
	learning bool
	learnID  synth.ParamID
}

func newCCMap() *ccMap {
	m := &ccMap{params: make(map[uint8]synth.ParamID, len(defaultCCs))}
	for cc, id := range defaultCCs {
		m.params[cc] = id
	}
	return m
}

// learn binds id to the next controller that moves.
func (m *ccMap) learn(id synth.ParamID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learning, m.learnID = true, id
}

// bind maps cc to id, dropping whatever cc and id were bound to before.
func (m *ccMap) bind(cc uint8, id synth.ParamID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindLocked(cc, id)
}

func (m *ccMap) bindLocked(cc uint8, id synth.ParamID) error {
	if cc > 127 {
		return fmt.Errorf("controller out of range 0 - 127: %d", cc)
	}
	if reservedCC(cc) {
		return fmt.Errorf("%w: %d", errReservedCC, cc)
	}
	for other, bound := range m.params {
		if bound == id {
			delete(m.params, other)
		}
	}
	m.params[cc] = id
	return nil
}

func (m *ccMap) unbind(cc uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.params[cc]
	delete(m.params, cc)
	return ok
}

// lookup returns the parameter bound to cc, completing a pending learn
// first.
func (m *ccMap) lookup(cc uint8) (synth.ParamID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.learning && !reservedCC(cc) {
		if err := m.bindLocked(cc, m.learnID); err == nil {
			m.learning = false
			log.Printf("midi: cc %d bound to %s", cc, m.learnID)
		}
	}
	id, ok := m.params[cc]
	return id, ok
}

// binding is one controller assignment, for listing.
type binding struct {
	cc uint8
	id synth.ParamID
}

func (m *ccMap) bindings() []binding {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]binding, 0, len(m.params))
	for cc, id := range m.params {
		list = append(list, binding{cc: cc, id: id})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].cc < list[j].cc })
	return list
}

type player interface {
	NoteOn(channel, note int, velocity float64)
	NoteOff(channel, note int, velocity float64)
	SustainPedal(down bool)
	AllNotesOff()
}

func handleMIDI(msg midi.Message, p player, params *audio.ParamStore, ccs *ccMap) error {
	var ch, key, vel, cc, val uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		p.NoteOn(int(ch), int(key), float64(vel)/127)
	case msg.GetNoteEnd(&ch, &key):
		p.NoteOff(int(ch), int(key), 0)
	case msg.GetPitchBend(&ch, &rel, &abs):
		return params.Update(func(s *synth.Params) error {
			s.Bender = clampBend(float64(abs)/8192 - 1)
			return nil
		})
	case msg.GetControlChange(&ch, &cc, &val):
		switch cc {
		case ccModWheel:
			return params.Set7(synth.ModWheel, val)
		case ccSustain:
			p.SustainPedal(val >= 64)
		case ccAllNotesOff:
			p.AllNotesOff()
		default:
			if id, ok := ccs.lookup(cc); ok {
				return params.Set7(id, val)
			}
		}
	}
	return nil
}

func clampBend(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// listenMIDI feeds the first input port whose name contains port into the
// engine. The returned function stops listening and closes the driver.
func listenMIDI(port string, p player, params *audio.ParamStore, ccs *ccMap) (func(), error) {
	var in drivers.In
	for _, candidate := range midi.GetInPorts() {
		if strings.Contains(strings.ToLower(candidate.String()), strings.ToLower(port)) {
			in = candidate
			break
		}
	}
	if in == nil {
		midi.CloseDriver()
		return nil, fmt.Errorf("no MIDI input matching %q, available: %v", port, midi.GetInPorts())
	}
	log.Printf("listening to MIDI input %s", in)

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		if err := handleMIDI(msg, p, params, ccs); err != nil {
			log.Printf("midi: %v", err)
		}
	})
	if err != nil {
		midi.CloseDriver()
		return nil, fmt.Errorf("listen to %s: %w", in, err)
	}
	return func() {
		stop()
		midi.CloseDriver()
	}, nil
}
