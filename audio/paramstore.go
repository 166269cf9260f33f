package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mrdg/juno/synth"
)

// Device is anything whose settings can be changed by name.
type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

// ParamStore hands parameter snapshots to the audio thread without locks.
// Writers copy the current snapshot, modify the copy and publish it; the
// audio thread loads one snapshot per block.
type ParamStore struct {
	mu     sync.Mutex // serializes writers
	params atomic.Value
}

func NewParamStore(init synth.Params) *ParamStore {
	var s ParamStore
	s.params.Store(init)
	return &s
}

// Load returns the latest snapshot. It is safe to call from the audio thread.
func (s *ParamStore) Load() synth.Params {
	return s.params.Load().(synth.Params)
}

// Update applies f to a copy of the current snapshot and publishes the copy
// when f succeeds.
func (s *ParamStore) Update(f func(*synth.Params) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.Load()
	if err := f(&p); err != nil {
		return err
	}
	s.params.Store(p)
	return nil
}

// Set changes a parameter by name. Numbers are taken in the unit of
// synth.Params.SetValue and strings select a switch position by name.
func (s *ParamStore) Set(key string, value interface{}) error {
	id, ok := synth.ParamIDByName(key)
	if !ok {
		return fmt.Errorf("%w %s", synth.ErrUnknownParam, key)
	}
	return s.Update(func(p *synth.Params) error {
		switch v := value.(type) {
		case float64:
			return p.SetValue(id, v)
		case int:
			return p.SetValue(id, float64(v))
		case bool:
			if v {
				return p.SetValue(id, 1)
			}
			return p.SetValue(id, 0)
		case string:
			return p.SetChoice(id, v)
		}
		return fmt.Errorf("set %s: value is not a number or name: %v", key, value)
	})
}

func (s *ParamStore) Get(key string) (interface{}, error) {
	id, ok := synth.ParamIDByName(key)
	if !ok {
		return nil, fmt.Errorf("%w %s", synth.ErrUnknownParam, key)
	}
	return s.Load().Value(id)
}

// Set7 sets a parameter from a 7-bit controller value.
func (s *ParamStore) Set7(id synth.ParamID, value uint8) error {
	return s.Update(func(p *synth.Params) error {
		return p.Set7(id, value)
	})
}

func (s *ParamStore) ApplyPatch(patch synth.Patch) error {
	return s.Update(func(p *synth.Params) error {
		return p.ApplyPatch(patch)
	})
}
