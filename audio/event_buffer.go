package audio

import (
	"runtime"
	"sync/atomic"
)

type eventKind uint8

const (
	eventNoteOn eventKind = iota
	eventNoteOff
	eventSustain
	eventAllNotesOff
)

type event struct {
	kind     eventKind
	channel  int
	pitch    int
	offset   int
	velocity float64 // 0 - 1, pedal down when above 0 for sustain events
	duration int     // samples, 0 for notes ended by a note off
}

// eventBuffer is a lock-free spsc queue.
type eventBuffer struct {
	events      []event
	read, write *uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{
		events: make([]event, size),
		read:   new(uint32),
		write:  new(uint32),
	}
}

// push waits for space in the buffer.
func (b *eventBuffer) push(ev event) {
	for !b.tryPush(ev) {
		runtime.Gosched()
	}
}

// tryPush reports whether ev was queued. It never blocks, so the audio
// thread can use it.
func (b *eventBuffer) tryPush(ev event) bool {
	write := atomic.LoadUint32(b.write)
	if write-atomic.LoadUint32(b.read) == uint32(len(b.events)) {
		return false
	}
	b.events[write%uint32(len(b.events))] = ev
	atomic.StoreUint32(b.write, write+1)
	return true
}

// drain passes every queued event to f in order.
func (b *eventBuffer) drain(f func(event)) {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	for ; read != write; read++ {
		f(b.events[read%uint32(len(b.events))])
	}
	atomic.StoreUint32(b.read, read)
}
