package sink

import (
	"sync"
	"time"
)

// Event is one recorded publish.
type Event struct {
	Value bool
	At    time.Time
}

// Recorder is a sink that remembers every published value.
type Recorder struct {
	mu     sync.Mutex
	value  bool
	events []Event
}

// NewRecorder returns a recorder holding initial and an empty history.
func NewRecorder(initial bool) *Recorder {
	return &Recorder{value: initial}
}

// Read returns the last published value.
func (r *Recorder) Read() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.value
}

// Publish records value with the current time.
func (r *Recorder) Publish(value bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.value = value
	r.events = append(r.events, Event{Value: value, At: time.Now()})
}

// Events returns a copy of the history.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}

// Values returns the published values in order.
func (r *Recorder) Values() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]bool, len(r.events))
	for i, e := range r.events {
		values[i] = e.Value
	}

	return values
}

// Len returns the number of recorded publishes.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.events)
}
