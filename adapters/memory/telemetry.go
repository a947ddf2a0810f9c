package memory

import (
	"log"
	"sync"
)

// TelemetryEvent is one recorded emission.
type TelemetryEvent struct {
	Name  string
	Props map[string]interface{}
}

// RecordingSink keeps emitted events in memory. It doubles as the default
// sink (logging emissions) and as a test spy.
type RecordingSink struct {
	mu     sync.Mutex
	events []TelemetryEvent

	// Quiet suppresses log output; tests usually want it on.
	Quiet bool
}

// NewRecordingSink creates an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Emit records the event. Never panics, never blocks.
func (s *RecordingSink) Emit(event string, props map[string]interface{}) {
	s.mu.Lock()
	s.events = append(s.events, TelemetryEvent{Name: event, Props: props})
	s.mu.Unlock()
	if !s.Quiet {
		log.Printf("[Telemetry] %s %v", event, props)
	}
}

// Events returns a copy of everything emitted so far.
func (s *RecordingSink) Events() []TelemetryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TelemetryEvent, len(s.events))
	copy(out, s.events)
	return out
}

// CountByName tallies emissions of one event name.
func (s *RecordingSink) CountByName(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
