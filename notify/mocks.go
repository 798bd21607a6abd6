package notify

import (
	"context"
	"sync"

	"blackcross/core"
)

// CaptureSink records every emitted trigger for assertions in tests.
type CaptureSink struct {
	mu       sync.Mutex
	triggers []*core.TriggerRecord
	// Err, when set, is returned from every Emit call.
	Err error
}

// NewCaptureSink creates an empty capture sink.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// Emit records the trigger.
func (s *CaptureSink) Emit(_ context.Context, trigger *core.TriggerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.triggers = append(s.triggers, trigger)
	return nil
}

// Triggers returns a copy of the captured triggers.
func (s *CaptureSink) Triggers() []*core.TriggerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.TriggerRecord, len(s.triggers))
	copy(out, s.triggers)
	return out
}

// Count returns the number of captured triggers.
func (s *CaptureSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}
