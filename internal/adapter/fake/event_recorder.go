package fake

import (
	"context"
	"sync"

	"autoheal/internal/heal"
)

var _ heal.Recorder = (*EventRecorder)(nil)

// EventRecorder keeps every recorded event in memory.
type EventRecorder struct {
	mu     sync.Mutex
	events []heal.Event

	RecordErr func(ctx context.Context, ev heal.Event) error
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) Record(ctx context.Context, ev heal.Event) error {
	if r.RecordErr != nil {
		if err := r.RecordErr(ctx, ev); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

// Events returns recorded events of the given kinds, or all events when no
// kind is given.
func (r *EventRecorder) Events(kinds ...heal.EventKind) []heal.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []heal.Event
	for _, ev := range r.events {
		if len(kinds) == 0 {
			out = append(out, ev)
			continue
		}
		for _, k := range kinds {
			if ev.Kind == k {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}
