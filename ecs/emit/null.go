package emit

import "context"

// NullEmitter implements Emitter by discarding all events.
//
// Use it where observability overhead is unwanted or event capture is
// irrelevant to a test. Safe for concurrent use; zero overhead.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(Event) {}

// EmitBatch discards the events.
func (n *NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

// Flush does nothing.
func (n *NullEmitter) Flush(context.Context) error { return nil }
