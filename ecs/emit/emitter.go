// Package emit provides event emission and observability for frame
// execution.
package emit

import "context"

// Emitter receives and processes observability events from frame
// execution.
//
// Emitters enable pluggable observability backends: logging,
// distributed tracing, metrics pipelines, frame journals.
//
// Implementations should be:
//   - Non-blocking: avoid slowing down the frame loop.
//   - Resilient: handle backend failures gracefully rather than
//     crashing the world.
//
// Common patterns: buffering with batched flushes, filtering (errors
// only), fan-out to multiple backends.
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit should not panic and should not block the frame loop; slow
	// backends should buffer or drop with internal logging.
	Emit(event Event)

	// EmitBatch sends multiple events in a single operation, in order.
	// Batching amortizes backend round-trips for high-volume worlds.
	//
	// Returns error only on catastrophic failures; individual event
	// failures should be logged and skipped.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush ensures all buffered events are sent to the backend. Call
	// it before shutdown to avoid losing the trailing frames. Flush is
	// idempotent and respects ctx cancellation.
	Flush(ctx context.Context) error
}
