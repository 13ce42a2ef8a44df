package journal

import (
	"context"
	"sync"

	"github.com/helmark/worldline-go/ecs/emit"
)

// Recorder is an emit.Emitter that groups a world's event stream by
// frame and appends each completed frame to a Store. It is the wiring
// point between the dispatcher's event stream and frame persistence:
//
//	store, _ := journal.NewSQLiteStore("./frames.db")
//	rec := journal.NewRecorder(store)
//	world, _ := ecs.NewWorld(ctx, ecs.WithJournal(rec), ...)
//	...
//	_ = rec.Flush(ctx)
//
// The frame boundary is the "frame_end" event; everything buffered up
// to and including it forms one record. Store failures are retained
// and reported by the next Flush rather than interrupting the frame
// loop.
type Recorder struct {
	store Store

	mu      sync.Mutex
	pending []emit.Event
	lastErr error
}

// NewRecorder creates a Recorder appending to the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Emit buffers the event and, on a frame boundary, appends the
// completed frame to the store.
func (r *Recorder) Emit(event emit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, event)
	if event.Msg != "frame_end" {
		return
	}
	if err := r.store.AppendFrame(context.Background(), event.WorldID, event.Frame, r.pending); err != nil {
		r.lastErr = err
	}
	r.pending = r.pending[:0]
}

// EmitBatch buffers the events in order, appending any completed
// frames.
func (r *Recorder) EmitBatch(_ context.Context, events []emit.Event) error {
	for _, event := range events {
		r.Emit(event)
	}
	return nil
}

// Flush reports any store failure since the previous Flush. Events of
// a frame still in progress stay buffered for its frame_end.
func (r *Recorder) Flush(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.lastErr
	r.lastErr = nil
	return err
}
