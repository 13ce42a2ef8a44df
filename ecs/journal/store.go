// Package journal persists per-frame execution traces: the event
// stream a world emitted during each frame, retrievable afterwards for
// schedule inspection and debugging. No entity state is recorded.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/helmark/worldline-go/ecs/emit"
)

// ErrNotFound is returned when a requested world id or frame does not
// exist in the store.
var ErrNotFound = errors.New("journal: not found")

// Store persists frame traces.
//
// Implementations:
//   - MemStore: in-memory, for tests and short-lived worlds.
//   - SQLiteStore: single-file database, zero-setup local persistence.
//   - MySQLStore: shared database for multi-host deployments.
type Store interface {
	// AppendFrame persists the events emitted during one frame. Frames
	// are identified by worldID + frame number; appending the same
	// frame twice overwrites the earlier record.
	AppendFrame(ctx context.Context, worldID string, frame int, events []emit.Event) error

	// LoadFrame retrieves one frame's trace. Returns ErrNotFound when
	// the world or frame was never recorded.
	LoadFrame(ctx context.Context, worldID string, frame int) (FrameRecord, error)

	// LastFrame returns the highest recorded frame number for a world,
	// or ErrNotFound when nothing was recorded.
	LastFrame(ctx context.Context, worldID string) (int, error)

	// Close releases the store's resources. Safe to call more than
	// once.
	Close() error
}

// FrameRecord is one frame's persisted trace.
type FrameRecord struct {
	// WorldID identifies the world the frame belongs to.
	WorldID string `json:"world_id"`

	// Frame is the frame number (1-indexed).
	Frame int `json:"frame"`

	// Events holds the frame's event stream in emission order.
	Events []emit.Event `json:"events"`

	// RecordedAt is when the record was written.
	RecordedAt time.Time `json:"recorded_at"`
}
