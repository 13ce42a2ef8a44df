package journal

import (
	"context"
	"sync"
	"time"

	"github.com/helmark/worldline-go/ecs/emit"
)

// MemStore is an in-memory implementation of Store.
//
// Designed for tests and single-process worlds where persistence is
// not required. Thread-safe; memory usage grows with frame history.
type MemStore struct {
	mu     sync.RWMutex
	frames map[string]map[int]FrameRecord // worldID -> frame -> record
	last   map[string]int
}

// NewMemStore creates an in-memory journal store.
func NewMemStore() *MemStore {
	return &MemStore{
		frames: make(map[string]map[int]FrameRecord),
		last:   make(map[string]int),
	}
}

// AppendFrame stores one frame's trace, overwriting any earlier record
// for the same frame.
func (m *MemStore) AppendFrame(_ context.Context, worldID string, frame int, events []emit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byFrame, ok := m.frames[worldID]
	if !ok {
		byFrame = make(map[int]FrameRecord)
		m.frames[worldID] = byFrame
	}
	copied := make([]emit.Event, len(events))
	copy(copied, events)
	byFrame[frame] = FrameRecord{
		WorldID:    worldID,
		Frame:      frame,
		Events:     copied,
		RecordedAt: time.Now(),
	}
	if frame > m.last[worldID] {
		m.last[worldID] = frame
	}
	return nil
}

// LoadFrame retrieves one frame's trace.
func (m *MemStore) LoadFrame(_ context.Context, worldID string, frame int) (FrameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.frames[worldID][frame]
	if !ok {
		return FrameRecord{}, ErrNotFound
	}
	return rec, nil
}

// LastFrame returns the highest recorded frame number for a world.
func (m *MemStore) LastFrame(_ context.Context, worldID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	last, ok := m.last[worldID]
	if !ok {
		return 0, ErrNotFound
	}
	return last, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error { return nil }
