package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/helmark/worldline-go/ecs/emit"
)

// exerciseStore runs the Store contract against any implementation.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing world reports not found", func(t *testing.T) {
		if _, err := store.LoadFrame(ctx, "nope", 1); !errors.Is(err, ErrNotFound) {
			t.Errorf("LoadFrame err = %v, want ErrNotFound", err)
		}
		if _, err := store.LastFrame(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("LastFrame err = %v, want ErrNotFound", err)
		}
	})

	t.Run("round trip preserves the event stream", func(t *testing.T) {
		events := []emit.Event{
			{WorldID: "w", Frame: 1, Msg: "frame_start", Meta: map[string]interface{}{"delta": 0.016}},
			{WorldID: "w", Frame: 1, System: "MoveSystem", Msg: "system_end"},
			{WorldID: "w", Frame: 1, Msg: "frame_end"},
		}
		if err := store.AppendFrame(ctx, "w", 1, events); err != nil {
			t.Fatalf("AppendFrame: %v", err)
		}

		rec, err := store.LoadFrame(ctx, "w", 1)
		if err != nil {
			t.Fatalf("LoadFrame: %v", err)
		}
		if rec.WorldID != "w" || rec.Frame != 1 {
			t.Errorf("record identity = %s/%d", rec.WorldID, rec.Frame)
		}
		if len(rec.Events) != 3 {
			t.Fatalf("events length = %d, want 3", len(rec.Events))
		}
		if rec.Events[1].System != "MoveSystem" || rec.Events[1].Msg != "system_end" {
			t.Errorf("event 1 = %+v", rec.Events[1])
		}
	})

	t.Run("last frame tracks the highest append", func(t *testing.T) {
		for frame := 2; frame <= 4; frame++ {
			if err := store.AppendFrame(ctx, "w", frame, []emit.Event{{WorldID: "w", Frame: frame, Msg: "frame_end"}}); err != nil {
				t.Fatalf("AppendFrame(%d): %v", frame, err)
			}
		}
		last, err := store.LastFrame(ctx, "w")
		if err != nil {
			t.Fatalf("LastFrame: %v", err)
		}
		if last != 4 {
			t.Errorf("last frame = %d, want 4", last)
		}
	})

	t.Run("re-append overwrites the frame", func(t *testing.T) {
		if err := store.AppendFrame(ctx, "w", 2, []emit.Event{{WorldID: "w", Frame: 2, Msg: "frame_end"}}); err != nil {
			t.Fatalf("AppendFrame: %v", err)
		}
		rec, err := store.LoadFrame(ctx, "w", 2)
		if err != nil {
			t.Fatalf("LoadFrame: %v", err)
		}
		if len(rec.Events) != 1 {
			t.Errorf("events length = %d after overwrite, want 1", len(rec.Events))
		}
	})
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)

	t.Run("close is idempotent", func(t *testing.T) {
		if err := store.Close(); err != nil {
			t.Errorf("first Close: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Errorf("second Close: %v", err)
		}
	})
}

// The concrete stores must all satisfy the Store interface.
var (
	_ Store = (*MemStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MySQLStore)(nil)
)
