package ecs

import (
	"errors"
	"testing"
)

type health struct{ HP int }
type tag struct{}

func newTestRegistry(t *testing.T, maxEntities int) (*Registry, *ComponentType[health], *ComponentType[tag]) {
	t.Helper()
	healthType := NewComponentType[health]("health")
	tagType := NewComponentType[tag]("tag")
	r, err := newRegistry(maxEntities, []Component{healthType, tagType}, 64)
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}
	return r, healthType, tagType
}

func expectUsageError(t *testing.T, code string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a usage error panic")
		}
		var ue *UsageError
		err, ok := r.(error)
		if !ok || !errors.As(err, &ue) {
			t.Fatalf("panicked with %v, want *UsageError", r)
		}
		if ue.Code != code {
			t.Fatalf("code = %q, want %q", ue.Code, code)
		}
	}()
	fn()
}

func TestRegistryLifecycle(t *testing.T) {
	t.Run("create applies seeds and logs the shape", func(t *testing.T) {
		r, healthType, tagType := newTestRegistry(t, 16)
		tail := r.shapeLog.head
		e := r.CreateEntity(healthType.Init(health{HP: 10}), tagType.Init(tag{}))

		if !r.Alive(e) {
			t.Error("created entity not alive")
		}
		if !r.HasShape(e, healthType.ID(), false) || !r.HasShape(e, tagType.ID(), false) {
			t.Error("seeded components missing from shape")
		}
		if got := healthType.Read(e); got.HP != 10 {
			t.Errorf("HP = %d, want 10", got.HP)
		}
		if r.shapeLog.head != tail+1 {
			t.Errorf("shape log grew by %d entries, want 1", r.shapeLog.head-tail)
		}
	})

	t.Run("delete opens the recently-deleted window", func(t *testing.T) {
		r, healthType, _ := newTestRegistry(t, 16)
		e := r.CreateEntity(healthType.Init(health{HP: 3}))
		r.DeleteEntity(e)

		if r.Alive(e) {
			t.Error("deleted entity still alive")
		}
		if r.HasShape(e, healthType.ID(), false) {
			t.Error("deleted entity visible without the toggle")
		}
		if !r.HasShape(e, healthType.ID(), true) {
			t.Error("deleted entity invisible through the recently-deleted window")
		}

		r.endFrame()
		if r.HasShape(e, healthType.ID(), true) {
			t.Error("recently-deleted window survived the frame boundary")
		}
	})

	t.Run("ids recycle after the frame ends", func(t *testing.T) {
		r, healthType, _ := newTestRegistry(t, 16)
		e := r.CreateEntity(healthType.Init(health{}))
		r.DeleteEntity(e)
		r.endFrame()
		e2 := r.CreateEntity()
		if e2 != e {
			t.Errorf("recycled id = %d, want %d", e2, e)
		}
		if r.HasShape(e2, healthType.ID(), false) {
			t.Error("recycled entity inherited the old shape")
		}
	})

	t.Run("capacity exhaustion is fatal", func(t *testing.T) {
		r, _, _ := newTestRegistry(t, 2)
		r.CreateEntity()
		r.CreateEntity()
		expectUsageError(t, CodeCapacity, func() { r.CreateEntity() })
	})

	t.Run("deleting a dead entity is fatal", func(t *testing.T) {
		r, _, _ := newTestRegistry(t, 4)
		e := r.CreateEntity()
		r.DeleteEntity(e)
		expectUsageError(t, CodeDeadEntity, func() { r.DeleteEntity(e) })
	})

	t.Run("foreign component type is rejected", func(t *testing.T) {
		r, _, _ := newTestRegistry(t, 4)
		foreign := NewComponentType[health]("foreign")
		expectUsageError(t, CodeUnknownComponent, func() {
			r.CreateEntity(foreign.Init(health{}))
		})
	})
}

func TestComponentAccessors(t *testing.T) {
	t.Run("unbound type is fatal", func(t *testing.T) {
		loose := NewComponentType[health]("loose")
		expectUsageError(t, CodeUnknownComponent, func() { loose.Read(0) })
	})

	t.Run("read of a missing component is fatal", func(t *testing.T) {
		r, healthType, _ := newTestRegistry(t, 4)
		e := r.CreateEntity()
		expectUsageError(t, CodeDeadEntity, func() { healthType.Read(e) })
	})

	t.Run("write outside the executing system's mask is fatal", func(t *testing.T) {
		r, healthType, _ := newTestRegistry(t, 4)
		e := r.CreateEntity(healthType.Init(health{}))
		sys := &SystemBase{name: "bare", registry: r, writeMask: newBitset(2)}
		r.current = sys
		defer func() { r.current = nil }()
		expectUsageError(t, CodeWriteMask, func() { healthType.Write(e) })
	})

	t.Run("tracked writes land in the write log", func(t *testing.T) {
		r, healthType, _ := newTestRegistry(t, 4)
		e := r.CreateEntity(healthType.Init(health{}))

		// Untracked type: no entry.
		healthType.Write(e).HP = 1
		if r.writeLog.head != 0 {
			t.Fatalf("untracked write logged %d entries", r.writeLog.head)
		}

		r.trackedWrites.set(uint32(healthType.ID()))
		healthType.Write(e).HP = 2
		if r.writeLog.head != 1 {
			t.Fatalf("tracked write logged %d entries, want 1", r.writeLog.head)
		}
		entry := r.writeLog.buf[0]
		if Entity(entry&EntityIDMask) != e {
			t.Errorf("entry entity = %d, want %d", entry&EntityIDMask, e)
		}
		if int32(entry>>EntityIDBits) != healthType.ID() {
			t.Errorf("entry type = %d, want %d", entry>>EntityIDBits, healthType.ID())
		}
	})
}
