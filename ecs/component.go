package ecs

import "fmt"

// Component is the untyped handle of a component type. Concrete
// handles are created with NewComponentType and become usable once
// registered with a world via WithComponents.
type Component interface {
	// Name returns the component type's registered name.
	Name() string

	typeID() int32
	bind(r *Registry, id int32)
}

// ComponentType is a registered component schema holding values of T,
// stored sparse-by-entity in a flat array sized to the world's entity
// capacity.
//
// A ComponentType belongs to at most one world. Declare handles as
// package-level variables and hand them to NewWorld:
//
//	type Position struct{ X, Y float64 }
//	var PositionType = ecs.NewComponentType[Position]("position")
//
//	world, err := ecs.NewWorld(ctx,
//	    ecs.WithComponents(PositionType),
//	    ...
//	)
type ComponentType[T any] struct {
	name string
	id   int32
	reg  *Registry
	data []T
}

// NewComponentType declares a component type with the given name. The
// dense type id is assigned when the type is registered with a world.
func NewComponentType[T any](name string) *ComponentType[T] {
	return &ComponentType[T]{name: name, id: -1}
}

// Name returns the component type's name.
func (c *ComponentType[T]) Name() string { return c.name }

func (c *ComponentType[T]) typeID() int32 { return c.id }

func (c *ComponentType[T]) bind(r *Registry, id int32) {
	c.reg = r
	c.id = id
	c.data = make([]T, r.maxEntities)
}

// ID returns the dense type id assigned at registration, or -1 before.
func (c *ComponentType[T]) ID() int32 { return c.id }

func (c *ComponentType[T]) mustBeBound() {
	if c.reg == nil {
		panic(&UsageError{
			Message: fmt.Sprintf("component type %q used before registration", c.name),
			Code:    CodeUnknownComponent,
		})
	}
}

// Has reports whether e currently carries this component, honoring the
// world's recently-deleted visibility toggle.
func (c *ComponentType[T]) Has(e Entity) bool {
	c.mustBeBound()
	return c.reg.HasShape(e, c.id, c.reg.includeRecentlyDeleted)
}

// Read returns a copy of e's component value. It panics with a
// *UsageError when e does not carry the component or is not visible.
func (c *ComponentType[T]) Read(e Entity) T {
	c.mustBeBound()
	c.mustHold(e)
	return c.data[e]
}

// Write returns a mutable reference to e's component value and records
// the write in the write log when the type is tracked by any query.
//
// Write panics with a *UsageError when the executing system did not
// declare write access to this type, or when e does not carry the
// component.
func (c *ComponentType[T]) Write(e Entity) *T {
	c.mustBeBound()
	c.mustHold(e)
	if cur := c.reg.current; cur != nil && !cur.writeMask.has(uint32(c.id)) {
		panic(&UsageError{
			Message: fmt.Sprintf("system %q wrote component %q outside its write mask", cur.name, c.name),
			Code:    CodeWriteMask,
		})
	}
	c.reg.logWrite(c.id, e)
	return &c.data[e]
}

func (c *ComponentType[T]) mustHold(e Entity) {
	if !c.reg.HasShape(e, c.id, c.reg.includeRecentlyDeleted) {
		panic(&UsageError{
			Message: fmt.Sprintf("entity %d does not hold component %q", e, c.name),
			Code:    CodeDeadEntity,
		})
	}
}

// Init seeds a new entity with an initial value for this component.
// Pass the result to CreateEntity.
func (c *ComponentType[T]) Init(v T) InitialComponent {
	return InitialComponent{
		component: c,
		apply:     func(e Entity) { c.data[e] = v },
	}
}

// InitialComponent pairs a component type with an initial value for
// entity creation. Build one with ComponentType.Init.
type InitialComponent struct {
	component Component
	apply     func(Entity)
}
