package ecs

import (
	"fmt"
	"reflect"
)

// Precedence weights. Constraints naming a specific peer system are
// more specific than constraints anchored on a component type, so they
// insert at a higher weight and win conflicts. Denials ride at the
// weight of the verb that produced them.
const (
	weightAnchored int32 = 1
	weightExplicit int32 = 2
)

// ScheduleBuilder translates a system's declared constraints into
// weighted edges of the precedence graph. It is handed to the callback
// passed to SystemBase.Schedule; the callback runs during dispatcher
// finalization, once every system is registered.
//
// Peers are named by prototype value, matched on their Go type:
//
//	s.Schedule(func(b *ecs.ScheduleBuilder) {
//	    b.After(&PhysicsSystem{}).BeforeWritersOf(RenderableType)
//	})
type ScheduleBuilder struct {
	d *dispatcher
	s *SystemBase
}

// Before constrains this system to run before each named peer.
func (b *ScheduleBuilder) Before(peers ...System) *ScheduleBuilder {
	for _, p := range peers {
		if id, ok := b.peer(p); ok {
			b.d.graph.Add(b.s.id, id, weightExplicit)
		}
	}
	return b
}

// After constrains this system to run after each named peer.
func (b *ScheduleBuilder) After(peers ...System) *ScheduleBuilder {
	for _, p := range peers {
		if id, ok := b.peer(p); ok {
			b.d.graph.Add(id, b.s.id, weightExplicit)
		}
	}
	return b
}

// InAnyOrderWith denies any ordering between this system and each
// named peer, overriding weaker inherited constraints in both
// directions.
func (b *ScheduleBuilder) InAnyOrderWith(peers ...System) *ScheduleBuilder {
	for _, p := range peers {
		if id, ok := b.peer(p); ok {
			b.d.graph.Deny(b.s.id, id, weightExplicit)
			b.d.graph.Deny(id, b.s.id, weightExplicit)
		}
	}
	return b
}

// BeforeWritersOf constrains this system to run before every system
// whose write mask covers any of the given component types.
func (b *ScheduleBuilder) BeforeWritersOf(cs ...Component) *ScheduleBuilder {
	for _, id := range b.d.writersOf(cs) {
		b.d.graph.Add(b.s.id, id, weightAnchored)
	}
	return b
}

// AfterWritersOf constrains this system to run after every system
// whose write mask covers any of the given component types.
func (b *ScheduleBuilder) AfterWritersOf(cs ...Component) *ScheduleBuilder {
	for _, id := range b.d.writersOf(cs) {
		b.d.graph.Add(id, b.s.id, weightAnchored)
	}
	return b
}

// BeforeReadersOf constrains this system to run before every system
// whose read mask covers any of the given component types.
func (b *ScheduleBuilder) BeforeReadersOf(cs ...Component) *ScheduleBuilder {
	for _, id := range b.d.readersOf(cs) {
		b.d.graph.Add(b.s.id, id, weightAnchored)
	}
	return b
}

// AfterReadersOf constrains this system to run after every system
// whose read mask covers any of the given component types.
func (b *ScheduleBuilder) AfterReadersOf(cs ...Component) *ScheduleBuilder {
	for _, id := range b.d.readersOf(cs) {
		b.d.graph.Add(id, b.s.id, weightAnchored)
	}
	return b
}

func (b *ScheduleBuilder) peer(p System) (int, bool) {
	t := reflect.TypeOf(p)
	peer, ok := b.d.byType[t]
	if !ok {
		b.d.configErrors = append(b.d.configErrors, &WorldError{
			Message: fmt.Sprintf("schedule constraint names unregistered system %s", t),
			Code:    CodeUnknownPeer,
			System:  b.s.name,
		})
		return 0, false
	}
	return peer.base().id, true
}

// writersOf returns the ids of systems that write any of the given
// component types. The declaring system may appear; the graph ignores
// self edges.
func (d *dispatcher) writersOf(cs []Component) []int {
	return d.systemsByMask(cs, func(s *SystemBase) bitset { return s.writeMask })
}

func (d *dispatcher) readersOf(cs []Component) []int {
	return d.systemsByMask(cs, func(s *SystemBase) bitset { return s.readMask })
}

func (d *dispatcher) systemsByMask(cs []Component, mask func(*SystemBase) bitset) []int {
	want := newBitset(len(d.registry.components))
	for _, c := range cs {
		if id := c.typeID(); id >= 0 {
			want.set(uint32(id))
		}
	}
	var ids []int
	for _, slot := range d.systems {
		if mask(slot.base).intersects(want) {
			ids = append(ids, slot.base.id)
		}
	}
	return ids
}
