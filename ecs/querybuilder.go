package ecs

import "fmt"

// QueryBuilder compiles a query declaration into predicate masks and
// access masks. It is handed to the callback passed to
// SystemBase.Query and is invalid outside it.
//
// Every component type passed to With, Using, Write, or Changed is
// folded into the owning system's read mask; types passed to Write
// additionally extend the write mask. Types passed to Without only
// constrain the predicate. Example:
//
//	s.movers = s.Query(func(b *ecs.QueryBuilder) {
//	    b.With(PositionType, VelocityType).
//	        Write(PositionType).
//	        Without(FrozenType)
//	})
type QueryBuilder struct {
	sys *SystemBase
	q   *Query
}

// With adds required component types: only entities carrying all of
// them match. Read access is granted.
func (b *QueryBuilder) With(cs ...Component) *QueryBuilder {
	for _, c := range cs {
		id, ok := b.resolve(c)
		if !ok {
			continue
		}
		b.q.required.set(uint32(id))
		b.sys.readMask.set(uint32(id))
	}
	return b
}

// Without adds forbidden component types: entities carrying any of
// them do not match.
func (b *QueryBuilder) Without(cs ...Component) *QueryBuilder {
	for _, c := range cs {
		id, ok := b.resolve(c)
		if !ok {
			continue
		}
		b.q.forbidden.set(uint32(id))
	}
	return b
}

// Using grants read access to component types without constraining the
// shape predicate.
func (b *QueryBuilder) Using(cs ...Component) *QueryBuilder {
	for _, c := range cs {
		id, ok := b.resolve(c)
		if !ok {
			continue
		}
		b.q.optional.set(uint32(id))
		b.sys.readMask.set(uint32(id))
	}
	return b
}

// Write adds required component types with write access, making the
// query a write query and extending the owning system's write mask.
func (b *QueryBuilder) Write(cs ...Component) *QueryBuilder {
	for _, c := range cs {
		id, ok := b.resolve(c)
		if !ok {
			continue
		}
		b.q.required.set(uint32(id))
		b.q.write = true
		b.sys.readMask.set(uint32(id))
		b.sys.writeMask.set(uint32(id))
	}
	return b
}

// Changed requests transient results: entities whose membership
// transitions, or whose listed components are written by an earlier
// system, appear in Query.Changed for one frame. The listed types form
// the query's watched-writes mask, and watching makes the query a
// write query so write events reach it.
func (b *QueryBuilder) Changed(cs ...Component) *QueryBuilder {
	for _, c := range cs {
		id, ok := b.resolve(c)
		if !ok {
			continue
		}
		b.q.watched.set(uint32(id))
		b.q.write = true
		b.sys.readMask.set(uint32(id))
	}
	if b.q.transient == nil {
		b.q.transient = newBitset(b.sys.registry.maxEntities)
	}
	return b
}

// resolve maps a component handle to its dense type id, recording a
// configuration error for handles the world does not know.
func (b *QueryBuilder) resolve(c Component) (int32, bool) {
	id := c.typeID()
	r := b.sys.registry
	if id < 0 || int(id) >= len(r.components) || r.components[id] != c {
		b.sys.configError(&WorldError{
			Message: fmt.Sprintf("query references component type %q before registration", c.Name()),
			Code:    CodeUnknownComponent,
			System:  b.sys.name,
		})
		return 0, false
	}
	return id, true
}
