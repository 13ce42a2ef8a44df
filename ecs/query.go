package ecs

// Query is a live, incrementally maintained set of entity ids matching
// a shape predicate. Queries are declared during a system's Setup and
// owned by that system; immediately before the owning system's Execute
// runs, each query's result set equals the set of live entities
// satisfying its predicate.
type Query struct {
	sys *SystemBase

	// Predicate masks over component type ids. An entity matches when
	// its shape covers required and avoids forbidden; optional grants
	// access without constraining the shape.
	required  bitset
	forbidden bitset
	optional  bitset

	// watched selects the component types whose writes land in the
	// transient set. Non-empty watched implies write delivery.
	watched bitset

	// write marks the query as a write query: set by Write (declared
	// write access) and by Changed (watched writes). Only write queries
	// receive write events.
	write bool

	results   bitset
	transient bitset // nil unless transient results were requested
}

// All returns the matching entity ids in ascending order. The slice is
// freshly allocated; callers may keep it.
func (q *Query) All() []Entity {
	return q.results.entities()
}

// Count returns the number of matching entities.
func (q *Query) Count() int {
	return q.results.count()
}

// Contains reports whether e is currently in the result set.
func (q *Query) Contains(e Entity) bool {
	return q.results.has(uint32(e))
}

// Changed returns the entities whose membership changed or whose
// watched components were written during the current frame's update.
// It returns nil for queries that did not request transient results.
func (q *Query) Changed() []Entity {
	if q.transient == nil {
		return nil
	}
	return q.transient.entities()
}

// matches evaluates the shape predicate against e's live component
// set, honoring the registry's recently-deleted visibility toggle.
func (q *Query) matches(e Entity) bool {
	r := q.sys.registry
	if !r.visible(e, r.includeRecentlyDeleted) {
		return false
	}
	shape := bitset(r.shapeWords(e))
	return shape.containsAll(q.required) && !shape.intersects(q.forbidden)
}

// handleShapeUpdate re-evaluates the predicate for e and moves it in or
// out of the result set. A membership transition is recorded in the
// transient set when one exists.
func (q *Query) handleShapeUpdate(e Entity) {
	in := q.results.has(uint32(e))
	now := q.matches(e)
	if in == now {
		return
	}
	if now {
		q.results.set(uint32(e))
	} else {
		q.results.clear(uint32(e))
	}
	if q.transient != nil {
		q.transient.set(uint32(e))
	}
}

// handleWrite records e in the transient set when the written component
// bit intersects the query's watched-writes mask and e is already a
// member. wordOffset and bitMask address the component type bit the
// same way the watched mask stores it.
func (q *Query) handleWrite(e Entity, wordOffset int, bitMask uint32) {
	if wordOffset >= len(q.watched) || q.watched[wordOffset]&bitMask == 0 {
		return
	}
	if !q.results.has(uint32(e)) {
		return
	}
	if q.transient != nil {
		q.transient.set(uint32(e))
	}
}

func (q *Query) clearTransient() {
	if q.transient != nil {
		q.transient.reset()
	}
}

func (q *Query) clearResults() {
	q.results.reset()
	q.clearTransient()
}
