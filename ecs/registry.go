package ecs

import "fmt"

// Registry owns entity identity and shape: which ids are alive, which
// components each carries, and the change logs that systems consume.
// The dispatcher creates one Registry per world; systems reach it
// through their SystemBase accessors or the World facade.
type Registry struct {
	maxEntities int
	components  []Component
	stride      int // shape-mask words per entity

	shapes          []uint32
	alive           bitset
	recentlyDeleted bitset
	liveCount       int
	next            Entity
	free            []Entity

	// includeRecentlyDeleted widens visibility to entities deleted
	// earlier in the current frame. Flipped through
	// AccessRecentlyDeletedData and read by every subsequent predicate
	// evaluation.
	includeRecentlyDeleted bool

	// trackedWrites is the union of every query's watched-writes mask;
	// writes to untracked types skip the write log entirely.
	trackedWrites bitset

	shapeLog *changeLog
	writeLog *changeLog

	// current is the system whose Execute is running, used to enforce
	// write masks. Nil outside a frame (world-level mutation).
	current *SystemBase
}

func newRegistry(maxEntities int, components []Component, logCapacity int) (*Registry, error) {
	if len(components) > maxComponentTypes {
		return nil, &WorldError{
			Message: fmt.Sprintf("%d component types exceed the %d the write-log entry format can address", len(components), maxComponentTypes),
			Code:    CodeCapacity,
		}
	}
	r := &Registry{
		maxEntities:     maxEntities,
		components:      components,
		stride:          (len(components) + 31) / 32,
		alive:           newBitset(maxEntities),
		recentlyDeleted: newBitset(maxEntities),
		trackedWrites:   newBitset(len(components)),
		shapeLog:        newChangeLog(logCapacity),
		writeLog:        newChangeLog(logCapacity),
	}
	if r.stride == 0 {
		r.stride = 1
	}
	r.shapes = make([]uint32, maxEntities*r.stride)
	for i, c := range components {
		c.bind(r, int32(i))
	}
	return r, nil
}

func (r *Registry) shapeWords(e Entity) []uint32 {
	off := int(e) * r.stride
	return r.shapes[off : off+r.stride]
}

// visible reports whether e may be observed under the current
// recently-deleted toggle.
func (r *Registry) visible(e Entity, includeRecentlyDeleted bool) bool {
	if int(e) >= r.maxEntities {
		return false
	}
	if r.alive.has(uint32(e)) {
		return true
	}
	return includeRecentlyDeleted && r.recentlyDeleted.has(uint32(e))
}

// HasShape reports whether entity e carries the component type with the
// given id. When includeRecentlyDeleted is true, entities deleted
// earlier in the current frame still answer with their final shape.
func (r *Registry) HasShape(e Entity, typeID int32, includeRecentlyDeleted bool) bool {
	if !r.visible(e, includeRecentlyDeleted) {
		return false
	}
	words := r.shapeWords(e)
	return words[typeID>>5]&(1<<(uint32(typeID)&31)) != 0
}

// Alive reports whether e is currently allocated and not deleted.
func (r *Registry) Alive(e Entity) bool {
	return int(e) < r.maxEntities && r.alive.has(uint32(e))
}

// LiveCount returns the number of live entities.
func (r *Registry) LiveCount() int { return r.liveCount }

// CreateEntity allocates an entity id, applies the initial component
// values, and appends the new shape to the shape log. It panics with a
// *UsageError when the entity capacity is exhausted or a seed's
// component type is not registered with this world.
func (r *Registry) CreateEntity(seeds ...InitialComponent) Entity {
	var e Entity
	switch {
	case len(r.free) > 0:
		e = r.free[len(r.free)-1]
		r.free = r.free[:len(r.free)-1]
	case int(r.next) < r.maxEntities:
		e = r.next
		r.next++
	default:
		panic(&UsageError{
			Message: fmt.Sprintf("entity capacity %d exhausted", r.maxEntities),
			Code:    CodeCapacity,
		})
	}

	words := r.shapeWords(e)
	for i := range words {
		words[i] = 0
	}
	for _, seed := range seeds {
		id := seed.component.typeID()
		if id < 0 || int(id) >= len(r.components) || r.components[id] != seed.component {
			panic(&UsageError{
				Message: fmt.Sprintf("component type %q is not registered with this world", seed.component.Name()),
				Code:    CodeUnknownComponent,
			})
		}
		words[id>>5] |= 1 << (uint32(id) & 31)
		seed.apply(e)
	}
	r.alive.set(uint32(e))
	r.liveCount++
	r.shapeLog.push(uint32(e))
	return e
}

// DeleteEntity removes e from the live set and appends the change to
// the shape log. The entity's components stay readable through the
// recently-deleted window until the end of the frame; the id is
// recycled afterwards.
func (r *Registry) DeleteEntity(e Entity) {
	if !r.Alive(e) {
		panic(&UsageError{
			Message: fmt.Sprintf("entity %d is not alive", e),
			Code:    CodeDeadEntity,
		})
	}
	r.alive.clear(uint32(e))
	r.recentlyDeleted.set(uint32(e))
	r.liveCount--
	r.shapeLog.push(uint32(e))
}

// logWrite appends a packed write-log entry when the type is watched by
// at least one query.
func (r *Registry) logWrite(typeID int32, e Entity) {
	if !r.trackedWrites.has(uint32(typeID)) {
		return
	}
	r.writeLog.push(uint32(typeID)<<EntityIDBits | uint32(e))
}

// endFrame closes the recently-deleted window: freed shapes are cleared
// and their ids returned to the free list.
func (r *Registry) endFrame() {
	for _, e := range r.recentlyDeleted.entities() {
		words := r.shapeWords(e)
		for i := range words {
			words[i] = 0
		}
		r.free = append(r.free, e)
	}
	r.recentlyDeleted.reset()
}
