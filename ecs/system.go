package ecs

import "context"

// System is implemented by every user system: a struct embedding
// SystemBase. Behavior is attached through the optional capability
// interfaces Setupper, Initializer, and Executor; a system may
// implement any subset.
//
//	type MoveSystem struct {
//	    ecs.SystemBase
//	    movers *ecs.Query
//	}
//
//	func (s *MoveSystem) Setup() {
//	    s.movers = s.Query(func(b *ecs.QueryBuilder) {
//	        b.With(PositionType, VelocityType).Write(PositionType)
//	    })
//	}
//
//	func (s *MoveSystem) Execute() {
//	    for _, e := range s.movers.All() {
//	        p := PositionType.Write(e)
//	        v := VelocityType.Read(e)
//	        p.X += v.X * s.Delta()
//	        p.Y += v.Y * s.Delta()
//	    }
//	}
type System interface {
	base() *SystemBase
}

// Setupper is the construction-phase hook. Queries, schedules, and
// attachments may be declared only inside Setup; the dispatcher calls
// it exactly once during world creation.
type Setupper interface {
	Setup()
}

// Initializer is the optional startup hook. The dispatcher awaits it
// for every system, in schedule order, before serving the first frame;
// a blocking Initialize is the suspension point for deferred startup
// work.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Executor is the per-frame hook. Execute runs once per frame while
// the system is in the running state, after its queries have absorbed
// all changes produced by earlier systems.
type Executor interface {
	Execute()
}

// Run states of a system.
const (
	stateRunning int32 = iota
	stateStopped
)

// Lifecycle phases of a system container.
const (
	phaseRegistered int32 = iota
	phaseSetup
	phaseFinalized
)

// SystemBase is the framework-owned container every system embeds. It
// carries the system's identity, run state, access masks, queries, log
// cursors, and the per-frame bookkeeping of the query-update pipeline.
// All exported methods are for use from the embedding system; none are
// safe for concurrent use.
type SystemBase struct {
	id       int
	name     string
	registry *Registry
	disp     *dispatcher

	phase int32
	state int32

	readMask  bitset
	writeMask bitset

	queries      []*Query
	writeQueries []*Query
	hasTransient bool

	shapeCursor *logCursor
	writeCursor *logCursor // nil unless the system owns write queries

	// processed marks entities already delivered a shape update this
	// frame, so writes to them are skipped and no entity is evaluated
	// twice.
	processed bitset

	ranQueriesLastFrame bool

	time  float64
	delta float64

	scheduleBuilt func(*ScheduleBuilder)
	attachments   []attachment
}

func (s *SystemBase) base() *SystemBase { return s }

// ID returns the dense system id assigned at registration.
func (s *SystemBase) ID() int { return s.id }

// Name returns the system's name, derived from its Go type.
func (s *SystemBase) Name() string { return s.name }

// Time returns the current frame's timestamp. Valid inside Execute.
func (s *SystemBase) Time() float64 { return s.time }

// Delta returns the current frame's time step. Valid inside Execute.
func (s *SystemBase) Delta() float64 { return s.delta }

// Query declares a query, legal only during Setup. The builder
// callback runs immediately; the compiled query is owned by this
// system and kept current before every Execute.
func (s *SystemBase) Query(build func(*QueryBuilder)) *Query {
	s.mustBeInSetup("query")
	q := &Query{
		sys:       s,
		required:  newBitset(len(s.registry.components)),
		forbidden: newBitset(len(s.registry.components)),
		optional:  newBitset(len(s.registry.components)),
		watched:   newBitset(len(s.registry.components)),
		results:   newBitset(s.registry.maxEntities),
	}
	build(&QueryBuilder{sys: s, q: q})
	s.queries = append(s.queries, q)
	if q.write {
		s.writeQueries = append(s.writeQueries, q)
	}
	if q.transient != nil {
		s.hasTransient = true
	}
	return q
}

// Schedule declares this system's precedence constraints, legal only
// during Setup and at most once per system. The builder callback runs
// during dispatcher finalization, after every system is registered.
func (s *SystemBase) Schedule(build func(*ScheduleBuilder)) {
	s.mustBeInSetup("schedule")
	if s.scheduleBuilt != nil {
		s.configError(&WorldError{
			Message: "schedule declared more than once",
			Code:    CodeDuplicateSchedule,
			System:  s.name,
		})
		return
	}
	s.scheduleBuilt = build
}

// Stop transitions the system to the stopped state. Execute becomes a
// no-op and every query's result set is cleared, so a later Restart
// rebuilds them from scratch.
func (s *SystemBase) Stop() {
	if s.state == stateStopped {
		return
	}
	s.state = stateStopped
	for _, q := range s.queries {
		q.clearResults()
	}
	if s.disp != nil {
		s.disp.systemStopped(s)
	}
}

// Restart returns a stopped system to the running state. Result sets
// are rebuilt by delivering a synthetic shape update for every live
// entity, transients are cleared, and both log cursors are re-anchored
// at the current tails so changes that accumulated while stopped are
// not replayed.
func (s *SystemBase) Restart() {
	if s.state == stateRunning {
		return
	}
	r := s.registry
	for e := Entity(0); e < r.next; e++ {
		if !r.Alive(e) {
			continue
		}
		for _, q := range s.queries {
			q.handleShapeUpdate(e)
		}
	}
	for _, q := range s.queries {
		q.clearTransient()
	}
	s.shapeCursor = r.shapeLog.createCursor(s.shapeCursor)
	if s.writeCursor != nil {
		s.writeCursor = r.writeLog.createCursor(s.writeCursor)
	}
	s.ranQueriesLastFrame = false
	s.state = stateRunning
	if s.disp != nil {
		s.disp.systemRestarted(s)
	}
}

// CreateEntity allocates an entity with the given initial components.
// The returned handle must not outlive the current Execute.
func (s *SystemBase) CreateEntity(seeds ...InitialComponent) Entity {
	return s.registry.CreateEntity(seeds...)
}

// DeleteEntity removes an entity. Its components stay visible through
// AccessRecentlyDeletedData until the end of the frame.
func (s *SystemBase) DeleteEntity(e Entity) {
	s.registry.DeleteEntity(e)
}

// AccessRecentlyDeletedData toggles visibility of entities deleted
// earlier in the current frame for every predicate evaluation and
// component access performed after the call.
func (s *SystemBase) AccessRecentlyDeletedData(toggle bool) {
	s.registry.includeRecentlyDeleted = toggle
}

// Attach declares a placeholder reference to a peer system. target
// must be a pointer to a field whose type is a pointer to the peer
// system's struct; the dispatcher fills it in once all systems are
// registered:
//
//	type ReportSystem struct {
//	    ecs.SystemBase
//	    physics *PhysicsSystem
//	}
//
//	func (s *ReportSystem) Setup() {
//	    s.Attach(&s.physics)
//	}
//
// Legal only during Setup. An unregistered target type fails world
// creation.
func (s *SystemBase) Attach(target any) {
	s.mustBeInSetup("attachment")
	s.attachments = append(s.attachments, newAttachment(target))
}

func (s *SystemBase) mustBeInSetup(what string) {
	if s.phase != phaseSetup {
		panic(&UsageError{
			Message: what + " declared outside the construction phase",
			Code:    CodeDeclarationPhase,
		})
	}
}

func (s *SystemBase) configError(err *WorldError) {
	s.disp.configErrors = append(s.disp.configErrors, err)
}

// finalize allocates the system's log cursors. The write cursor exists
// only when the system owns write queries.
func (s *SystemBase) finalize() {
	r := s.registry
	s.processed = newBitset(r.maxEntities)
	s.shapeCursor = r.shapeLog.createCursor(nil)
	if len(s.writeQueries) > 0 {
		s.writeCursor = r.writeLog.createCursor(nil)
	}
}

// updateQueries runs the query-update pipeline for one frame, before
// the system's Execute. Three paths, chosen by whether the logs hold
// news for this system:
//
//  1. Shape changes or tracked writes arrived: clear transients, then
//     consume the shape log and (for write-query owners) the write log.
//  2. Nothing arrived but transient queries exist and the previous
//     frame did run updates: clear transients only. Transient results
//     are visible during the frame that produced them and are gone at
//     the first idle frame; a second idle frame in a row takes path 3.
//  3. Otherwise: nothing to do.
func (s *SystemBase) updateQueries() error {
	r := s.registry
	shapesChanged := r.shapeLog.hasUpdatesSince(s.shapeCursor)
	writesMade := s.writeCursor != nil && r.writeLog.hasUpdatesSince(s.writeCursor)

	switch {
	case shapesChanged || writesMade:
		for _, q := range s.queries {
			q.clearTransient()
		}
		if err := s.consumeLogs(); err != nil {
			return err
		}
		s.ranQueriesLastFrame = true
	case s.hasTransient && s.ranQueriesLastFrame:
		for _, q := range s.queries {
			q.clearTransient()
		}
		s.ranQueriesLastFrame = false
	default:
		s.ranQueriesLastFrame = false
	}
	return nil
}

// consumeLogs drains both logs past this system's cursors. Shape
// updates dominate writes: an entity whose shape changed this frame is
// marked processed, and write entries for it are skipped.
func (s *SystemBase) consumeLogs() error {
	r := s.registry
	s.processed.reset()

	for {
		buf, start, end, ok, err := r.shapeLog.processSince(s.shapeCursor)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		for _, raw := range buf[start:end] {
			if s.processed.has(raw) {
				continue
			}
			s.processed.set(raw)
			e := Entity(raw)
			for _, q := range s.queries {
				q.handleShapeUpdate(e)
			}
		}
	}

	if s.writeCursor == nil {
		return nil
	}
	for {
		buf, start, end, ok, err := r.writeLog.processSince(s.writeCursor)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		for _, raw := range buf[start:end] {
			id := raw & EntityIDMask
			if s.processed.has(id) {
				continue
			}
			typeID := raw >> EntityIDBits
			wordOffset := int(typeID >> 5)
			bitMask := uint32(1) << (typeID & 31)
			e := Entity(id)
			for _, q := range s.writeQueries {
				q.handleWrite(e, wordOffset, bitMask)
			}
		}
	}
	return nil
}

// runFrame drives one frame for this system: record the frame clock,
// bring queries up to date, then invoke the user's Execute.
func (s *SystemBase) runFrame(time, delta float64, exec Executor) error {
	if s.state != stateRunning {
		return nil
	}
	s.time = time
	s.delta = delta
	if err := s.updateQueries(); err != nil {
		return err
	}
	if exec != nil {
		exec.Execute()
	}
	return nil
}
