package ecs

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// World is the facade over a dispatcher, its registry, and its
// systems. Create one with NewWorld, then drive it one frame at a time
// with Execute.
//
// A World is single-threaded: Execute, CreateEntity, and every system
// hook run on the caller's goroutine.
type World struct {
	id       string
	registry *Registry
	disp     *dispatcher
}

// NewWorld creates a world from the given configuration, which may mix
// an Options struct with functional options:
//
//	world, err := ecs.NewWorld(ctx,
//	    ecs.WithMaxEntities(10_000),
//	    ecs.WithComponents(PositionType, VelocityType),
//	    ecs.WithSystems(&MoveSystem{}, &RenderSystem{}),
//	)
//
// World creation runs the full system lifecycle up to the first frame:
// Setup hooks, query compilation, schedule construction and sealing,
// attachment resolution, cursor allocation, and the Initialize hooks
// (awaited in schedule order under ctx).
//
// Configuration problems are aggregated: a single failing call reports
// every unknown component, duplicate schedule, unresolved attachment,
// and precedence cycle it can find.
func NewWorld(ctx context.Context, options ...any) (*World, error) {
	cfg := &worldConfig{}
	for _, opt := range options {
		switch v := opt.(type) {
		case Options:
			cfg.opts = v
		case Option:
			if err := v(cfg); err != nil {
				return nil, err
			}
		default:
			return nil, &WorldError{
				Message: "options must be ecs.Options or ecs.Option values",
				Code:    "BAD_OPTION",
			}
		}
	}
	opts := cfg.opts

	if opts.MaxEntities <= 0 {
		opts.MaxEntities = 4096
	}
	if opts.MaxEntities > 1<<EntityIDBits {
		return nil, &WorldError{
			Message: "MaxEntities exceeds the entity id space of the write-log entry format",
			Code:    CodeCapacity,
		}
	}
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = 8192
	}
	if opts.WorldID == "" {
		opts.WorldID = uuid.NewString()
	}

	registry, err := newRegistry(opts.MaxEntities, opts.Components, opts.LogCapacity)
	if err != nil {
		return nil, err
	}
	registry.includeRecentlyDeleted = opts.RecentlyDeletedVisible

	d := &dispatcher{
		worldID:  opts.WorldID,
		registry: registry,
		metrics:  opts.Metrics,
	}
	if opts.Emitter != nil {
		d.emitters = append(d.emitters, opts.Emitter)
	}
	if opts.Journal != nil {
		d.emitters = append(d.emitters, opts.Journal)
	}

	d.register(opts.Systems)
	d.buildSchedule()
	d.resolveAttachments()
	if len(d.configErrors) > 0 {
		return nil, errors.Join(d.configErrors...)
	}
	d.finalize()
	if err := d.initialize(ctx); err != nil {
		return nil, err
	}

	return &World{id: opts.WorldID, registry: registry, disp: d}, nil
}

// ID returns the world id used in events and metric labels.
func (w *World) ID() string { return w.id }

// Registry returns the entity registry backing this world.
func (w *World) Registry() *Registry { return w.registry }

// Execute runs a single frame with the given timestamp and time step:
// every running system, in topological order, each observing the
// mutations of the systems before it.
func (w *World) Execute(timestamp, delta float64) error {
	return w.disp.executeFrame(timestamp, delta)
}

// CreateEntity allocates an entity outside any frame, typically to
// seed the world before the first Execute.
func (w *World) CreateEntity(seeds ...InitialComponent) Entity {
	return w.registry.CreateEntity(seeds...)
}

// DeleteEntity removes an entity outside any frame.
func (w *World) DeleteEntity(e Entity) {
	w.registry.DeleteEntity(e)
}

// Stats is a point-in-time snapshot of world counters.
type Stats struct {
	// Frames is the number of frames executed so far.
	Frames int

	// Systems is the number of registered systems.
	Systems int

	// LiveEntities is the current live entity count.
	LiveEntities int

	// ShapeLogTail and WriteLogTail are the absolute append positions
	// of the two change logs.
	ShapeLogTail uint64
	WriteLogTail uint64
}

// Stats returns a snapshot of world counters.
func (w *World) Stats() Stats {
	return Stats{
		Frames:       w.disp.frame,
		Systems:      len(w.disp.systems),
		LiveEntities: w.registry.liveCount,
		ShapeLogTail: w.registry.shapeLog.head,
		WriteLogTail: w.registry.writeLog.head,
	}
}
