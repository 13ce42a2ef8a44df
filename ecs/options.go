package ecs

import (
	"github.com/helmark/worldline-go/ecs/emit"
	"github.com/helmark/worldline-go/ecs/journal"
)

// Options configures world creation. Zero values get sensible
// defaults; Components and Systems are the only fields a useful world
// needs.
type Options struct {
	// MaxEntities is the fixed entity capacity. Storage is sized to it
	// at world creation; exceeding it at run time is a fatal usage
	// error. Default: 4096. Upper bound: 1 << EntityIDBits.
	MaxEntities int

	// LogCapacity is the ring size of each change log. It must cover
	// the mutation volume between a system's consecutive runs; an
	// overrun surfaces as ErrLogOverrun. Default: 8192.
	LogCapacity int

	// WorldID labels events and metrics. Default: a random UUID.
	WorldID string

	// Components are the component types this world stores, in dense
	// id order.
	Components []Component

	// Systems are the system instances to register, in registration
	// order. Registration order fixes system ids; execution order
	// comes from the schedule.
	Systems []System

	// Emitter receives observability events. Optional.
	Emitter emit.Emitter

	// Metrics enables Prometheus metrics collection. Optional.
	Metrics *PrometheusMetrics

	// Journal records each frame's events to a journal store for
	// post-run inspection. Optional.
	Journal *journal.Recorder

	// RecentlyDeletedVisible sets the initial state of the
	// recently-deleted visibility toggle.
	RecentlyDeletedVisible bool
}

// Option is a functional option for configuring a world. Options can
// be mixed with an Options struct; later options override earlier
// ones.
type Option func(*worldConfig) error

// worldConfig collects options before they are applied.
type worldConfig struct {
	opts Options
}

// WithMaxEntities sets the fixed entity capacity.
func WithMaxEntities(n int) Option {
	return func(cfg *worldConfig) error {
		cfg.opts.MaxEntities = n
		return nil
	}
}

// WithLogCapacity sets the ring size of each change log.
func WithLogCapacity(n int) Option {
	return func(cfg *worldConfig) error {
		cfg.opts.LogCapacity = n
		return nil
	}
}

// WithWorldID sets the world id used in events and metric labels.
func WithWorldID(id string) Option {
	return func(cfg *worldConfig) error {
		cfg.opts.WorldID = id
		return nil
	}
}

// WithComponents registers component types, appending to any already
// configured. Dense type ids follow this order.
func WithComponents(cs ...Component) Option {
	return func(cfg *worldConfig) error {
		cfg.opts.Components = append(cfg.opts.Components, cs...)
		return nil
	}
}

// WithSystems registers system instances, appending to any already
// configured.
func WithSystems(systems ...System) Option {
	return func(cfg *worldConfig) error {
		cfg.opts.Systems = append(cfg.opts.Systems, systems...)
		return nil
	}
}

// WithEmitter routes observability events to the given emitter.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *worldConfig) error {
		cfg.opts.Emitter = e
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(cfg *worldConfig) error {
		cfg.opts.Metrics = m
		return nil
	}
}

// WithJournal records frame traces through the given recorder.
func WithJournal(rec *journal.Recorder) Option {
	return func(cfg *worldConfig) error {
		cfg.opts.Journal = rec
		return nil
	}
}

// WithRecentlyDeletedVisible sets the initial recently-deleted
// visibility toggle; systems flip it later via
// AccessRecentlyDeletedData.
func WithRecentlyDeletedVisible(visible bool) Option {
	return func(cfg *worldConfig) error {
		cfg.opts.RecentlyDeletedVisible = visible
		return nil
	}
}
