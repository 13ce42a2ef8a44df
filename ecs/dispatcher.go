package ecs

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/helmark/worldline-go/ecs/emit"
	"github.com/helmark/worldline-go/ecs/plan"
)

// systemSlot pairs a registered system with its container and its
// cached Executor capability.
type systemSlot struct {
	sys  System
	base *SystemBase
	exec Executor
}

// dispatcher owns every system container, the change logs (through the
// registry), and the sealed precedence graph. It drives the serial
// per-frame execution in topological order.
type dispatcher struct {
	worldID  string
	registry *Registry
	systems  []*systemSlot
	byType   map[reflect.Type]System
	graph    *plan.Graph
	order    []int
	frame    int

	emitters []emit.Emitter
	metrics  *PrometheusMetrics

	configErrors []error
}

// register assigns each system a dense id in registration order and
// indexes it by Go type, then runs every Setup hook. Queries are
// compiled immediately; schedule callbacks are deferred until all
// systems exist.
func (d *dispatcher) register(systems []System) {
	d.byType = make(map[reflect.Type]System, len(systems))
	for i, sys := range systems {
		base := sys.base()
		base.id = i
		base.name = systemName(sys)
		base.registry = d.registry
		base.disp = d

		t := reflect.TypeOf(sys)
		if prev, dup := d.byType[t]; dup {
			d.configErrors = append(d.configErrors, &WorldError{
				Message: fmt.Sprintf("system type %s registered twice (ids %d and %d)", t, prev.base().id, i),
				Code:    CodeDuplicateSystem,
				System:  base.name,
			})
		}
		d.byType[t] = sys

		exec, _ := sys.(Executor)
		d.systems = append(d.systems, &systemSlot{sys: sys, base: base, exec: exec})
	}

	for _, slot := range d.systems {
		slot.base.phase = phaseSetup
		if setup, ok := slot.sys.(Setupper); ok {
			setup.Setup()
		}
		slot.base.phase = phaseFinalized
	}

	for _, slot := range d.systems {
		for _, q := range slot.base.queries {
			d.registry.trackedWrites.or(q.watched)
		}
	}
}

// buildSchedule runs the deferred schedule callbacks, seals the graph,
// and extracts the topological order.
func (d *dispatcher) buildSchedule() {
	names := make([]string, len(d.systems))
	for i, slot := range d.systems {
		names[i] = slot.base.name
	}
	d.graph = plan.New(names)

	for _, slot := range d.systems {
		if slot.base.scheduleBuilt == nil {
			continue
		}
		slot.base.scheduleBuilt(&ScheduleBuilder{d: d, s: slot.base})
	}

	if err := d.graph.Seal(); err != nil {
		d.configErrors = append(d.configErrors, &WorldError{
			Message: "precedence constraints form a cycle",
			Code:    CodeScheduleCycle,
			Cause:   err,
		})
		return
	}
	order, err := d.graph.Topsort()
	if err != nil {
		d.configErrors = append(d.configErrors, &WorldError{
			Message: "topological sort failed after seal",
			Code:    CodeScheduleCycle,
			Cause:   err,
		})
		return
	}
	d.order = order
}

// finalize allocates log cursors for every system.
func (d *dispatcher) finalize() {
	for _, slot := range d.systems {
		slot.base.finalize()
	}
}

// initialize awaits every system's Initialize hook in schedule order.
// No frame is served until all of them return.
func (d *dispatcher) initialize(ctx context.Context) error {
	for _, idx := range d.order {
		slot := d.systems[idx]
		init, ok := slot.sys.(Initializer)
		if !ok {
			continue
		}
		if err := init.Initialize(ctx); err != nil {
			return &WorldError{
				Message: "initialize failed",
				Code:    "INITIALIZE_FAILED",
				System:  slot.base.name,
				Cause:   err,
			}
		}
	}
	return nil
}

// executeFrame runs one frame: every running system in topological
// order, each seeing the log state as of its own turn, then the
// registry's end-of-frame cleanup.
func (d *dispatcher) executeFrame(timestamp, delta float64) error {
	d.frame++
	d.emit(emit.Event{WorldID: d.worldID, Frame: d.frame, Msg: "frame_start", Meta: map[string]any{
		"time":  timestamp,
		"delta": delta,
	}})
	frameStart := time.Now()

	for _, idx := range d.order {
		slot := d.systems[idx]
		if slot.base.state != stateRunning {
			continue
		}
		d.emit(emit.Event{WorldID: d.worldID, Frame: d.frame, System: slot.base.name, Msg: "system_start"})

		d.registry.current = slot.base
		start := time.Now()
		err := slot.base.runFrame(timestamp, delta, slot.exec)
		elapsed := time.Since(start)
		d.registry.current = nil

		status := "success"
		if err != nil {
			status = "error"
		}
		if d.metrics != nil {
			d.metrics.RecordSystemLatency(d.worldID, slot.base.name, elapsed, status)
		}
		if err != nil {
			d.emit(emit.Event{WorldID: d.worldID, Frame: d.frame, System: slot.base.name, Msg: "system_error", Meta: map[string]any{
				"error": err.Error(),
			}})
			return fmt.Errorf("ecs: system %s frame %d: %w", slot.base.name, d.frame, err)
		}
		d.emit(emit.Event{WorldID: d.worldID, Frame: d.frame, System: slot.base.name, Msg: "system_end", Meta: map[string]any{
			"duration_ms": elapsed.Milliseconds(),
		}})
	}

	d.registry.endFrame()
	if d.metrics != nil {
		d.metrics.RecordFrameLatency(d.worldID, time.Since(frameStart))
		d.metrics.SetLiveEntities(d.worldID, d.registry.liveCount)
		d.metrics.SetLogTails(d.worldID, d.registry.shapeLog.head, d.registry.writeLog.head)
	}
	d.emit(emit.Event{WorldID: d.worldID, Frame: d.frame, Msg: "frame_end", Meta: map[string]any{
		"entities": d.registry.liveCount,
	}})
	return nil
}

func (d *dispatcher) emit(event emit.Event) {
	for _, e := range d.emitters {
		e.Emit(event)
	}
}

func (d *dispatcher) systemStopped(s *SystemBase) {
	d.emit(emit.Event{WorldID: d.worldID, Frame: d.frame, System: s.name, Msg: "system_stopped"})
}

func (d *dispatcher) systemRestarted(s *SystemBase) {
	if d.metrics != nil {
		d.metrics.IncrementRestarts(d.worldID, s.name)
	}
	d.emit(emit.Event{WorldID: d.worldID, Frame: d.frame, System: s.name, Msg: "system_restarted"})
}

// systemName derives a system's name from its Go type.
func systemName(sys System) string {
	t := reflect.TypeOf(sys)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
