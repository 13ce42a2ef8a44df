package ecs

import "errors"

// ErrLogOverrun indicates that a change-log appender lapped a consumer
// cursor: more entries were pushed since the cursor's position than the
// ring can hold, so entries were lost before delivery. Cursors advance
// every frame, so seeing this indicates a scheduling bug or a ring
// sized far below the per-frame mutation volume.
var ErrLogOverrun = errors.New("ecs: change log overran a consumer cursor")

// WorldError is a configuration error detected while a world is being
// created. World creation aggregates every WorldError it can find
// before failing, so a single NewWorld call reports all configuration
// problems at once.
type WorldError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// System names the system the error was detected in, when known.
	System string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *WorldError) Error() string {
	msg := "ecs: " + e.Message
	if e.System != "" {
		msg = "ecs: " + e.System + ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error for error wrapping support.
func (e *WorldError) Unwrap() error {
	return e.Cause
}

// UsageError is a fatal misuse of the runtime surface detected at the
// call site: writing a component outside the calling system's write
// mask, binding to an entity that was never allocated, or exhausting
// the fixed entity capacity. These are programming errors on par with
// an out-of-range index, so the accessors panic with a *UsageError
// rather than returning it.
type UsageError struct {
	Message string
	Code    string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return "ecs: " + e.Message
}

// Error codes attached to WorldError and UsageError values.
const (
	// CodeUnknownComponent marks a query or entity seed referencing a
	// component type that was never registered with the world.
	CodeUnknownComponent = "UNKNOWN_COMPONENT"

	// CodeDuplicateSchedule marks a system declaring more than one
	// schedule.
	CodeDuplicateSchedule = "DUPLICATE_SCHEDULE"

	// CodeDeclarationPhase marks a query, schedule, or attachment
	// declared outside the construction phase.
	CodeDeclarationPhase = "DECLARATION_OUTSIDE_SETUP"

	// CodeUnresolvedAttachment marks an attachment whose target system
	// type is not registered.
	CodeUnresolvedAttachment = "UNRESOLVED_ATTACHMENT"

	// CodeScheduleCycle marks precedence constraints that form a cycle.
	CodeScheduleCycle = "SCHEDULE_CYCLE"

	// CodeUnknownPeer marks a schedule constraint naming an
	// unregistered peer system type.
	CodeUnknownPeer = "UNKNOWN_PEER_SYSTEM"

	// CodeDuplicateSystem marks a system type registered twice; the
	// type→instance index requires one instance per type.
	CodeDuplicateSystem = "DUPLICATE_SYSTEM"

	// CodeWriteMask marks a component write outside the executing
	// system's declared write mask.
	CodeWriteMask = "WRITE_OUTSIDE_MASK"

	// CodeDeadEntity marks an accessor bound to an entity that is not
	// allocated (or no longer visible).
	CodeDeadEntity = "DEAD_ENTITY"

	// CodeCapacity marks entity or component storage exhaustion.
	CodeCapacity = "CAPACITY_EXHAUSTED"
)
