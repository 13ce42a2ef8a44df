package ecs

import (
	"fmt"
	"reflect"
)

// attachment is a placeholder reference to a peer system, created
// during Setup and resolved exactly once during dispatcher
// finalization. Until resolution the target field stays nil; after it,
// the placeholder itself is discarded.
type attachment struct {
	// peerType is the pointer type of the wanted system, e.g.
	// *PhysicsSystem.
	peerType reflect.Type

	// set writes the resolved instance through the user's field.
	set func(System)
}

// newAttachment validates and captures target, which must be a non-nil
// pointer to a field of some pointer-to-system type.
func newAttachment(target any) attachment {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		panic(&UsageError{
			Message: "Attach target must be a non-nil pointer to a system pointer field",
			Code:    CodeUnresolvedAttachment,
		})
	}
	field := v.Elem()
	if field.Kind() != reflect.Pointer || !field.Type().Implements(systemType) {
		panic(&UsageError{
			Message: fmt.Sprintf("Attach target %s is not a pointer to a system type", field.Type()),
			Code:    CodeUnresolvedAttachment,
		})
	}
	return attachment{
		peerType: field.Type(),
		set: func(peer System) {
			field.Set(reflect.ValueOf(peer))
		},
	}
}

var systemType = reflect.TypeOf((*System)(nil)).Elem()

// resolveAttachments replaces every placeholder with the registered
// instance of its peer type. Missing targets aggregate into the
// world-creation error list.
func (d *dispatcher) resolveAttachments() {
	for _, slot := range d.systems {
		for _, a := range slot.base.attachments {
			peer, ok := d.byType[a.peerType]
			if !ok {
				d.configErrors = append(d.configErrors, &WorldError{
					Message: fmt.Sprintf("attachment target %s is not registered", a.peerType),
					Code:    CodeUnresolvedAttachment,
					System:  slot.base.name,
				})
				continue
			}
			a.set(peer)
		}
		slot.base.attachments = nil
	}
}
