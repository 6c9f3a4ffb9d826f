// Package command defines the opaque command handle the scheduler core
// stores, groups, and releases, but never constructs or inspects. Ownership
// is whatever the caller already holds a reference to — Go's garbage
// collector is the shared-ownership mechanism here; the scheduler simply
// drops its reference on dispatch, cancel, replace, or clear.
package command

import "github.com/odin-broadcast/amcp-scheduler/internal/timecode"

// Ref is an opaque command handle. The scheduler treats it as inert data —
// execution belongs entirely to the output loop that receives a Group.
type Ref any

// Group is the dispatch unit materialized from a Slot at release: every
// command that shared the slot's timecode, ordered deterministically by the
// token each was registered under.
type Group struct {
	Timecode timecode.Timecode
	Commands []Ref
}

// NewGroup builds a Group. Called only by Slot.Materialize.
func NewGroup(tc timecode.Timecode, commands []Ref) Group {
	return Group{Timecode: tc, Commands: commands}
}
