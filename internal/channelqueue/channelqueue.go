// Package channelqueue implements the per-channel scheduling queue: a
// collection of slots plus the release-window tick algorithm that decides,
// on every frame, which slots fire.
package channelqueue

import (
	"github.com/odin-broadcast/amcp-scheduler/internal/command"
	"github.com/odin-broadcast/amcp-scheduler/internal/slot"
	"github.com/odin-broadcast/amcp-scheduler/internal/timecode"
)

// Queue is the per-channel collection of Slots. It owns last-observed
// timecode for its channel and the release-range policy; Scheduler owns one
// Queue per channel and serializes all access to it under its own mutex —
// Queue itself does no locking.
type Queue struct {
	slots    []*slot.Slot
	lastTick timecode.Timecode
}

// New creates an empty ChannelQueue. last_tick starts empty.
func New() *Queue {
	return &Queue{lastTick: timecode.Empty()}
}

// Set inserts or merges a (token, command) pair at timecode tc. A nil
// command, empty token, or empty timecode is a silent no-op (the protocol
// layer is expected to have validated these upstream). The slot sequence is
// not kept sorted by timecode — release logic tolerates any order.
func (q *Queue) Set(token string, tc timecode.Timecode, cmd command.Ref) {
	if cmd == nil || token == "" || tc.IsEmpty() {
		return
	}
	for _, s := range q.slots {
		if s.Timecode().Equal(tc) {
			s.Add(token, cmd)
			return
		}
	}
	q.slots = append(q.slots, slot.New(tc, token, cmd))
}

// Remove scans slots for token, deleting the owning slot once it empties.
// Reports whether a match was found.
func (q *Queue) Remove(token string) bool {
	if token == "" {
		return false
	}
	for i, s := range q.slots {
		if !s.Remove(token) {
			continue
		}
		if s.Len() == 0 {
			q.slots = append(q.slots[:i], q.slots[i+1:]...)
		}
		return true
	}
	return false
}

// Clear drops every slot. last_tick is preserved.
func (q *Queue) Clear() {
	q.slots = nil
}

// List returns every (timecode, token) pair, or only those matching filter
// when filter is non-empty.
func (q *Queue) List(filter timecode.Timecode) []slot.TokenEntry {
	includeAll := filter.IsEmpty()
	var out []slot.TokenEntry
	for _, s := range q.slots {
		for _, e := range s.ListTokens() {
			if includeAll || e.Timecode.Equal(filter) {
				out = append(out, e)
			}
		}
	}
	return out
}

// Find returns the first (timecode, command) match across slots.
func (q *Queue) Find(token string) (timecode.Timecode, command.Ref, bool) {
	for _, s := range q.slots {
		if cmd, ok := s.Find(token); ok {
			return s.Timecode(), cmd, true
		}
	}
	return timecode.Empty(), nil, false
}

// Tick is the release primitive: given the timecode just crossed, it
// returns every dispatch Group whose slot falls in the release window and
// removes those slots from the queue.
//
// Release window: if last_tick is empty or its fps differs from now's, the
// window collapses to exactly [now, now+1) — a frame-rate change or cold
// start leaves no meaningful prior instant. Otherwise the window is
// [last_tick, now+1), so any frame the caller skipped between ticks is
// caught up. last_tick is updated to now after the window is captured, in
// both the empty-queue and the general case.
//
// A slot whose fps no longer matches now's fps is quarantined — left queued
// rather than compared, since timecode ordering across mismatched rates is
// undefined. Operators recover such a slot by cancelling or re-submitting
// it once the channel's rate settles.
func (q *Queue) Tick(now timecode.Timecode) []command.Group {
	if len(q.slots) == 0 {
		q.lastTick = now
		return nil
	}

	lo, hi := q.releaseWindow(now)
	q.lastTick = now

	var released []command.Group
	kept := q.slots[:0]
	for _, s := range q.slots {
		if s.Timecode().FPS() == now.FPS() && s.Timecode().IsBetween(lo, hi) {
			released = append(released, s.Materialize())
			continue
		}
		kept = append(kept, s)
	}
	q.slots = kept
	return released
}

func (q *Queue) releaseWindow(now timecode.Timecode) (timecode.Timecode, timecode.Timecode) {
	if q.lastTick.IsEmpty() || q.lastTick.FPS() != now.FPS() {
		return now, now.Add(1)
	}
	return q.lastTick, now.Add(1)
}

// LastTick returns the channel's last observed timecode, mainly for tests
// and introspection.
func (q *Queue) LastTick() timecode.Timecode {
	return q.lastTick
}
