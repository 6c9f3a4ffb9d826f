// Package slot implements the bucket of commands that share one timecode on
// one channel. A Slot maps token to command; ChannelQueue owns the Slot's
// lifecycle (creation on first insert, deletion once emptied or dispatched).
package slot

import (
	"sort"

	"github.com/odin-broadcast/amcp-scheduler/internal/command"
	"github.com/odin-broadcast/amcp-scheduler/internal/timecode"
)

// TokenEntry pairs a slot's timecode with one of its tokens, the shape
// ChannelQueue.List and Scheduler.List hand back to callers.
type TokenEntry struct {
	Timecode timecode.Timecode
	Token    string
}

// Slot aggregates commands due at a single (channel, timecode). The
// invariant that a Slot never has zero entries is enforced by ChannelQueue,
// which deletes a Slot the moment Remove empties it.
type Slot struct {
	timecode timecode.Timecode
	commands map[string]command.Ref
}

// New creates a Slot with one initial (token, command) pair.
func New(tc timecode.Timecode, token string, cmd command.Ref) *Slot {
	s := &Slot{
		timecode: tc,
		commands: make(map[string]command.Ref, 1),
	}
	s.commands[token] = cmd
	return s
}

// Timecode returns the instant this slot's commands are due at.
func (s *Slot) Timecode() timecode.Timecode {
	return s.timecode
}

// Add inserts a (token, command) pair. A duplicate token replaces the
// previously held command — last-write-wins at the slot level, per the
// scheduler's resolved Open Question on AMCPScheduledCommand::add.
func (s *Slot) Add(token string, cmd command.Ref) {
	s.commands[token] = cmd
}

// Remove deletes the entry for token and reports whether it existed.
func (s *Slot) Remove(token string) bool {
	if _, ok := s.commands[token]; !ok {
		return false
	}
	delete(s.commands, token)
	return true
}

// Len reports how many commands remain in the slot.
func (s *Slot) Len() int {
	return len(s.commands)
}

// Find returns the command registered under token, if any.
func (s *Slot) Find(token string) (command.Ref, bool) {
	cmd, ok := s.commands[token]
	return cmd, ok
}

// ListTokens enumerates every (timecode, token) pair held by this slot.
func (s *Slot) ListTokens() []TokenEntry {
	out := make([]TokenEntry, 0, len(s.commands))
	for tok := range s.commands {
		out = append(out, TokenEntry{Timecode: s.timecode, Token: tok})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

// Materialize builds the dispatch Group for this slot, ordering commands by
// sorted token for determinism (the source's std::map iteration order was
// unspecified; this pins it). Calling Materialize on an empty slot is
// undefined per the scheduler's invariant that empty slots cannot exist —
// it panics rather than silently returning a useless Group.
func (s *Slot) Materialize() command.Group {
	if len(s.commands) == 0 {
		panic("slot: materialize on empty slot")
	}
	tokens := make([]string, 0, len(s.commands))
	for tok := range s.commands {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	cmds := make([]command.Ref, len(tokens))
	for i, tok := range tokens {
		cmds[i] = s.commands[tok]
	}
	return command.NewGroup(s.timecode, cmds)
}
