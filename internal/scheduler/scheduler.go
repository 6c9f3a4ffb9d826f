// Package scheduler implements the Scheduler façade: a multi-channel
// aggregation of channelqueue.Queue values behind a single timed mutex,
// enforcing the global token-uniqueness invariant across every channel.
package scheduler

import (
	"fmt"
	"time"

	"github.com/odin-broadcast/amcp-scheduler/internal/channelqueue"
	"github.com/odin-broadcast/amcp-scheduler/internal/command"
	"github.com/odin-broadcast/amcp-scheduler/internal/slot"
	"github.com/odin-broadcast/amcp-scheduler/internal/timecode"
)

// ScheduleLockTimeout bounds how long Schedule will wait for the mutex
// before giving up and signaling the caller to skip this tick. Output
// threads have a frame deadline; a missed tick beats a stalled channel.
const ScheduleLockTimeout = 5 * time.Millisecond

// Scheduler is the façade over N channelqueue.Queue values. All operations
// acquire the single timed mutex; Schedule is the only one that can fail to
// acquire it, and it never blocks past ScheduleLockTimeout.
type Scheduler struct {
	mu       *timedMutex
	channels []*channelqueue.Queue
	obs      Observer
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithObserver attaches a telemetry Observer (see internal/metrics).
func WithObserver(obs Observer) Option {
	return func(s *Scheduler) { s.obs = obs }
}

// New returns an empty Scheduler with no channels.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		mu:  newTimedMutex(),
		obs: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddChannel appends a fresh channel and returns its index (new length - 1).
// Channels are append-only for the process lifetime.
func (s *Scheduler) AddChannel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append(s.channels, channelqueue.New())
	return len(s.channels) - 1
}

// ChannelCount reports how many channels have been added.
func (s *Scheduler) ChannelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels)
}

func (s *Scheduler) checkChannelIndex(channelIndex int) {
	if channelIndex < 0 || channelIndex >= len(s.channels) {
		panic(fmt.Sprintf("scheduler: channel index %d out of range (have %d channels)", channelIndex, len(s.channels)))
	}
}

// Set enforces global token uniqueness by first removing token from every
// channel, then inserting it on channelIndex — both under one lock
// acquisition, so no observer ever sees the token present on two channels
// or absent in between. Panics if channelIndex is out of range.
func (s *Scheduler) Set(channelIndex int, token string, tc timecode.Timecode, cmd command.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkChannelIndex(channelIndex)

	replaced := false
	for _, ch := range s.channels {
		if ch.Remove(token) {
			replaced = true
		}
	}
	s.channels[channelIndex].Set(token, tc, cmd)
	s.obs.ObserveSet(channelIndex, token, replaced)
}

// Remove cancels token on whichever channel holds it. An empty token
// returns false without needing the lock.
func (s *Scheduler) Remove(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.channels {
		if ch.Remove(token) {
			s.obs.ObserveRemove(token, true)
			return true
		}
	}
	s.obs.ObserveRemove(token, false)
	return false
}

// Clear drops every slot on every channel. last_tick values are preserved.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.channels {
		ch.Clear()
	}
	s.obs.ObserveClear()
}

// List concatenates every channel's List result.
func (s *Scheduler) List(filter timecode.Timecode) []slot.TokenEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []slot.TokenEntry
	for _, ch := range s.channels {
		out = append(out, ch.List(filter)...)
	}
	return out
}

// Find returns the first non-empty (timecode, command) match across
// channels.
func (s *Scheduler) Find(token string) (timecode.Timecode, command.Ref, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.channels {
		if tc, cmd, ok := ch.Find(token); ok {
			return tc, cmd, true
		}
	}
	return timecode.Empty(), nil, false
}

// Schedule is the real-time hot path: it attempts to acquire the mutex
// within ScheduleLockTimeout. On timeout it returns (nil, false), signaling
// the output loop to skip this tick rather than stall. On success it
// returns ChannelQueue.Tick's result for channelIndex and true.
func (s *Scheduler) Schedule(channelIndex int, now timecode.Timecode) ([]command.Group, bool) {
	release, ok := s.mu.acquireTimed(ScheduleLockTimeout)
	if !ok {
		s.obs.ObserveScheduleTimeout(channelIndex)
		return nil, false
	}
	defer release()

	s.checkChannelIndex(channelIndex)

	groups := s.channels[channelIndex].Tick(now)
	commands := 0
	for _, g := range groups {
		commands += len(g.Commands)
	}
	s.obs.ObserveDispatch(channelIndex, len(groups), commands)
	return groups, true
}
