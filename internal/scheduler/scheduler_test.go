package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/odin-broadcast/amcp-scheduler/internal/timecode"
)

func tc50(f int64) timecode.Timecode { return timecode.New(f, timecode.FPS50) }

// S4 — cross-channel token uniqueness.
func TestCrossChannelTokenUniqueness(t *testing.T) {
	s := New()
	s.AddChannel()
	s.AddChannel()

	s.Set(0, "T", tc50(300), "cmdX")
	s.Set(1, "T", tc50(400), "cmdY")

	tc, cmd, ok := s.Find("T")
	if !ok || cmd != "cmdY" || !tc.Equal(tc50(400)) {
		t.Fatalf("expected T to now live on channel 1 with cmdY, got %v %v %v", tc, cmd, ok)
	}

	entries := s.List(timecode.Empty())
	count := 0
	for _, e := range entries {
		if e.Token == "T" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one T entry across all channels, got %d", count)
	}
}

// Round-trip laws from spec.md §8.
func TestSetFindRoundTrip(t *testing.T) {
	s := New()
	s.AddChannel()
	s.Set(0, "A", tc50(10), "cmdA")

	tc, cmd, ok := s.Find("A")
	if !ok || cmd != "cmdA" || !tc.Equal(tc50(10)) {
		t.Fatalf("round trip failed: %v %v %v", tc, cmd, ok)
	}
}

func TestSetRemoveFindRoundTrip(t *testing.T) {
	s := New()
	s.AddChannel()
	s.Set(0, "A", tc50(10), "cmdA")

	if !s.Remove("A") {
		t.Fatal("expected Remove(A) true")
	}
	if _, _, ok := s.Find("A"); ok {
		t.Fatal("expected Find(A) to miss after remove")
	}
}

// Set-replaces semantics: replacing a token drops every other reference to
// the old command.
func TestSetReplacesSemantics(t *testing.T) {
	s := New()
	s.AddChannel()
	s.Set(0, "A", tc50(10), "cmd1")
	s.Set(0, "A", tc50(20), "cmd2")

	tc, cmd, ok := s.Find("A")
	if !ok || cmd != "cmd2" || !tc.Equal(tc50(20)) {
		t.Fatalf("expected replacement to win, got %v %v %v", tc, cmd, ok)
	}
	if entries := s.List(timecode.Empty()); len(entries) != 1 {
		t.Fatalf("expected exactly one surviving entry for A, got %v", entries)
	}
}

func TestChannelIndexOutOfRangePanics(t *testing.T) {
	s := New()
	s.AddChannel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range channel index")
		}
	}()
	s.Set(5, "A", tc50(10), "cmd")
}

func TestScheduleOutOfRangePanics(t *testing.T) {
	s := New()
	s.AddChannel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range channel index")
		}
	}()
	s.Schedule(5, tc50(10))
}

// S6 — schedule under contention: a long-held writer holding the lock past
// the timeout causes Schedule to return ok=false without mutating state;
// once released, a retried Schedule behaves normally.
func TestScheduleUnderContention(t *testing.T) {
	s := New()
	ch := s.AddChannel()
	s.Set(ch, "A", tc50(100), "cmdA")

	s.mu.Lock() // simulate a long-held writer
	var wg sync.WaitGroup
	wg.Add(1)
	var groups int
	var ok bool
	go func() {
		defer wg.Done()
		g, o := s.Schedule(ch, tc50(100))
		groups, ok = len(g), o
	}()

	time.Sleep(ScheduleLockTimeout + 20*time.Millisecond)
	s.mu.Unlock()
	wg.Wait()

	if ok {
		t.Fatal("expected Schedule to time out while the writer held the lock")
	}
	if groups != 0 {
		t.Fatalf("expected no partial state on timeout, got %d groups", groups)
	}

	// Retried schedule behaves identically to an uncontended one.
	g, o := s.Schedule(ch, tc50(100))
	if !o || len(g) != 1 {
		t.Fatalf("expected the retried schedule to dispatch cmdA, got %v %v", g, o)
	}
}

func TestEmptyTokenNoOps(t *testing.T) {
	s := New()
	s.AddChannel()
	if s.Remove("") {
		t.Fatal("expected Remove(\"\") to report false without needing the lock")
	}
}
