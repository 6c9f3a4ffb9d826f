package channelqueue

import (
	"testing"

	"github.com/odin-broadcast/amcp-scheduler/internal/timecode"
)

func tc50(f int64) timecode.Timecode { return timecode.New(f, timecode.FPS50) }
func tc60(f int64) timecode.Timecode { return timecode.New(f, timecode.FPS60) }

// S1 — single dispatch.
func TestSingleDispatch(t *testing.T) {
	q := New()
	q.Set("A", tc50(100), "cmdA")

	if g := q.Tick(tc50(99)); len(g) != 0 {
		t.Fatalf("expected no release before target, got %v", g)
	}
	g := q.Tick(tc50(100))
	if len(g) != 1 || len(g[0].Commands) != 1 || g[0].Commands[0] != "cmdA" {
		t.Fatalf("expected cmdA to release at tc 100, got %v", g)
	}
	if g := q.Tick(tc50(101)); len(g) != 0 {
		t.Fatalf("expected nothing left to release, got %v", g)
	}
}

// S2 — catch-up across skipped frames.
func TestCatchUpAcrossSkippedFrames(t *testing.T) {
	q := New()
	q.Set("A", tc50(100), "cmdA")

	if g := q.Tick(tc50(90)); len(g) != 0 {
		t.Fatalf("expected no release yet, got %v", g)
	}
	g := q.Tick(tc50(105))
	if len(g) != 1 || g[0].Commands[0] != "cmdA" {
		t.Fatalf("expected catch-up release of cmdA, got %v", g)
	}
}

// S3 — co-timecode grouping, ordered by token.
func TestCoTimecodeGrouping(t *testing.T) {
	q := New()
	q.Set("A", tc50(200), "cmdA")
	q.Set("B", tc50(200), "cmdB")

	g := q.Tick(tc50(200))
	if len(g) != 1 {
		t.Fatalf("expected one group, got %d", len(g))
	}
	if len(g[0].Commands) != 2 || g[0].Commands[0] != "cmdA" || g[0].Commands[1] != "cmdB" {
		t.Fatalf("expected [cmdA cmdB] in token order, got %v", g[0].Commands)
	}
}

// S5 — fps change quarantines a slot; recovery tick releases once the fps
// (and the window) line back up.
func TestFPSChangeQuarantinesSlot(t *testing.T) {
	q := New()
	q.Set("A", tc50(100), "cmdA")

	g := q.Tick(tc60(100))
	if len(g) != 0 {
		t.Fatalf("expected fps mismatch to quarantine the slot, got %v", g)
	}
	if entries := q.List(timecode.Empty()); len(entries) != 1 {
		t.Fatalf("expected slot still queued, got %v", entries)
	}

	// last_tick is now 60fps; a 50fps tick collapses the window to
	// [100, 101) since fps differs from last_tick's fps again.
	g = q.Tick(tc50(100))
	if len(g) != 1 || g[0].Commands[0] != "cmdA" {
		t.Fatalf("expected cmdA to release once fps matches again, got %v", g)
	}
}

func TestRemoveAndClear(t *testing.T) {
	q := New()
	q.Set("A", tc50(10), "cmdA")
	q.Set("B", tc50(20), "cmdB")

	if !q.Remove("A") {
		t.Fatal("expected Remove(A) true")
	}
	if q.Remove("A") {
		t.Fatal("expected second Remove(A) false")
	}
	if entries := q.List(timecode.Empty()); len(entries) != 1 || entries[0].Token != "B" {
		t.Fatalf("expected only B left, got %v", entries)
	}

	// Tick once (B at 20 is outside [5, 6)) so there is a last_tick to keep.
	q.Tick(tc50(5))
	q.Clear()
	if entries := q.List(timecode.Empty()); len(entries) != 0 {
		t.Fatalf("expected empty after clear, got %v", entries)
	}
	// last_tick must survive Clear.
	if !q.LastTick().Equal(tc50(5)) {
		t.Fatal("expected last_tick to survive Clear")
	}
}

func TestFindAndList(t *testing.T) {
	q := New()
	q.Set("A", tc50(10), "cmdA")
	q.Set("B", tc50(20), "cmdB")

	tc, cmd, ok := q.Find("B")
	if !ok || cmd != "cmdB" || !tc.Equal(tc50(20)) {
		t.Fatalf("unexpected find result: %v %v %v", tc, cmd, ok)
	}
	if _, _, ok := q.Find("missing"); ok {
		t.Fatal("expected find miss for unknown token")
	}

	filtered := q.List(tc50(20))
	if len(filtered) != 1 || filtered[0].Token != "B" {
		t.Fatalf("expected only B when filtering by tc 20, got %v", filtered)
	}
}

func TestSetNoOps(t *testing.T) {
	q := New()
	q.Set("", tc50(10), "cmd")
	q.Set("A", timecode.Empty(), "cmd")
	q.Set("A", tc50(10), nil)

	if entries := q.List(timecode.Empty()); len(entries) != 0 {
		t.Fatalf("expected no-ops to leave queue empty, got %v", entries)
	}
}

func TestEmptyQueueTickUpdatesLastTick(t *testing.T) {
	q := New()
	g := q.Tick(tc50(42))
	if len(g) != 0 {
		t.Fatalf("expected no release on empty queue, got %v", g)
	}
	if !q.LastTick().Equal(tc50(42)) {
		t.Fatalf("expected last_tick to update on empty-queue tick, got %v", q.LastTick())
	}
}
