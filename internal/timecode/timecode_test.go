package timecode

import "testing"

func TestEmpty(t *testing.T) {
	e := Empty()
	if !e.IsEmpty() {
		t.Fatal("Empty() should be empty")
	}
	if !e.Equal(Empty()) {
		t.Fatal("empty should equal empty")
	}
	nz := New(0, FPS50)
	if e.Equal(nz) || nz.Equal(e) {
		t.Fatal("empty should never equal a set timecode, even at frame 0")
	}
}

func TestEqualAcrossFPS(t *testing.T) {
	a := New(100, FPS50)
	b := New(100, FPS60)
	if a.Equal(b) {
		t.Fatal("timecodes at different fps must never be equal")
	}
}

func TestAddWraps(t *testing.T) {
	day := FPS50.FramesPerDay()
	tc := New(day-1, FPS50)
	next := tc.Add(1)
	if next.Frames() != 0 {
		t.Fatalf("expected wrap to 0, got %d", next.Frames())
	}
}

func TestIsBetweenHalfOpen(t *testing.T) {
	lo := New(90, FPS50)
	hi := New(106, FPS50)
	in := []int64{90, 100, 105}
	out := []int64{89, 106, 200}
	for _, f := range in {
		if !New(f, FPS50).IsBetween(lo, hi) {
			t.Errorf("frame %d should be in [%v, %v)", f, lo, hi)
		}
	}
	for _, f := range out {
		if New(f, FPS50).IsBetween(lo, hi) {
			t.Errorf("frame %d should not be in [%v, %v)", f, lo, hi)
		}
	}
}

func TestIsBetweenPanicsOnFPSMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mismatched fps comparison")
		}
	}()
	lo := New(0, FPS50)
	hi := New(10, FPS60)
	New(5, FPS50).IsBetween(lo, hi)
}

func TestBeforeOrdering(t *testing.T) {
	a := New(10, FPS25)
	b := New(20, FPS25)
	if !a.Before(b) || b.Before(a) {
		t.Fatal("ordering within one fps is broken")
	}
}
