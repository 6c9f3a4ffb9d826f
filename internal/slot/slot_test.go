package slot

import (
	"testing"

	"github.com/odin-broadcast/amcp-scheduler/internal/timecode"
)

func TestAddReplacesOnDuplicateToken(t *testing.T) {
	tc := timecode.New(100, timecode.FPS50)
	s := New(tc, "A", "cmd1")
	s.Add("A", "cmd2")

	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
	got, ok := s.Find("A")
	if !ok || got != "cmd2" {
		t.Fatalf("expected last-write-wins replacement, got %v, %v", got, ok)
	}
}

func TestRemove(t *testing.T) {
	tc := timecode.New(200, timecode.FPS50)
	s := New(tc, "A", "cmdA")
	s.Add("B", "cmdB")

	if !s.Remove("A") {
		t.Fatal("expected Remove(A) to report true")
	}
	if s.Remove("A") {
		t.Fatal("expected second Remove(A) to report false")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", s.Len())
	}
}

func TestMaterializeOrdersByToken(t *testing.T) {
	tc := timecode.New(200, timecode.FPS50)
	s := New(tc, "B", "cmdB")
	s.Add("A", "cmdA")
	s.Add("C", "cmdC")

	g := s.Materialize()
	if g.Timecode != tc {
		t.Fatalf("group timecode mismatch")
	}
	want := []string{"cmdA", "cmdB", "cmdC"}
	if len(g.Commands) != len(want) {
		t.Fatalf("expected %d commands, got %d", len(want), len(g.Commands))
	}
	for i, w := range want {
		if g.Commands[i] != w {
			t.Errorf("position %d: want %v, got %v", i, w, g.Commands[i])
		}
	}
}

func TestMaterializeEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic materializing an empty slot")
		}
	}()
	tc := timecode.New(0, timecode.FPS50)
	s := New(tc, "A", "cmd")
	s.Remove("A")
	s.Materialize()
}

func TestListTokens(t *testing.T) {
	tc := timecode.New(50, timecode.FPS25)
	s := New(tc, "B", "cmdB")
	s.Add("A", "cmdA")

	entries := s.ListTokens()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Token != "A" || entries[1].Token != "B" {
		t.Fatalf("expected sorted tokens, got %v", entries)
	}
	for _, e := range entries {
		if !e.Timecode.Equal(tc) {
			t.Errorf("entry timecode mismatch: %v", e)
		}
	}
}
