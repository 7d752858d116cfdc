package store

import (
	"testing"
	"time"
)

func TestSeriesAppendAndTail(t *testing.T) {
	s := NewSeries[int](0)
	s.Append("k", 1, 2, 3, 4)

	if got := s.Len("k"); got != 4 {
		t.Fatalf("Len = %d, want 4", got)
	}
	tail := s.Tail("k", 2)
	if len(tail) != 2 || tail[0] != 3 || tail[1] != 4 {
		t.Errorf("Tail(2) = %v, want [3 4]", tail)
	}
	// Asking for more rows than exist returns everything.
	if got := s.Tail("k", 10); len(got) != 4 {
		t.Errorf("Tail(10) returned %d rows, want 4", len(got))
	}
}

func TestSeriesEnsureRegistersEmptyKey(t *testing.T) {
	s := NewSeries[int](0)
	if s.Has("k") {
		t.Fatal("Has before Ensure")
	}
	s.Ensure("k")
	if !s.Has("k") {
		t.Fatal("Has after Ensure returned false")
	}
	if got := s.Len("k"); got != 0 {
		t.Errorf("Len after Ensure = %d, want 0", got)
	}
	s.Append("k", 7)
	s.Ensure("k")
	if got := s.Len("k"); got != 1 {
		t.Errorf("Ensure truncated existing rows: Len = %d, want 1", got)
	}
}

func TestSeriesRetentionCap(t *testing.T) {
	s := NewSeries[int](3)
	s.Append("k", 1, 2, 3, 4, 5)
	got := s.Snapshot("k")
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Errorf("Snapshot = %v, want [3 4 5]", got)
	}
}

func TestSeriesTailWhileTimeCutoff(t *testing.T) {
	type row struct{ ts time.Time }
	now := time.Now()
	s := NewSeries[row](0)
	s.Append("k",
		row{now.Add(-90 * time.Second)},
		row{now.Add(-45 * time.Second)},
		row{now.Add(-10 * time.Second)},
	)

	cutoff := now.Add(-60 * time.Second)
	got := s.TailWhile("k", func(r row) bool { return r.ts.After(cutoff) })
	if len(got) != 2 {
		t.Fatalf("TailWhile returned %d rows, want 2", len(got))
	}
	if !got[0].ts.Equal(now.Add(-45 * time.Second)) {
		t.Errorf("first row = %v, want -45s", got[0].ts)
	}
}

func TestSeriesSnapshotIsACopy(t *testing.T) {
	s := NewSeries[int](0)
	s.Append("k", 1, 2)
	snap := s.Snapshot("k")
	snap[0] = 99
	if got := s.Snapshot("k")[0]; got != 1 {
		t.Errorf("mutating a snapshot leaked into the store: %d", got)
	}
}
