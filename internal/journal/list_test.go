package journal

import (
	"errors"
	"slices"
	"testing"
)

func TestListUneditedReadsReflectSnapshot(t *testing.T) {
	snap := []string{"x", "y"}
	l := NewList(snap)

	if l.Edited() {
		t.Error("fresh list should not be edited")
	}
	if l.Len() != 2 {
		t.Errorf("len = %d, want 2", l.Len())
	}
	if v, ok := l.At(1); !ok || v != "y" {
		t.Errorf("At(1) = %v,%v", v, ok)
	}
	if _, ok := l.At(5); ok {
		t.Error("out-of-range read should report false")
	}
}

func TestListWriteSequence(t *testing.T) {
	snap := []string{"x", "y"}
	l := NewList(snap)

	if err := l.Set(0, "X"); err != nil {
		t.Fatalf("set: %v", err)
	}
	l.Append("z")
	if err := l.Insert(1, "w"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := l.Delete(0); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := l.Snapshot(); !slices.Equal(got, []string{"w", "y", "z"}) {
		t.Errorf("state = %v", got)
	}

	j := l.Journal()
	if len(j) != 4 {
		t.Fatalf("journal length = %d, want 4", len(j))
	}
	kinds := []Kind{j[0].Kind, j[1].Kind, j[2].Kind, j[3].Kind}
	want := []Kind{KindSet, KindAppend, KindInsert, KindDelete}
	if !slices.Equal(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
	if j[1].Index != 2 {
		t.Errorf("append index = %d, want 2", j[1].Index)
	}

	// The original snapshot is untouched.
	if !slices.Equal(snap, []string{"x", "y"}) {
		t.Errorf("snapshot mutated: %v", snap)
	}
}

func TestListCopyOnWriteOnce(t *testing.T) {
	l := NewList([]int{1})
	if err := l.CopyOnWrite(); err != nil {
		t.Fatalf("first copy-on-write: %v", err)
	}
	if err := l.CopyOnWrite(); !errors.Is(err, ErrAlreadyEdited) {
		t.Fatalf("second copy-on-write: got %v", err)
	}
}

func TestListIndexErrors(t *testing.T) {
	l := NewList([]int{1})
	if err := l.Set(3, 9); !errors.Is(err, ErrIndexRange) {
		t.Errorf("set out of range: %v", err)
	}
	if err := l.Delete(-1); !errors.Is(err, ErrIndexRange) {
		t.Errorf("delete out of range: %v", err)
	}
	if err := l.Insert(5, 9); !errors.Is(err, ErrIndexRange) {
		t.Errorf("insert out of range: %v", err)
	}
	// Insert at Len() appends.
	if err := l.Insert(1, 2); err != nil {
		t.Fatalf("insert at end: %v", err)
	}
	if got := l.Snapshot(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("state = %v", got)
	}
}

func TestListFailedMutationLeavesUnedited(t *testing.T) {
	l := NewList([]int{1, 2})

	if err := l.Set(99, 7); !errors.Is(err, ErrIndexRange) {
		t.Fatalf("set out of range: %v", err)
	}
	if err := l.Insert(-1, 7); !errors.Is(err, ErrIndexRange) {
		t.Fatalf("insert out of range: %v", err)
	}
	if err := l.Delete(2); !errors.Is(err, ErrIndexRange) {
		t.Fatalf("delete out of range: %v", err)
	}

	if l.Edited() {
		t.Error("failed mutations must not trigger copy-on-write")
	}
	if j := l.Journal(); len(j) != 0 {
		t.Errorf("journal = %v, want empty", j)
	}
}
