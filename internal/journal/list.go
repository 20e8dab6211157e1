package journal

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrIndexRange reports an index outside the working copy's bounds.
var ErrIndexRange = errors.New("journal: index out of range")

// ListEntry records one write against a List. Append entries carry the index
// the value landed at.
type ListEntry[V any] struct {
	Kind  Kind `json:"kind"`
	Index int  `json:"index"`
	Value V    `json:"value,omitempty"`

	// HasValue distinguishes a delete from a write of the zero value.
	HasValue bool `json:"has_value"`
}

// List is the sequence counterpart of Map: a mutable view derived lazily from
// an immutable slice snapshot, with the same one-way copy-on-write transition
// and append-only journal.
type List[V any] struct {
	original []V
	edited   bool
	working  []V
	journal  []ListEntry[V]
}

// NewList wraps an immutable snapshot. The caller must not mutate the
// snapshot afterwards.
func NewList[V any](original []V) *List[V] {
	return &List[V]{original: original}
}

func (l *List[V]) view() []V {
	if l.edited {
		return l.working
	}
	return l.original
}

// At reads the element at index i; ok is false when i is out of range.
func (l *List[V]) At(i int) (V, bool) {
	v := l.view()
	if i < 0 || i >= len(v) {
		var zero V
		return zero, false
	}
	return v[i], true
}

// Len is the length of the authoritative sequence at call time.
func (l *List[V]) Len() int { return len(l.view()) }

// All iterates the authoritative sequence, live at iteration time.
func (l *List[V]) All() iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		for i, v := range l.view() {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Edited reports whether copy-on-write has happened.
func (l *List[V]) Edited() bool { return l.edited }

// CopyOnWrite copies the snapshot into the working copy, at most once per
// instance. Forcing it a second time is a programming error.
func (l *List[V]) CopyOnWrite() error {
	if l.edited {
		return ErrAlreadyEdited
	}
	l.ensureWorking()
	return nil
}

func (l *List[V]) ensureWorking() {
	if l.edited {
		return
	}
	l.working = slices.Clone(l.original)
	l.edited = true
}

// Set journals and applies an in-place overwrite at index i. An out-of-range
// index fails before the copy-on-write transition: a failed mutation leaves
// the list unedited and the journal untouched.
func (l *List[V]) Set(i int, value V) error {
	if i < 0 || i >= len(l.view()) {
		return fmt.Errorf("%w: %d", ErrIndexRange, i)
	}
	l.ensureWorking()
	l.journal = append(l.journal, ListEntry[V]{Kind: KindSet, Index: i, Value: value, HasValue: true})
	l.working[i] = value
	return nil
}

// Insert journals and applies an insertion before index i. Inserting at
// Len() appends.
func (l *List[V]) Insert(i int, value V) error {
	if i < 0 || i > len(l.view()) {
		return fmt.Errorf("%w: %d", ErrIndexRange, i)
	}
	l.ensureWorking()
	l.journal = append(l.journal, ListEntry[V]{Kind: KindInsert, Index: i, Value: value, HasValue: true})
	l.working = slices.Insert(l.working, i, value)
	return nil
}

// Append journals and applies an append.
func (l *List[V]) Append(value V) {
	l.ensureWorking()
	l.journal = append(l.journal, ListEntry[V]{Kind: KindAppend, Index: len(l.working), Value: value, HasValue: true})
	l.working = append(l.working, value)
}

// Delete journals and applies a removal at index i. Like Set, an out-of-range
// index fails before the copy-on-write transition.
func (l *List[V]) Delete(i int) error {
	if i < 0 || i >= len(l.view()) {
		return fmt.Errorf("%w: %d", ErrIndexRange, i)
	}
	l.ensureWorking()
	l.journal = append(l.journal, ListEntry[V]{Kind: KindDelete, Index: i})
	l.working = slices.Delete(l.working, i, i+1)
	return nil
}

// Journal returns the ordered write history.
func (l *List[V]) Journal() []ListEntry[V] { return slices.Clone(l.journal) }

// Snapshot copies the authoritative sequence at call time.
func (l *List[V]) Snapshot() []V { return slices.Clone(l.view()) }
