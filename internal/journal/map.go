// Package journal provides copy-on-write collections that record every write
// in an append-only journal. A collection wraps an immutable snapshot and
// serves reads from it until the first write, which copies the snapshot
// exactly once; from then on only the working copy is consulted. The journal
// preserves the literal sequence of write operations with no deduplication,
// coalescing, or reordering.
//
// Collections are not safe for unsynchronized concurrent use; each instance
// belongs to exactly one owner.
package journal

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
)

// ErrAlreadyEdited reports an attempt to force copy-on-write on a collection
// that has already copied. The transition is one-way and happens at most once.
var ErrAlreadyEdited = errors.New("journal: already copied on write")

// ErrMissingKey reports a delete of a key absent from the working copy.
var ErrMissingKey = errors.New("journal: missing key")

// Kind tags a journal entry.
type Kind string

const (
	KindSet    Kind = "set"
	KindDelete Kind = "delete"
	KindInsert Kind = "insert"
	KindAppend Kind = "append"
)

// MapEntry records one write against a Map.
type MapEntry[K comparable, V any] struct {
	Kind  Kind `json:"kind"`
	Key   K    `json:"key"`
	Value V    `json:"value,omitempty"`

	// HasValue distinguishes a delete from a set of the zero value.
	HasValue bool `json:"has_value"`
}

// Map is a mutable key/value view derived lazily from an immutable snapshot.
type Map[K comparable, V any] struct {
	original map[K]V
	edited   bool
	working  map[K]V
	journal  []MapEntry[K, V]
}

// NewMap wraps an immutable snapshot. The caller must not mutate the snapshot
// afterwards.
func NewMap[K comparable, V any](original map[K]V) *Map[K, V] {
	if original == nil {
		original = map[K]V{}
	}
	return &Map[K, V]{original: original}
}

// view is the authoritative mapping at call time.
func (m *Map[K, V]) view() map[K]V {
	if m.edited {
		return m.working
	}
	return m.original
}

// Get reads a key from the working copy if present, else from the snapshot.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.view()[key]
	return v, ok
}

// Len is the size of the authoritative mapping at call time.
func (m *Map[K, V]) Len() int { return len(m.view()) }

// All iterates the authoritative mapping. It is a live view resolved when the
// iteration starts, not a frozen snapshot.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k, v := range m.view() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Edited reports whether copy-on-write has happened. Once true it stays true
// for the lifetime of the instance.
func (m *Map[K, V]) Edited() bool { return m.edited }

// CopyOnWrite copies the snapshot into the working copy. The copy happens at
// most once per instance; forcing it a second time is a programming error.
func (m *Map[K, V]) CopyOnWrite() error {
	if m.edited {
		return ErrAlreadyEdited
	}
	m.ensureWorking()
	return nil
}

func (m *Map[K, V]) ensureWorking() {
	if m.edited {
		return
	}
	m.working = maps.Clone(m.original)
	m.edited = true
}

// Set journals and applies a write. Every call appends a journal entry, even
// when the key already holds the same value.
func (m *Map[K, V]) Set(key K, value V) {
	m.ensureWorking()
	m.journal = append(m.journal, MapEntry[K, V]{Kind: KindSet, Key: key, Value: value, HasValue: true})
	m.working[key] = value
}

// Delete journals and applies a removal. Deleting a key absent from the
// working copy after the copy fails with ErrMissingKey.
func (m *Map[K, V]) Delete(key K) error {
	m.ensureWorking()
	m.journal = append(m.journal, MapEntry[K, V]{Kind: KindDelete, Key: key})
	if _, ok := m.working[key]; !ok {
		return fmt.Errorf("%w: %v", ErrMissingKey, key)
	}
	delete(m.working, key)
	return nil
}

// Journal returns the ordered write history.
func (m *Map[K, V]) Journal() []MapEntry[K, V] { return slices.Clone(m.journal) }

// Snapshot copies the authoritative mapping at call time.
func (m *Map[K, V]) Snapshot() map[K]V { return maps.Clone(m.view()) }
