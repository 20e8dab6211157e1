// Package entity implements the revision model: immutable entity revisions
// identified by UID and version, per-entity journals that stage edits, and
// sessions that commit staged edits into new revisions. Mutating surfaces are
// routed through call boundaries composed with the lifecycle predicates.
package entity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Separator joins the namespace and ID parts of a rendered UID.
const Separator = ":"

var uidPart = regexp.MustCompile(`^[a-zA-Z0-9@_#-]+$`)

// ErrInvalidUID reports a namespace or ID part that fails validation.
var ErrInvalidUID = errors.New("entity: invalid uid")

// UID identifies an entity across all of its revisions.
type UID struct {
	Namespace string
	ID        string
}

// NewUID mints a UID with a random ID in the given namespace.
func NewUID(namespace string) (UID, error) {
	return MakeUID(namespace, uuid.NewString())
}

// MakeUID builds a UID from explicit parts, validating both.
func MakeUID(namespace, id string) (UID, error) {
	if !uidPart.MatchString(namespace) {
		return UID{}, fmt.Errorf("%w: namespace %q", ErrInvalidUID, namespace)
	}
	if !uidPart.MatchString(id) {
		return UID{}, fmt.Errorf("%w: id %q", ErrInvalidUID, id)
	}
	return UID{Namespace: namespace, ID: id}, nil
}

// ParseUID parses the NS:ID rendering produced by String.
func ParseUID(s string) (UID, error) {
	ns, id, ok := strings.Cut(s, Separator)
	if !ok {
		return UID{}, fmt.Errorf("%w: %q", ErrInvalidUID, s)
	}
	return MakeUID(ns, id)
}

func (u UID) String() string { return u.Namespace + Separator + u.ID }

// IsZero reports whether the UID is unset.
func (u UID) IsZero() bool { return u == UID{} }

// Factory hands out sequential IDs per namespace. Sessions use it so their
// UIDs are ordered and readable; entities use random UIDs instead.
type Factory struct {
	mu   sync.Mutex
	next map[string]uint64
}

func NewFactory() *Factory {
	return &Factory{next: make(map[string]uint64)}
}

// New mints the next UID in the namespace. The namespace must be valid.
func (f *Factory) New(namespace string) (UID, error) {
	f.mu.Lock()
	f.next[namespace]++
	n := f.next[namespace]
	f.mu.Unlock()
	return MakeUID(namespace, fmt.Sprintf("%08x", n))
}
