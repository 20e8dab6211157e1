package entity

import (
	"fmt"
	"maps"
	"sync"

	"github.com/ppiankov/revguard/internal/boundary"
	"github.com/ppiankov/revguard/internal/guard"
	"github.com/ppiankov/revguard/internal/lifecycle"
)

// Log holds every published revision of one entity, in version order. Shared
// by all revisions of the entity.
type Log struct {
	mu        sync.RWMutex
	revisions []*Entity
}

func (l *Log) append(e *Entity) {
	l.mu.Lock()
	l.revisions = append(l.revisions, e)
	l.mu.Unlock()
}

// Latest returns the newest revision, or nil for an empty log.
func (l *Log) Latest() *Entity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.revisions) == 0 {
		return nil
	}
	return l.revisions[len(l.revisions)-1]
}

// Version returns revision n (versions start at 1).
func (l *Log) Version(n int) (*Entity, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n < 1 || n > len(l.revisions) {
		return nil, false
	}
	return l.revisions[n-1], true
}

// Len is the number of published revisions.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.revisions)
}

// Entity is one revision of a record: a schema-agnostic field map frozen at
// publication. Updates publish a successor revision and mark this one
// superseded; the flags only ever go from false to true.
type Entity struct {
	uid     UID
	version int
	fields  map[string]any

	stale       bool
	superseded  bool
	superseding *Entity

	log *Log

	bnd    *boundary.Boundary
	caller boundary.Caller
}

// New publishes version 1 of a fresh entity in the given namespace.
func New(namespace string, fields map[string]any) (*Entity, error) {
	uid, err := NewUID(namespace)
	if err != nil {
		return nil, err
	}
	e := newRevision(uid, 1, maps.Clone(fields), &Log{})
	e.log.append(e)
	return e, nil
}

// Restore republishes a revision loaded from storage. The log starts at the
// restored revision; earlier versions stay in the store.
func Restore(uid UID, version int, fields map[string]any) *Entity {
	e := newRevision(uid, version, maps.Clone(fields), &Log{})
	e.log.append(e)
	return e
}

func newRevision(uid UID, version int, fields map[string]any, log *Log) *Entity {
	if fields == nil {
		fields = map[string]any{}
	}
	e := &Entity{uid: uid, version: version, fields: fields, log: log}
	e.bnd = boundary.New(e, boundary.Config{
		DecorateNonPublic: true,
		DecoratePublic:    true,
		Wrapper:           lifecycle.SupersededCheck(),
	})
	e.bnd.Register("markSuperseded", e.opMarkSuperseded)
	e.bnd.Register("markStale", e.opMarkStale)
	e.bnd.Register("Update", guard.Wrap(e.opUpdate, lifecycle.StaleCheck()))
	e.caller = e.bnd.Caller()
	return e
}

// Attribute exposes the lifecycle flags to precondition checks.
func (e *Entity) Attribute(name string) (any, bool) {
	switch name {
	case lifecycle.AttrStale:
		return e.stale, true
	case lifecycle.AttrSuperseded:
		return e.superseded, true
	}
	return nil, false
}

func (e *Entity) String() string { return fmt.Sprintf("%s@v%d", e.uid, e.version) }

func (e *Entity) UID() UID     { return e.uid }
func (e *Entity) Version() int { return e.version }

func (e *Entity) Stale() bool      { return e.stale }
func (e *Entity) Superseded() bool { return e.superseded }

// Superseding is the successor revision; nil while this revision is current.
func (e *Entity) Superseding() *Entity { return e.superseding }

// Log is the shared revision history of this entity.
func (e *Entity) Log() *Log { return e.log }

// Latest resolves the newest revision of this entity.
func (e *Entity) Latest() *Entity { return e.log.Latest() }

// Field reads one field of this revision.
func (e *Entity) Field(name string) (any, bool) {
	v, ok := e.fields[name]
	return v, ok
}

// Fields copies this revision's field map.
func (e *Entity) Fields() map[string]any { return maps.Clone(e.fields) }

// Update publishes a successor revision with the given changes applied. A nil
// change value deletes the field. Fails on superseded or stale revisions.
func (e *Entity) Update(changes map[string]any) (*Entity, error) {
	res, err := e.bnd.Exported().Call("Update", changes)
	if err != nil {
		return nil, err
	}
	return res.(*Entity), nil
}

func (e *Entity) opUpdate(c *guard.Call) (any, error) {
	changes, ok := c.Args[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("entity: update expects a field map, got %T", c.Args[0])
	}
	next := maps.Clone(e.fields)
	for k, v := range changes {
		if v == nil {
			delete(next, k)
		} else {
			next[k] = v
		}
	}
	succ := newRevision(e.uid, e.version+1, next, e.log)
	if _, err := e.caller.Call("markSuperseded", succ); err != nil {
		return nil, err
	}
	e.log.append(succ)
	return succ, nil
}

func (e *Entity) opMarkSuperseded(c *guard.Call) (any, error) {
	e.superseded = true
	e.superseding = c.Args[0].(*Entity)
	return nil, nil
}

func (e *Entity) opMarkStale(c *guard.Call) (any, error) {
	e.stale = true
	return nil, nil
}
