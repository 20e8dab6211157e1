package entity

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ppiankov/revguard/internal/boundary"
	"github.com/ppiankov/revguard/internal/guard"
	"github.com/ppiankov/revguard/internal/journal"
	"github.com/ppiankov/revguard/internal/lifecycle"
)

// ErrUnknownField reports a read of a field neither present on the revision
// nor staged in the journal.
var ErrUnknownField = errors.New("entity: unknown field")

// FieldEdit is one staged write, flattened for persistence and audit. Key is
// set for mapping edits, Index for sequence edits, neither for scalars.
// Indexed marks sequence edits so an index of zero stays distinguishable
// from a scalar edit.
type FieldEdit struct {
	Field   string       `json:"field"`
	Kind    journal.Kind `json:"kind"`
	Key     string       `json:"key,omitempty"`
	Index   int          `json:"index,omitempty"`
	Indexed bool         `json:"indexed,omitempty"`
	Value   any          `json:"value,omitempty"`
}

// Journal stages edits against one entity revision. Scalar fields stage their
// latest value; mapping and sequence fields are wrapped in copy-on-write
// collections that keep the full write history. Commit publishes a successor
// revision, or hands back the same revision when nothing was edited.
//
// A journal serves exactly one revision: once that revision is superseded, or
// the journal has ended, every operation fails with the superseded kind.
type Journal struct {
	entity *Entity

	scalars map[string]any // nil value stages a delete
	maps    map[string]*journal.Map[string, any]
	lists   map[string]*journal.List[any]
	touched []string
	ended   bool

	bnd    *boundary.Boundary
	caller boundary.Caller
}

// NewJournal opens a journal over the given revision.
func NewJournal(e *Entity) *Journal {
	j := &Journal{
		entity:  e,
		scalars: map[string]any{},
		maps:    map[string]*journal.Map[string, any]{},
		lists:   map[string]*journal.List[any]{},
	}
	j.bnd = boundary.New(j, boundary.Config{
		DecorateNonPublic: true,
		DecoratePublic:    true,
		Wrapper:           lifecycle.SupersededCheck(),
	})
	j.bnd.Register("Set", j.opSet)
	j.bnd.Register("Get", j.opGet)
	j.bnd.Register("Commit", j.opCommit)
	j.bnd.Register("end", j.opEnd)
	j.caller = j.bnd.Caller()
	return j
}

// Attribute exposes the journal's lifecycle to precondition checks. The
// journal counts as superseded once it has ended or its revision has been
// superseded underneath it.
func (j *Journal) Attribute(name string) (any, bool) {
	switch name {
	case lifecycle.AttrSuperseded:
		return j.ended || j.entity.Superseded(), true
	case "ended":
		return j.ended, true
	}
	return nil, false
}

func (j *Journal) String() string { return "journal(" + j.entity.String() + ")" }

// Entity is the revision this journal stages edits for.
func (j *Journal) Entity() *Entity { return j.entity }

// Ended reports whether the journal has been closed by commit or abort.
func (j *Journal) Ended() bool { return j.ended }

// Dirty reports whether any edit is staged.
func (j *Journal) Dirty() bool {
	if len(j.scalars) > 0 {
		return true
	}
	for _, m := range j.maps {
		if m.Edited() {
			return true
		}
	}
	for _, l := range j.lists {
		if l.Edited() {
			return true
		}
	}
	return false
}

// Set stages a scalar write. A nil value stages a delete. Staging the value
// the revision already holds reverts the field to clean.
func (j *Journal) Set(field string, value any) error {
	_, err := j.bnd.Exported().Call("Set", field, value)
	return err
}

// Get reads a field through the journal: staged values win over the
// revision's, and mapping or sequence fields come back as copy-on-write
// collections whose edits the journal tracks.
func (j *Journal) Get(field string) (any, error) {
	return j.bnd.Exported().Call("Get", field)
}

// Commit publishes the staged edits as a successor revision and ends the
// journal. A clean journal returns the current revision unchanged.
func (j *Journal) Commit() (*Entity, error) {
	res, err := j.bnd.Exported().Call("Commit")
	if err != nil {
		return nil, err
	}
	return res.(*Entity), nil
}

func (j *Journal) opSet(c *guard.Call) (any, error) {
	field := c.Args[0].(string)
	value := c.Args[1]
	if _, ok := j.maps[field]; ok {
		return nil, fmt.Errorf("entity: field %q is staged as a mapping", field)
	}
	if _, ok := j.lists[field]; ok {
		return nil, fmt.Errorf("entity: field %q is staged as a sequence", field)
	}
	cur, exists := j.entity.Field(field)
	if (exists && reflect.DeepEqual(cur, value)) || (!exists && value == nil) {
		delete(j.scalars, field)
		return nil, nil
	}
	j.scalars[field] = value
	j.touch(field)
	return nil, nil
}

func (j *Journal) opGet(c *guard.Call) (any, error) {
	field := c.Args[0].(string)
	if m, ok := j.maps[field]; ok {
		return m, nil
	}
	if l, ok := j.lists[field]; ok {
		return l, nil
	}
	if v, ok := j.scalars[field]; ok {
		if v == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		return v, nil
	}
	v, ok := j.entity.Field(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	switch t := v.(type) {
	case map[string]any:
		m := journal.NewMap(t)
		j.maps[field] = m
		j.touch(field)
		return m, nil
	case []any:
		l := journal.NewList(t)
		j.lists[field] = l
		j.touch(field)
		return l, nil
	}
	return v, nil
}

func (j *Journal) opCommit(c *guard.Call) (any, error) {
	if !j.Dirty() {
		if _, err := j.caller.Call("end"); err != nil {
			return nil, err
		}
		return j.entity, nil
	}
	changes := map[string]any{}
	for f, v := range j.scalars {
		changes[f] = v
	}
	for f, m := range j.maps {
		if m.Edited() {
			changes[f] = m.Snapshot()
		}
	}
	for f, l := range j.lists {
		if l.Edited() {
			changes[f] = l.Snapshot()
		}
	}
	succ, err := j.entity.caller.Call("Update", changes)
	if err != nil {
		return nil, err
	}
	// The revision is superseded now, so the guarded end op would refuse.
	j.ended = true
	return succ, nil
}

// abort closes the journal without publishing, discarding staged edits.
func (j *Journal) abort() error {
	_, err := j.caller.Call("end")
	return err
}

func (j *Journal) opEnd(c *guard.Call) (any, error) {
	j.ended = true
	return nil, nil
}

func (j *Journal) touch(field string) {
	for _, f := range j.touched {
		if f == field {
			return
		}
	}
	j.touched = append(j.touched, field)
}

// Edits flattens the staged writes in field touch order. Scalar fields
// contribute their latest staged value only; collection fields contribute
// their full journalled history in write order.
func (j *Journal) Edits() []FieldEdit {
	var out []FieldEdit
	for _, f := range j.touched {
		if m, ok := j.maps[f]; ok {
			for _, e := range m.Journal() {
				out = append(out, FieldEdit{Field: f, Kind: e.Kind, Key: e.Key, Value: e.Value})
			}
			continue
		}
		if l, ok := j.lists[f]; ok {
			for _, e := range l.Journal() {
				out = append(out, FieldEdit{Field: f, Kind: e.Kind, Index: e.Index, Indexed: true, Value: e.Value})
			}
			continue
		}
		v, ok := j.scalars[f]
		if !ok {
			continue
		}
		if v == nil {
			out = append(out, FieldEdit{Field: f, Kind: journal.KindDelete})
		} else {
			out = append(out, FieldEdit{Field: f, Kind: journal.KindSet, Value: v})
		}
	}
	return out
}
