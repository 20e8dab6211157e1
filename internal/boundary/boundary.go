// Package boundary separates a type's internal operation surface from the one
// exposed to outside callers. Operations register once with a visibility;
// external calls to non-public operations are rejected before any attached
// guard runs, while internal calls only answer to the guards themselves.
package boundary

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/revguard/internal/guard"
)

// enabled is the process-wide guard switch. Off means no boundary ever
// rejects or decorates, regardless of per-boundary config.
var enabled atomic.Bool

// decoratePublic and decorateNonPublic are the process-wide decoration
// flags. They gate the composed wrapper per visibility; boundary rejection
// of external calls is not decoration and still applies.
var (
	decoratePublic    atomic.Bool
	decorateNonPublic atomic.Bool
)

func init() {
	enabled.Store(true)
	decoratePublic.Store(true)
	decorateNonPublic.Store(true)
}

// SetEnabled flips the process-wide guard switch.
func SetEnabled(v bool) { enabled.Store(v) }

// Enabled reports the process-wide guard switch.
func Enabled() bool { return enabled.Load() }

// SetDecoration flips the process-wide decoration flags.
func SetDecoration(public, nonPublic bool) {
	decoratePublic.Store(public)
	decorateNonPublic.Store(nonPublic)
}

// Decoration reports the process-wide decoration flags.
func Decoration() (public, nonPublic bool) {
	return decoratePublic.Load(), decorateNonPublic.Load()
}

// ErrBoundary marks an external call to a non-public operation.
var ErrBoundary = errors.New("boundary violation")

// ErrUnknownOp marks a call to an operation that was never registered.
var ErrUnknownOp = errors.New("unknown operation")

// Visibility classifies an operation on its boundary.
type Visibility int

const (
	// Public operations are callable from outside.
	Public Visibility = iota
	// NonPublic operations are reserved for the receiver's own logic.
	NonPublic
)

// Config fixes the guarding policy at boundary construction time.
type Config struct {
	// DecorateNonPublic applies Wrapper to non-public operations.
	DecorateNonPublic bool

	// DecoratePublic applies Wrapper to public operations as well.
	DecoratePublic bool

	// Wrapper is the composed custom guard (precondition checks and the
	// like). May be nil.
	Wrapper guard.Wrapper

	// Disabled turns off rejection and decoration entirely. Debugging
	// escape hatch mirroring a global guard switch.
	Disabled bool
}

// DefaultConfig decorates non-public operations only.
func DefaultConfig() Config { return Config{DecorateNonPublic: true} }

type op struct {
	vis  Visibility
	body guard.Op
	run  guard.Op
}

// Boundary holds the guarded operation set of one receiver instance. Register
// all operations during construction of the receiver; the set and the guard
// order are fixed afterwards.
type Boundary struct {
	recv any
	cfg  Config
	ops  map[string]op
}

// New creates a Boundary for the given receiver.
func New(recv any, cfg Config) *Boundary {
	return &Boundary{recv: recv, cfg: cfg, ops: make(map[string]op)}
}

// Classify derives visibility from an operation name: an initial lower-case
// rune marks it non-public, mirroring Go's export rule.
func Classify(name string) Visibility {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return Public
	}
	return NonPublic
}

// Register adds an operation, classifying visibility from its name.
func (b *Boundary) Register(name string, body guard.Op) {
	b.RegisterAs(name, Classify(name), body)
}

// RegisterAs adds an operation with explicit visibility. The guard pipeline
// attaches here, once, so its order holds for the boundary's lifetime;
// whether it runs is decided per call from the boundary's config and the
// process-wide decoration flags.
func (b *Boundary) RegisterAs(name string, vis Visibility, body guard.Op) {
	run := body
	if b.cfg.Wrapper != nil {
		run = guard.Wrap(body, b.cfg.Wrapper)
	}
	b.ops[name] = op{vis: vis, body: body, run: run}
}

// decorates reports whether the guard pipeline applies to an operation of
// the given visibility on this boundary.
func (b *Boundary) decorates(vis Visibility) bool {
	if b.cfg.Wrapper == nil {
		return false
	}
	if vis == NonPublic {
		return b.cfg.DecorateNonPublic && decorateNonPublic.Load()
	}
	return b.cfg.DecoratePublic && decoratePublic.Load()
}

// ViolationError reports a rejected external call.
type ViolationError struct {
	Receiver string
	Op       string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("boundary: external call to non-public operation %s.%s", e.Receiver, e.Op)
}

func (e *ViolationError) Unwrap() error { return ErrBoundary }

// Caller is a capability to invoke operations across a boundary. The internal
// capability must stay inside the owning type; handing it out defeats the
// boundary.
type Caller struct {
	b        *Boundary
	internal bool
}

// Caller returns the internal capability: every operation is reachable and
// calls classify as internal.
func (b *Boundary) Caller() Caller { return Caller{b: b, internal: true} }

// Exported returns the external capability: calls classify as external, and
// non-public operations are rejected outright.
func (b *Boundary) Exported() Caller { return Caller{b: b} }

// Call invokes a registered operation. External calls to non-public
// operations fail with ErrBoundary before any attached guard runs; permitted
// calls run the guard pipeline exactly once, then the body.
func (c Caller) Call(name string, args ...any) (any, error) {
	o, ok := c.b.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOp, guard.TypeName(c.b.recv), name)
	}
	call := &guard.Call{
		Receiver: c.b.recv,
		Op:       name,
		Internal: c.internal,
		Args:     args,
	}
	if c.b.cfg.Disabled || !Enabled() {
		return o.body(call)
	}
	if !c.internal && o.vis == NonPublic {
		return nil, &ViolationError{Receiver: guard.TypeName(c.b.recv), Op: name}
	}
	if c.b.decorates(o.vis) {
		return o.run(call)
	}
	return o.body(call)
}
