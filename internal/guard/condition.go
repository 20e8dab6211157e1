package guard

import (
	"errors"
	"fmt"
	"reflect"
)

// Attributer exposes named attributes for precondition checks. A missing
// attribute reports ok=false and counts as a mismatch, never as an error.
type Attributer interface {
	Attribute(name string) (any, bool)
}

// PreconditionError reports a failed attribute precondition.
type PreconditionError struct {
	Attribute string
	Desired   any
	Actual    any
	msg       string
	kind      error
}

func (e *PreconditionError) Error() string { return e.msg }

// Unwrap exposes the dedicated error kind, if one was configured.
func (e *PreconditionError) Unwrap() error { return e.kind }

// CheckResult is the structured outcome of a pure precondition check. On
// failure it carries the first mismatched pair.
type CheckResult struct {
	OK        bool
	Attribute string
	Desired   any
	Actual    any
}

// Condition checks one or more receiver attributes against desired values.
// Immutable once constructed; pairs are checked in order and the first
// mismatch fails.
type Condition struct {
	attrs   []string
	desired []any
	message string
	kind    error
}

// NewCondition builds a Condition. The attribute and desired slices must have
// the same length; a mismatch is rejected outright rather than silently
// truncating the check.
func NewCondition(attrs []string, desired []any) (Condition, error) {
	if len(attrs) == 0 {
		return Condition{}, errors.New("guard: condition needs at least one attribute")
	}
	if len(attrs) != len(desired) {
		return Condition{}, fmt.Errorf("guard: %d attributes but %d desired values", len(attrs), len(desired))
	}
	return Condition{
		attrs:   append([]string(nil), attrs...),
		desired: append([]any(nil), desired...),
	}, nil
}

// RequireAttr builds a single-pair Condition.
func RequireAttr(name string, desired any) Condition {
	c, err := NewCondition([]string{name}, []any{desired})
	if err != nil {
		panic(err)
	}
	return c
}

// WithMessage overrides the default failure message prefix.
func (c Condition) WithMessage(msg string) Condition {
	c.message = msg
	return c
}

// WithKind attaches a dedicated error kind, matchable with errors.Is on the
// raised PreconditionError.
func (c Condition) WithKind(kind error) Condition {
	c.kind = kind
	return c
}

// Check evaluates the condition against a receiver. It is pure: no side
// effects, and the failure comes back as data rather than as an error.
func (c Condition) Check(recv any) CheckResult {
	for i, name := range c.attrs {
		actual, ok := attributeOf(recv, name)
		// A missing attribute never matches, whatever the desired value.
		if !ok || !reflect.DeepEqual(actual, c.desired[i]) {
			return CheckResult{Attribute: name, Desired: c.desired[i], Actual: actual}
		}
	}
	return CheckResult{OK: true}
}

// Guard translates a failed check into the configured error at the call
// boundary. A passing check has no side effect and lets the wrapped
// operation run.
func (c Condition) Guard() Wrapper {
	return Before(func(call *Call) error {
		res := c.Check(call.Receiver)
		if res.OK {
			return nil
		}
		prefix := c.message
		if prefix == "" {
			prefix = fmt.Sprintf("Attribute '%s' must be %v", res.Attribute, res.Desired)
		}
		return &PreconditionError{
			Attribute: res.Attribute,
			Desired:   res.Desired,
			Actual:    res.Actual,
			msg: fmt.Sprintf("%s when calling %s.%s on %s",
				prefix, TypeName(call.Receiver), call.Op, Describe(call.Receiver)),
			kind: c.kind,
		}
	})
}

func attributeOf(recv any, name string) (any, bool) {
	a, ok := recv.(Attributer)
	if !ok {
		return nil, false
	}
	return a.Attribute(name)
}

// TypeName returns the receiver's bare type name for diagnostics.
func TypeName(recv any) string {
	if recv == nil {
		return "<nil>"
	}
	t := reflect.TypeOf(recv)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// Describe renders the receiver for diagnostics without ever failing.
func Describe(recv any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = "<unprintable receiver>"
		}
	}()
	if s, ok := recv.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", recv)
}
