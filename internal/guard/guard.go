// Package guard provides call interception primitives: operations bound to a
// receiver and wrapped by an ordered pipeline of guards that can deny, alter,
// or observe each invocation.
package guard

// Call describes one invocation of a guarded operation. It is built fresh for
// every call and never retained afterwards.
type Call struct {
	// Receiver is the object the operation is bound to.
	Receiver any

	// Op is the operation name, used in diagnostics.
	Op string

	// Internal reports whether the call originated from the receiver's own
	// logic rather than from an outside caller.
	Internal bool

	// Args are the invocation arguments. They pass through unchanged unless
	// a full wrapper rewrites them.
	Args []any
}

// Op is an operation body bound to a receiver.
type Op func(c *Call) (any, error)

// Wrapper is a full guard. It receives the next stage of the pipeline and
// decides whether and how to invoke it: it may transform arguments, skip the
// body, or post-process the result.
type Wrapper func(next Op, c *Call) (any, error)

// BeforeFunc is a side-effect guard. It runs ahead of the operation and
// aborts the call by returning an error; it cannot alter arguments or result.
type BeforeFunc func(c *Call) error

// Before adapts a side-effect guard into a Wrapper that invokes the wrapped
// operation with unchanged arguments when the check passes.
func Before(f BeforeFunc) Wrapper {
	return func(next Op, c *Call) (any, error) {
		if err := f(c); err != nil {
			return nil, err
		}
		return next(c)
	}
}

// Wrap attaches wrappers to an operation. The order is fixed at wrap time:
// the first wrapper runs outermost on every invocation, and each wrapper runs
// at most once per call.
func Wrap(op Op, wrappers ...Wrapper) Op {
	if len(wrappers) == 0 {
		return op
	}
	ws := make([]Wrapper, len(wrappers))
	copy(ws, wrappers)
	return func(c *Call) (any, error) {
		return run(ws, op, c)
	}
}

// Chain merges wrappers into a single Wrapper, preserving their order.
func Chain(wrappers ...Wrapper) Wrapper {
	ws := make([]Wrapper, len(wrappers))
	copy(ws, wrappers)
	return func(next Op, c *Call) (any, error) {
		return run(ws, next, c)
	}
}

// run executes the pipeline sequentially; ws[0] is the outermost stage.
func run(ws []Wrapper, op Op, c *Call) (any, error) {
	if len(ws) == 0 {
		return op(c)
	}
	next := func(c *Call) (any, error) {
		return run(ws[1:], op, c)
	}
	return ws[0](next, c)
}
