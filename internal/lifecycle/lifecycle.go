// Package lifecycle provides the revision lifecycle predicates. A revision
// that has been replaced is superseded; one whose derived data is out of date
// is stale. The predicates only read those flags, they never set them.
package lifecycle

import (
	"errors"

	"github.com/ppiankov/revguard/internal/guard"
)

// Attribute names read by the lifecycle predicates.
const (
	AttrStale      = "stale"
	AttrSuperseded = "superseded"
)

// ErrSuperseded marks an operation attempted on a superseded revision.
// Callers match it to switch to the latest revision instead of failing.
var ErrSuperseded = errors.New("superseded")

// StaleCondition requires the receiver's stale flag to be false.
func StaleCondition() guard.Condition {
	return guard.RequireAttr(AttrStale, false)
}

// SupersededCondition requires the receiver's superseded flag to be false,
// raising the dedicated superseded kind when violated.
func SupersededCondition() guard.Condition {
	return guard.RequireAttr(AttrSuperseded, false).
		WithMessage("superseded check failed").
		WithKind(ErrSuperseded)
}

// StaleCheck guards methods that must not run on a stale revision.
func StaleCheck() guard.Wrapper { return StaleCondition().Guard() }

// SupersededCheck guards methods that must not run on a superseded revision.
func SupersededCheck() guard.Wrapper { return SupersededCondition().Guard() }
