package uniform

import (
	"errors"
	"fmt"
)

// ErrLayoutMismatch is the sentinel matched by every LayoutMismatchError.
var ErrLayoutMismatch = errors.New("layout mismatch")

// LayoutMismatchError reports a program whose binding groups do not follow the registry
// convention for the node that uses it. It is raised at graph construction and is fatal
// for that graph.
type LayoutMismatchError struct {
	// Node is the name of the offending node.
	Node string
	// Group is the binding group that failed validation, or -1 when the problem is not tied
	// to a single group (for example an unknown domain).
	Group int
	// Reason describes the mismatch.
	Reason string
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("uniform: layout mismatch in node %q at group %d: %s", e.Node, e.Group, e.Reason)
}

func (e *LayoutMismatchError) Unwrap() error {
	return ErrLayoutMismatch
}

func mismatch(node string, group int, format string, args ...any) error {
	return &LayoutMismatchError{Node: node, Group: group, Reason: fmt.Sprintf(format, args...)}
}
