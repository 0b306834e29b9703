package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGraphCycle is the sentinel matched by every CycleError.
	ErrGraphCycle = errors.New("graph cycle")

	// ErrInvalidNode reports a structurally invalid node set: duplicate or empty names,
	// unknown programs, dangling references, a missing or duplicated master, or a
	// Previous() read on a node without a feedback output.
	ErrInvalidNode = errors.New("invalid node")
)

// CycleError reports a dependency cycle among non-feedback nodes. Cycle lists the nodes in
// producer to consumer order; the first node in turn reads the last.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	path := append(append([]string(nil), e.Cycle...), e.Cycle[0])
	return fmt.Sprintf("graph: cycle among non-feedback nodes: %s", strings.Join(path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrGraphCycle
}

func invalid(node string, format string, args ...any) error {
	return fmt.Errorf("graph: node %q: %s: %w", node, fmt.Sprintf(format, args...), ErrInvalidNode)
}
