package renderer

import (
	"errors"
	"fmt"
)

var (
	// ErrFramePassFailed is the sentinel matched by every FramePassFailedError.
	ErrFramePassFailed = errors.New("frame pass failed")

	// ErrNotBuilt is returned by RenderFrame and Rebuild before a graph has been built.
	ErrNotBuilt = errors.New("renderer: no graph built")

	// ErrNoSoftwareFragment is returned by the software backend for programs without a CPU
	// rendition of their fragment stage.
	ErrNoSoftwareFragment = errors.New("program has no software fragment")

	// ErrTooManyInstances is returned when a node frame carries more per-instance blocks than
	// material.MaxInstances.
	ErrTooManyInstances = errors.New("too many instances")
)

// FramePassFailedError reports the pass that aborted a frame. The remaining passes of that
// frame were skipped, nothing was submitted and feedback swaps were reverted, so the next
// frame reads the last completed state.
type FramePassFailedError struct {
	// Node is the name of the failing node.
	Node string
	// Err is the cause.
	Err error
}

func (e *FramePassFailedError) Error() string {
	return fmt.Sprintf("renderer: pass %q failed: %v", e.Node, e.Err)
}

func (e *FramePassFailedError) Unwrap() []error {
	return []error{ErrFramePassFailed, e.Err}
}
