package resource

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfDeviceMemory is the sentinel matched by every OutOfDeviceMemoryError.
	ErrOutOfDeviceMemory = errors.New("out of device memory")

	// ErrUnknownHandle is returned for handles the table never issued or already released.
	ErrUnknownHandle = errors.New("unknown resource handle")

	// ErrNotFeedback is returned by Swap on a resource that is not double buffered.
	ErrNotFeedback = errors.New("resource is not a feedback resource")

	// ErrAlreadySwapped is returned by a second Swap of the same resource within one frame.
	ErrAlreadySwapped = errors.New("resource already swapped this frame")

	// ErrWrongKind is returned when a handle is used as a kind of resource it is not.
	ErrWrongKind = errors.New("wrong resource kind")
)

// OutOfDeviceMemoryError reports a failed allocation. It is surfaced to the caller without
// retry; the caller decides whether to free resources and try again.
type OutOfDeviceMemoryError struct {
	// Label is the label of the resource being allocated.
	Label string
	// Bytes is the approximate size of the failed allocation.
	Bytes uint64
	// Err is the backend error.
	Err error
}

func (e *OutOfDeviceMemoryError) Error() string {
	return fmt.Sprintf("resource: out of device memory allocating %q (%d bytes): %v", e.Label, e.Bytes, e.Err)
}

func (e *OutOfDeviceMemoryError) Unwrap() []error {
	return []error{ErrOutOfDeviceMemory, e.Err}
}
