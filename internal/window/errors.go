package window

import (
	"errors"
	"fmt"
)

var (
	// ErrMapFailed is returned when the mapping syscall (or unmapping) fails.
	ErrMapFailed = errors.New("mapping failed")
	// ErrAdviseFailed is returned when a required hint could not be applied.
	ErrAdviseFailed = errors.New("madvise failed")
	// ErrRegistryExhausted is returned when sharing is enabled and the registry is full.
	ErrRegistryExhausted = errors.New("shared mapping registry exhausted")
	// ErrRequestTooLarge is returned when a single request does not fit the window.
	ErrRequestTooLarge = errors.New("request larger than mapping window")
	// ErrSharedWindow is returned when a shared file would need a window or a remap.
	ErrSharedWindow = errors.New("shared mapping cannot be windowed or remapped")
	// ErrSharedSizeMismatch is returned when a reused shared mapping is too short.
	ErrSharedSizeMismatch = errors.New("shared mapping smaller than requested")
	// ErrOutOfRange is returned when a request lies outside the file's I/O range.
	ErrOutOfRange = errors.New("request outside file")
)

// Error describes a failed window operation.
//
// Kind is one of the sentinel errors above; Err is the underlying cause,
// typically a syscall errno.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("window: %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("window: %s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}
