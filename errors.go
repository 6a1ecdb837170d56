package mmapio

import (
	"errors"
	"fmt"

	"github.com/hupe1980/mmapio/internal/window"
)

var (
	// ErrReadOnly is returned when a job that does not write issues a write or trim.
	ErrReadOnly = errors.New("mmapio: write to a read-only job")

	// ErrBlockSizeAlignment is returned when direct emulation or block-count
	// syncs are combined with a minimum block size that is not page aligned.
	ErrBlockSizeAlignment = errors.New("mmapio: minimum block size must be a multiple of the page size")

	// ErrOutOfRange is returned when a request lies outside the file's I/O range.
	ErrOutOfRange = errors.New("mmapio: request outside file")

	// ErrFileFailed is returned for requests against a file that hit a fatal error.
	ErrFileFailed = errors.New("mmapio: file failed")

	// ErrUnknownOp is returned for an unsupported request operation.
	ErrUnknownOp = errors.New("mmapio: unknown operation")
)

// Kind classifies a MappingError.
type Kind int

const (
	// KindMapFailed is a failed map or unmap call.
	KindMapFailed Kind = iota + 1
	// KindAdviseFailed is a failed required access hint on a new mapping.
	KindAdviseFailed
	// KindRegistryExhausted means every shared mapping slot is taken.
	KindRegistryExhausted
	// KindRequestTooLarge means a request cannot fit a window.
	KindRequestTooLarge
	// KindSharedWindow means a shared mapping would need a window or a remap.
	KindSharedWindow
	// KindSyncFailed is a failed flush of mapped bytes.
	KindSyncFailed
	// KindAdviseDropFailed is a failed "don't need" hint after direct I/O.
	KindAdviseDropFailed
	// KindTrimFailed is a failed trim.
	KindTrimFailed
)

func (k Kind) String() string {
	switch k {
	case KindMapFailed:
		return "map failed"
	case KindAdviseFailed:
		return "advise failed"
	case KindRegistryExhausted:
		return "registry exhausted"
	case KindRequestTooLarge:
		return "request too large"
	case KindSharedWindow:
		return "shared window"
	case KindSyncFailed:
		return "sync failed"
	case KindAdviseDropFailed:
		return "advise drop failed"
	case KindTrimFailed:
		return "trim failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Fatal reports whether errors of this kind stop further I/O on the file
// and fail the job. Sync, drop and trim failures are recorded on the
// request only.
func (k Kind) Fatal() bool {
	switch k {
	case KindSyncFailed, KindAdviseDropFailed, KindTrimFailed:
		return false
	default:
		return true
	}
}

// MappingError is the error type of every mapped-I/O failure.
//
// The original underlying error (typically a syscall errno) can be accessed
// via errors.Unwrap.
type MappingError struct {
	Kind Kind
	Op   string
	File string
	Err  error
}

func (e *MappingError) Error() string {
	s := "mmapio: " + e.Op
	if e.File != "" {
		s += " " + e.File
	}
	s += ": " + e.Kind.String()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *MappingError) Unwrap() error { return e.Err }

// Is matches a target MappingError by kind.
func (e *MappingError) Is(target error) bool {
	t, ok := target.(*MappingError)
	return ok && t.Op == "" && t.File == "" && t.Err == nil && t.Kind == e.Kind
}

// IsKind reports whether err, or any error joined into it, is a
// MappingError of kind k.
func IsKind(err error, k Kind) bool {
	return errors.Is(err, &MappingError{Kind: k})
}

// IsFatal reports whether err stops further I/O on the file.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var me *MappingError
	if errors.As(err, &me) {
		return me.Kind.Fatal()
	}
	return !errors.Is(err, ErrReadOnly)
}

func translateError(file string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, window.ErrOutOfRange) {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}

	var we *window.Error
	if !errors.As(err, &we) {
		return err
	}

	kind := KindMapFailed
	switch {
	case errors.Is(err, window.ErrRegistryExhausted):
		kind = KindRegistryExhausted
	case errors.Is(err, window.ErrRequestTooLarge):
		kind = KindRequestTooLarge
	case errors.Is(err, window.ErrSharedWindow):
		kind = KindSharedWindow
	case errors.Is(err, window.ErrAdviseFailed):
		kind = KindAdviseFailed
	}
	return &MappingError{Kind: kind, Op: we.Op, File: file, Err: err}
}
