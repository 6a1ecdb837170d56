//go:build !linux

package fs

func punchHole(uintptr, int64, int64) error { return ErrTrimUnsupported }

func discard(uintptr, int64, int64) error { return ErrTrimUnsupported }
