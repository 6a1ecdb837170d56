package fs

import "errors"

// ErrTrimUnsupported is returned when the platform cannot discard file ranges.
var ErrTrimUnsupported = errors.New("fs: trim not supported")

// Trimmer discards a byte range of a file.
type Trimmer interface {
	Trim(f File, offset, length int64) error
}

// DefaultTrimmer punches holes in regular files and discards ranges of
// block devices.
var DefaultTrimmer Trimmer = sysTrimmer{}

type sysTrimmer struct{}

func (sysTrimmer) Trim(f File, offset, length int64) error {
	if length <= 0 {
		return nil
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if IsBlockDevice(info) {
		return discard(f.Fd(), offset, length)
	}
	if !info.Mode().IsRegular() {
		return ErrNotRegular
	}
	return punchHole(f.Fd(), offset, length)
}
