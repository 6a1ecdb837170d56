package fs

import (
	"errors"
	"io"
	"os"
)

// ErrNotRegular is returned when a file is neither a regular file nor a block device.
var ErrNotRegular = errors.New("fs: not a regular file or block device")

// File represents an open file.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Seeker
	io.Closer
	Fd() uintptr
	Name() string
	Sync() error
	Stat() (os.FileInfo, error)
}

// FileSystem abstracts file system operations for testability.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Stat(name string) (os.FileInfo, error)
	Truncate(name string, size int64) error
	Remove(name string) error
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Stat(name string) (os.FileInfo, error)  { return os.Stat(name) }
func (LocalFS) Truncate(name string, size int64) error { return os.Truncate(name, size) }
func (LocalFS) Remove(name string) error               { return os.Remove(name) }

// Default is the default local file system.
var Default FileSystem = LocalFS{}

// IsBlockDevice reports whether info describes a block device.
func IsBlockDevice(info os.FileInfo) bool {
	m := info.Mode()
	return m&os.ModeDevice != 0 && m&os.ModeCharDevice == 0
}

// Size returns the size of a regular file or block device in bytes.
//
// Block devices report a zero size in stat, so their size is taken from the
// end offset instead.
func Size(f File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	switch {
	case info.Mode().IsRegular():
		return info.Size(), nil
	case IsBlockDevice(info):
		size, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		return size, nil
	default:
		return 0, ErrNotRegular
	}
}
