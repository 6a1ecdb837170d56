package mmap

import (
	"errors"
	"os"
)

// Prot is the memory protection requested for a mapping.
type Prot int

const (
	// ProtRead allows the mapping to be read.
	ProtRead Prot = 0x1
	// ProtWrite allows the mapping to be written.
	ProtWrite Prot = 0x2
	// ProtReplicate asks the kernel to replicate the mapped pages across NUMA nodes.
	ProtReplicate Prot = 0x8000000
)

// MapType selects whether stores are visible to other mappings of the file.
type MapType int

const (
	// Shared mappings write through to the file.
	Shared MapType = iota
	// Private mappings are copy-on-write.
	Private
)

func (t MapType) String() string {
	if t == Private {
		return "private"
	}
	return "shared"
}

// AccessPattern provides hints to the kernel about how the data will be accessed.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessSequential expects data to be accessed sequentially.
	AccessSequential
	// AccessRandom expects data to be accessed randomly.
	AccessRandom
	// AccessWillNeed expects data to be accessed in the near future.
	AccessWillNeed
	// AccessDontNeed expects data to not be accessed in the near future.
	AccessDontNeed
	// AccessHugePage asks for transparent huge pages.
	AccessHugePage
	// AccessFree lets the kernel reclaim the pages lazily.
	AccessFree
)

func (p AccessPattern) String() string {
	switch p {
	case AccessSequential:
		return "sequential"
	case AccessRandom:
		return "random"
	case AccessWillNeed:
		return "willneed"
	case AccessDontNeed:
		return "dontneed"
	case AccessHugePage:
		return "hugepage"
	case AccessFree:
		return "free"
	default:
		return "normal"
	}
}

// Request describes a single mapping call.
type Request struct {
	Fd     int
	Offset int64
	Length int
	Prot   Prot
	Type   MapType
}

// Mapper performs mapping syscalls.
type Mapper interface {
	// Map creates a new mapping.
	Map(req Request) ([]byte, error)
	// Unmap releases a mapping returned by Map.
	Unmap(data []byte) error
	// Advise passes an access hint for data to the kernel.
	Advise(data []byte, pattern AccessPattern) error
	// Sync flushes data to the backing file and waits for completion.
	Sync(data []byte) error
}

var (
	// ErrUnsupported is returned on platforms without mmap support.
	ErrUnsupported = errors.New("mmap: not supported on this platform")
	// ErrInvalidLength is returned when a mapping of zero or negative length is requested.
	ErrInvalidLength = errors.New("mmap: invalid mapping length")
	// ErrInvalidOffset is returned when the offset is invalid (e.g. negative).
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)

// PageSize returns the system page size.
func PageSize() int {
	return os.Getpagesize()
}

// AlignDown rounds off down to a multiple of the page size.
func AlignDown(off int64) int64 {
	ps := int64(PageSize())
	return off - off%ps
}

// Validate checks the request for obviously invalid arguments before any syscall.
func (r Request) Validate() error {
	if r.Length <= 0 {
		return ErrInvalidLength
	}
	if r.Offset < 0 {
		return ErrInvalidOffset
	}
	return nil
}
