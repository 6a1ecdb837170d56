//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package mmap

// Default is the platform Mapper.
var Default Mapper = unsupportedMapper{}

type unsupportedMapper struct{}

func (unsupportedMapper) Map(Request) ([]byte, error)        { return nil, ErrUnsupported }
func (unsupportedMapper) Unmap([]byte) error                 { return ErrUnsupported }
func (unsupportedMapper) Advise([]byte, AccessPattern) error { return ErrUnsupported }
func (unsupportedMapper) Sync([]byte) error                  { return ErrUnsupported }
