//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package mmap

import (
	"golang.org/x/sys/unix"
)

// Default is the platform Mapper.
var Default Mapper = sysMapper{}

type sysMapper struct{}

func (sysMapper) Map(req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prot := unix.PROT_NONE
	if req.Prot&ProtRead != 0 {
		prot |= unix.PROT_READ
	}
	if req.Prot&ProtWrite != 0 {
		prot |= unix.PROT_WRITE
	}
	// Passed through as is; see ProtReplicate.
	if req.Prot&ProtReplicate != 0 {
		prot |= int(ProtReplicate)
	}

	flags := unix.MAP_SHARED
	if req.Type == Private {
		flags = unix.MAP_PRIVATE
	}

	return unix.Mmap(req.Fd, req.Offset, req.Length, prot, flags)
}

func (sysMapper) Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Munmap(data)
}

func (sysMapper) Advise(data []byte, pattern AccessPattern) error {
	if len(data) == 0 {
		return nil
	}
	advice, ok := adviceFor(pattern)
	if !ok {
		return ErrUnsupported
	}
	return unix.Madvise(data, advice)
}

func (sysMapper) Sync(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Msync(data, unix.MS_SYNC)
}
