//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package mmap

import "golang.org/x/sys/unix"

// Huge page and lazy free advice are Linux only.
func adviceFor(pattern AccessPattern) (int, bool) {
	switch pattern {
	case AccessSequential:
		return unix.MADV_SEQUENTIAL, true
	case AccessRandom:
		return unix.MADV_RANDOM, true
	case AccessWillNeed:
		return unix.MADV_WILLNEED, true
	case AccessDontNeed:
		return unix.MADV_DONTNEED, true
	case AccessHugePage, AccessFree:
		return 0, false
	default:
		return unix.MADV_NORMAL, true
	}
}
