package mmap

import "fmt"

// Hints is the access-pattern intent applied to a freshly created mapping.
type Hints struct {
	// HugePages requests transparent huge pages. Failures are ignored.
	HugePages bool
	// Fadvise enables the sequential/random access hint.
	Fadvise bool
	// Random selects the random access hint instead of sequential.
	Random bool
	// BlockDevice issues a best-effort lazy free hint after the drop hint.
	BlockDevice bool
}

// AdviseError reports a failed required hint.
type AdviseError struct {
	Pattern AccessPattern
	Err     error
}

func (e *AdviseError) Error() string {
	return fmt.Sprintf("mmap: madvise %s: %v", e.Pattern, e.Err)
}

func (e *AdviseError) Unwrap() error { return e.Err }

// ApplyHints applies the post-mapping advice to data.
//
// The huge page and block device hints are advisory only. The access pattern
// hint and the "don't need yet" hint are required; their failure is returned
// as an *AdviseError. Applying hints twice to the same region is harmless.
func ApplyHints(m Mapper, data []byte, h Hints) error {
	if len(data) == 0 {
		return nil
	}

	if h.HugePages {
		_ = m.Advise(data, AccessHugePage)
	}

	if h.Fadvise {
		pattern := AccessSequential
		if h.Random {
			pattern = AccessRandom
		}
		if err := m.Advise(data, pattern); err != nil {
			return &AdviseError{Pattern: pattern, Err: err}
		}
	}

	if err := m.Advise(data, AccessDontNeed); err != nil {
		return &AdviseError{Pattern: AccessDontNeed, Err: err}
	}

	if h.BlockDevice {
		_ = m.Advise(data, AccessFree)
	}
	return nil
}
