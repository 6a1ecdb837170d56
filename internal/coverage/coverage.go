// Package coverage records which pages of a file have been touched by I/O.
package coverage

import (
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/mmapio/internal/conv"
)

// Tracker is a page-granular set of touched file offsets.
// Offsets whose page index does not fit in 32 bits are not tracked.
type Tracker struct {
	mu       sync.Mutex
	pageSize int64
	pages    *roaring.Bitmap
}

// NewTracker creates a tracker with the given page size.
func NewTracker(pageSize int) *Tracker {
	if pageSize <= 0 {
		pageSize = 4096
	}
	return &Tracker{
		pageSize: int64(pageSize),
		pages:    roaring.New(),
	}
}

// Mark records the pages overlapping [offset, offset+length).
func (t *Tracker) Mark(offset, length int64) {
	if t == nil || length <= 0 || offset < 0 {
		return
	}
	first, err := conv.Int64ToUint32(offset / t.pageSize)
	if err != nil {
		return
	}
	end := offset + (length - 1)
	if end < offset {
		end = math.MaxInt64
	}
	last, err := conv.Int64ToUint32(end / t.pageSize)
	if err != nil {
		last = math.MaxUint32
	}

	t.mu.Lock()
	t.pages.AddRange(uint64(first), uint64(last)+1)
	t.mu.Unlock()
}

// Pages returns the number of distinct pages touched.
func (t *Tracker) Pages() uint64 {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pages.GetCardinality()
}

// Bytes returns the touched page count in bytes.
func (t *Tracker) Bytes() int64 {
	if t == nil {
		return 0
	}
	return int64(t.Pages()) * t.pageSize
}
