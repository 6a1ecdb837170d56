package testutil

import (
	"errors"
	"sync"

	"github.com/hupe1980/mmapio/internal/mmap"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("testutil: injected failure")

// Mapper is an in-memory mmap.Mapper that records every call.
//
// Mappings of a descriptor registered with SetFile alias that descriptor's
// buffer, so data written through one mapping is visible through later ones.
// Other descriptors get fresh zeroed memory.
type Mapper struct {
	mu sync.Mutex

	files    map[int][]byte
	live     map[*byte]int
	requests []mmap.Request
	advice   []mmap.AccessPattern
	unmaps   int
	syncs    int
	synced   [][]byte

	// MapErr fails every Map call when set.
	MapErr error
	// MapErrAbove fails Map calls longer than this many bytes when positive.
	MapErrAbove int
	// AdviseErr fails Advise for the given patterns.
	AdviseErr map[mmap.AccessPattern]error
	// UnmapErr fails every Unmap call when set.
	UnmapErr error
	// SyncErr fails every Sync call when set.
	SyncErr error
}

// NewMapper creates an empty Mapper.
func NewMapper() *Mapper {
	return &Mapper{
		files:     make(map[int][]byte),
		live:      make(map[*byte]int),
		AdviseErr: make(map[mmap.AccessPattern]error),
	}
}

// SetFile registers the backing bytes of fd.
func (m *Mapper) SetFile(fd int, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[fd] = data
}

// File returns the backing bytes of fd.
func (m *Mapper) File(fd int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[fd]
}

// Map implements mmap.Mapper.
func (m *Mapper) Map(req mmap.Request) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if m.MapErr != nil {
		return nil, m.MapErr
	}
	if m.MapErrAbove > 0 && req.Length > m.MapErrAbove {
		return nil, ErrInjected
	}

	var data []byte
	if backing, ok := m.files[req.Fd]; ok {
		end := req.Offset + int64(req.Length)
		if end > int64(len(backing)) {
			return nil, ErrInjected
		}
		data = backing[req.Offset:end:end]
	} else {
		data = make([]byte, req.Length)
	}
	m.live[&data[0]]++
	return data, nil
}

// Unmap implements mmap.Mapper.
func (m *Mapper) Unmap(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unmaps++
	if m.UnmapErr != nil {
		return m.UnmapErr
	}
	if len(data) == 0 {
		return nil
	}
	key := &data[0]
	if m.live[key] <= 1 {
		delete(m.live, key)
	} else {
		m.live[key]--
	}
	return nil
}

// Advise implements mmap.Mapper.
func (m *Mapper) Advise(_ []byte, pattern mmap.AccessPattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advice = append(m.advice, pattern)
	return m.AdviseErr[pattern]
}

// Sync implements mmap.Mapper.
func (m *Mapper) Sync(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs++
	m.synced = append(m.synced, data)
	return m.SyncErr
}

// MapCalls returns the number of Map calls.
func (m *Mapper) MapCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// UnmapCalls returns the number of Unmap calls.
func (m *Mapper) UnmapCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unmaps
}

// SyncCalls returns the number of Sync calls.
func (m *Mapper) SyncCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncs
}

// Synced returns the regions passed to Sync, in order.
func (m *Mapper) Synced() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.synced...)
}

// Live returns the number of mappings not yet unmapped.
func (m *Mapper) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.live {
		n += c
	}
	return n
}

// Requests returns every Map request, in order.
func (m *Mapper) Requests() []mmap.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mmap.Request(nil), m.requests...)
}

// LastRequest returns the most recent Map request.
func (m *Mapper) LastRequest() mmap.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return mmap.Request{}
	}
	return m.requests[len(m.requests)-1]
}

// Advice returns every Advise pattern, in order.
func (m *Mapper) Advice() []mmap.AccessPattern {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mmap.AccessPattern(nil), m.advice...)
}
