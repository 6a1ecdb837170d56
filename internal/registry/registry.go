package registry

import (
	"errors"
	"sync"
	"unicode/utf8"
)

const (
	// DefaultCapacity is the number of slots in a registry created with capacity <= 0.
	DefaultCapacity = 64

	// MaxNameLen is the maximum number of job name bytes that take part in
	// matching. Longer names are truncated, so names sharing this prefix
	// share an entry.
	MaxNameLen = 63
)

var (
	// ErrExhausted is returned when every slot is taken.
	ErrExhausted = errors.New("registry: no free slot for shared mapping")
	// ErrEmptyMapping is returned when a creation callback yields no memory.
	ErrEmptyMapping = errors.New("registry: cannot register an empty mapping")
)

// Entry is one occupied slot.
type Entry struct {
	Name string
	Data []byte
}

// Registry is a fixed-capacity, mutex-guarded directory of shared mappings.
type Registry struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates a registry with the given number of slots.
func New(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{entries: make([]Entry, capacity)}
}

// Key returns the deterministic, truncated form of name used for matching.
// Truncation never splits a UTF-8 sequence, so a key may be shorter than
// MaxNameLen bytes.
func Key(name string) string {
	if len(name) <= MaxNameLen {
		return name
	}
	n := MaxNameLen
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}

// GetOrCreate returns the mapping registered under name. If there is none,
// create is called with the registry lock held and its result is stored in
// the first free slot.
//
// created reports whether create ran and its mapping was registered. If
// create succeeds but no slot is free, undo is called with the new mapping
// and ErrExhausted is returned.
func (r *Registry) GetOrCreate(name string, create func() ([]byte, error), undo func([]byte)) (data []byte, created bool, err error) {
	key := Key(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if e := r.lookup(key); e != nil {
		return e.Data, false, nil
	}

	data, err = create()
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, ErrEmptyMapping
	}

	if !r.alloc(key, data) {
		if undo != nil {
			undo(data)
		}
		return nil, false, ErrExhausted
	}
	return data, true, nil
}

// Len returns the number of occupied slots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.entries {
		if r.entries[i].Data != nil {
			n++
		}
	}
	return n
}

// Cap returns the number of slots.
func (r *Registry) Cap() int {
	return len(r.entries)
}

// Entries returns a snapshot of the occupied slots in slot order.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Data != nil {
			out = append(out, e)
		}
	}
	return out
}

// lookup requires r.mu.
func (r *Registry) lookup(key string) *Entry {
	for i := range r.entries {
		if r.entries[i].Data != nil && r.entries[i].Name == key {
			return &r.entries[i]
		}
	}
	return nil
}

// alloc requires r.mu. First fit.
func (r *Registry) alloc(key string, data []byte) bool {
	for i := range r.entries {
		if r.entries[i].Data == nil {
			r.entries[i] = Entry{Name: key, Data: data}
			return true
		}
	}
	return false
}
