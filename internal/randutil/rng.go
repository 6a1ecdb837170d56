// Package randutil provides a seeded, thread-safe random source for offsets
// and write payloads.
package randutil

import (
	"math/rand"
	"sync"
)

// RNG wraps a seeded math/rand source. It is safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewRNG creates an RNG with the given seed.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed))}
}

// Int63n returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Fill fills dst with random bytes.
// Locks only once per call (preferred over calling Int63n in a loop).
func (r *RNG) Fill(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.rand.Read(dst)
}
