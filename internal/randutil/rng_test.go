package randutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNG_Deterministic(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for range 10 {
		assert.Equal(t, a.Int63n(1000), b.Int63n(1000))
	}

	bufA, bufB := make([]byte, 16), make([]byte, 16)
	a.Fill(bufA)
	b.Fill(bufB)
	assert.Equal(t, bufA, bufB)
	assert.NotEqual(t, make([]byte, 16), bufA)
}

func TestRNG_Concurrent(t *testing.T) {
	r := NewRNG(1)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 64)
			for range 100 {
				n := r.Int63n(10)
				assert.True(t, n >= 0 && n < 10)
				r.Fill(buf)
			}
		}()
	}
	wg.Wait()
}
