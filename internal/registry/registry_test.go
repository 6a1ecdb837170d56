package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creator(calls *atomic.Int64, size int) func() ([]byte, error) {
	return func() ([]byte, error) {
		calls.Add(1)
		return make([]byte, size), nil
	}
}

func TestRegistry_GetOrCreateReuses(t *testing.T) {
	r := New(4)
	var calls atomic.Int64

	a, created, err := r.GetOrCreate("job", creator(&calls, 8), nil)
	require.NoError(t, err)
	assert.True(t, created)

	b, created, err := r.GetOrCreate("job", creator(&calls, 8), nil)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Same(t, &a[0], &b[0])
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, r.Len())

	c, created, err := r.GetOrCreate("other", creator(&calls, 8), nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotSame(t, &a[0], &c[0])
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Exhausted(t *testing.T) {
	r := New(0)
	require.Equal(t, DefaultCapacity, r.Cap())

	var calls atomic.Int64
	for i := 0; i < DefaultCapacity; i++ {
		_, created, err := r.GetOrCreate(fmt.Sprintf("job-%d", i), creator(&calls, 1), nil)
		require.NoError(t, err)
		require.True(t, created)
	}

	var undone []byte
	_, _, err := r.GetOrCreate("job-64", creator(&calls, 1), func(b []byte) { undone = b })
	assert.ErrorIs(t, err, ErrExhausted)
	assert.NotNil(t, undone)
	assert.Equal(t, DefaultCapacity, r.Len())

	// Existing names still resolve when full.
	_, created, err := r.GetOrCreate("job-3", creator(&calls, 1), nil)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRegistry_CreateFailure(t *testing.T) {
	r := New(2)
	cause := errors.New("enomem")

	_, _, err := r.GetOrCreate("job", func() ([]byte, error) { return nil, cause }, nil)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 0, r.Len())

	_, _, err = r.GetOrCreate("job", func() ([]byte, error) { return nil, nil }, nil)
	assert.ErrorIs(t, err, ErrEmptyMapping)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Truncation(t *testing.T) {
	r := New(4)
	var calls atomic.Int64
	prefix := strings.Repeat("x", MaxNameLen)

	_, _, err := r.GetOrCreate(prefix+"-a", creator(&calls, 1), nil)
	require.NoError(t, err)
	_, created, err := r.GetOrCreate(prefix+"-b", creator(&calls, 1), nil)
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, prefix, r.Entries()[0].Name)
	assert.Equal(t, "short", Key("short"))
}

func TestKey_RuneBoundary(t *testing.T) {
	// 62 ASCII bytes followed by a 3-byte rune straddling the limit.
	name := strings.Repeat("x", MaxNameLen-1) + "€" + "-suffix"
	key := Key(name)
	assert.Equal(t, strings.Repeat("x", MaxNameLen-1), key)
	assert.True(t, utf8.ValidString(key))

	// A rune ending exactly at the limit is kept whole.
	name = strings.Repeat("x", MaxNameLen-3) + "€" + "tail"
	key = Key(name)
	assert.Len(t, key, MaxNameLen)
	assert.True(t, strings.HasSuffix(key, "€"))

	for _, name := range []string{
		strings.Repeat("ä", 40),
		strings.Repeat("日本", 20),
		strings.Repeat("🙂", 20),
	} {
		key := Key(name)
		assert.True(t, utf8.ValidString(key), name)
		assert.LessOrEqual(t, len(key), MaxNameLen)
		assert.True(t, strings.HasPrefix(name, key))
	}
}

func TestRegistry_ConcurrentSameName(t *testing.T) {
	r := New(8)
	var calls atomic.Int64

	const workers = 16
	results := make([][]byte, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, _, err := r.GetOrCreate("shared", creator(&calls, 16), nil)
			assert.NoError(t, err)
			results[i] = data
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, data := range results {
		assert.Same(t, &results[0][0], &data[0])
	}
}
