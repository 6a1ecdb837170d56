package mmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adviseRecorder struct {
	Mapper
	calls []AccessPattern
	fail  map[AccessPattern]error
}

func (r *adviseRecorder) Advise(_ []byte, pattern AccessPattern) error {
	r.calls = append(r.calls, pattern)
	return r.fail[pattern]
}

func TestApplyHints(t *testing.T) {
	data := make([]byte, 64)

	t.Run("drop hint only", func(t *testing.T) {
		r := &adviseRecorder{}
		require.NoError(t, ApplyHints(r, data, Hints{}))
		assert.Equal(t, []AccessPattern{AccessDontNeed}, r.calls)
	})

	t.Run("sequential", func(t *testing.T) {
		r := &adviseRecorder{}
		require.NoError(t, ApplyHints(r, data, Hints{Fadvise: true}))
		assert.Equal(t, []AccessPattern{AccessSequential, AccessDontNeed}, r.calls)
	})

	t.Run("random with huge pages and block device", func(t *testing.T) {
		r := &adviseRecorder{}
		require.NoError(t, ApplyHints(r, data, Hints{HugePages: true, Fadvise: true, Random: true, BlockDevice: true}))
		assert.Equal(t, []AccessPattern{AccessHugePage, AccessRandom, AccessDontNeed, AccessFree}, r.calls)
	})

	t.Run("huge page failure ignored", func(t *testing.T) {
		r := &adviseRecorder{fail: map[AccessPattern]error{AccessHugePage: errors.New("einval")}}
		assert.NoError(t, ApplyHints(r, data, Hints{HugePages: true}))
	})

	t.Run("free failure ignored", func(t *testing.T) {
		r := &adviseRecorder{fail: map[AccessPattern]error{AccessFree: errors.New("einval")}}
		assert.NoError(t, ApplyHints(r, data, Hints{BlockDevice: true}))
	})

	t.Run("access pattern failure", func(t *testing.T) {
		cause := errors.New("einval")
		r := &adviseRecorder{fail: map[AccessPattern]error{AccessRandom: cause}}
		err := ApplyHints(r, data, Hints{Fadvise: true, Random: true})

		var ae *AdviseError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, AccessRandom, ae.Pattern)
		assert.ErrorIs(t, err, cause)
		// Stops before the drop hint.
		assert.Equal(t, []AccessPattern{AccessRandom}, r.calls)
	})

	t.Run("drop failure", func(t *testing.T) {
		r := &adviseRecorder{fail: map[AccessPattern]error{AccessDontNeed: errors.New("eagain")}}
		err := ApplyHints(r, data, Hints{})

		var ae *AdviseError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, AccessDontNeed, ae.Pattern)
	})

	t.Run("empty region", func(t *testing.T) {
		r := &adviseRecorder{}
		assert.NoError(t, ApplyHints(r, nil, Hints{Fadvise: true}))
		assert.Empty(t, r.calls)
	})
}

func TestAlignDown(t *testing.T) {
	ps := int64(PageSize())
	assert.Equal(t, int64(0), AlignDown(0))
	assert.Equal(t, int64(0), AlignDown(ps-1))
	assert.Equal(t, ps, AlignDown(ps))
	assert.Equal(t, 3*ps, AlignDown(3*ps+17))
}
