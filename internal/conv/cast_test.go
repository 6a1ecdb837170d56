package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt64ToInt(t *testing.T) {
	t.Run("valid zero", func(t *testing.T) {
		got, err := Int64ToInt(0)
		assert.NoError(t, err)
		assert.Equal(t, 0, got)
	})

	t.Run("valid positive", func(t *testing.T) {
		got, err := Int64ToInt(1 << 20)
		assert.NoError(t, err)
		assert.Equal(t, 1<<20, got)
	})

	t.Run("invalid negative", func(t *testing.T) {
		_, err := Int64ToInt(-1)
		assert.Error(t, err)
	})
}

func TestInt64ToUint32(t *testing.T) {
	t.Run("valid max uint32", func(t *testing.T) {
		got, err := Int64ToUint32(math.MaxUint32)
		assert.NoError(t, err)
		assert.Equal(t, uint32(math.MaxUint32), got)
	})

	t.Run("invalid too large", func(t *testing.T) {
		_, err := Int64ToUint32(math.MaxUint32 + 1)
		assert.Error(t, err)
	})

	t.Run("invalid negative", func(t *testing.T) {
		_, err := Int64ToUint32(-5)
		assert.Error(t, err)
	})
}

func TestFitsInt(t *testing.T) {
	assert.True(t, FitsInt(0))
	assert.True(t, FitsInt(4096))
	assert.False(t, FitsInt(-1))
}
