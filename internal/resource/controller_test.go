package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_WindowSize(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, DefaultGlobalBudget, c.GlobalBudget())
	assert.Equal(t, DefaultGlobalBudget, c.WindowSize(1))
	assert.Equal(t, DefaultGlobalBudget/4, c.WindowSize(4))
	assert.Equal(t, DefaultGlobalBudget, c.WindowSize(0))

	c2 := NewController(Config{GlobalBudget: 8 << 20})
	assert.Equal(t, int64(4<<20), c2.WindowSize(2))
}

func TestController_Memory(t *testing.T) {
	// Test with limit
	c := NewController(Config{MemoryLimitBytes: 100})

	// Acquire 50
	err := c.AcquireMemory(50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	// Acquire 40
	err = c.AcquireMemory(40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should fail - limit exceeded)
	err = c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Release 50
	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	// Now Acquire 20 should succeed
	err = c.AcquireMemory(20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	err := c.AcquireMemory(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())

	// Non-positive sizes are ignored.
	require.NoError(t, c.AcquireMemory(-1))
	c.ReleaseMemory(0)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000}) // 1KB/s
	ctx := context.Background()

	// Small acquire
	err := c.AcquireIO(ctx, 100)
	assert.NoError(t, err)

	// Unlimited
	c2 := NewController(Config{})
	err = c2.AcquireIO(ctx, 1000000)
	assert.NoError(t, err)
}

func TestController_IOContextCanceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1}) // Very slow
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.AcquireIO(ctx, 1000))
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	assert.NoError(t, c.AcquireMemory(100))
	c.ReleaseMemory(100)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
	assert.Equal(t, DefaultGlobalBudget/2, c.WindowSize(2))

	assert.NoError(t, c.AcquireIO(context.Background(), 100))
}
