package window

import (
	"math"
	"testing"

	"github.com/hupe1980/mmapio/internal/mmap"
	"github.com/hupe1980/mmapio/internal/registry"
	"github.com/hupe1980/mmapio/internal/resource"
	"github.com/hupe1980/mmapio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	kib = int64(1) << 10
	mib = int64(1) << 20
)

type recordingObserver struct {
	maps      int
	mapErrs   int
	unmaps    int
	remaps    [][2]Window
	fallbacks int
}

func (o *recordingObserver) OnMap(*File, Window, bool)    { o.maps++ }
func (o *recordingObserver) OnMapError(*File, error)      { o.mapErrs++ }
func (o *recordingObserver) OnUnmap(*File, Window, error) { o.unmaps++ }
func (o *recordingObserver) OnRemap(_ *File, from, to Window) {
	o.remaps = append(o.remaps, [2]Window{from, to})
}
func (o *recordingObserver) OnFallback(*File, error) { o.fallbacks++ }

func newTestManager(t *testing.T, m *testutil.Mapper, windowSize int64, cfg ExecutorConfig) (*Manager, *recordingObserver) {
	t.Helper()
	cfg.Mapper = m
	if cfg.Intent == (Intent{}) {
		cfg.Intent = Intent{Mode: ModeReadWrite}
	}
	obs := &recordingObserver{}
	return NewManager(NewExecutor(cfg), windowSize, obs, nil), obs
}

func newTestFile(m *testutil.Mapper, fd int, size int64) *File {
	m.SetFile(fd, make([]byte, size))
	return &File{Name: "file", Fd: fd, IOSize: size}
}

func TestManager_WindowRemap(t *testing.T) {
	m := testutil.NewMapper()
	mgr, obs := newTestManager(t, m, 4*mib, ExecutorConfig{})
	f := newTestFile(m, 3, 10*mib)

	_, err := mgr.Prepare(f, 0, 4*mib)
	require.NoError(t, err)
	assert.Equal(t, WindowMapped, f.State())
	assert.True(t, f.PartialOnly())
	assert.Equal(t, int64(0), f.Window().Offset)
	assert.Equal(t, 4*mib, f.Window().Length)

	_, err = mgr.Prepare(f, 6*mib, 1*mib)
	require.NoError(t, err)

	assert.Equal(t, 2, m.MapCalls())
	assert.Equal(t, 1, m.UnmapCalls())
	assert.Equal(t, 6*mib, m.LastRequest().Offset)
	assert.Equal(t, int(4*mib), m.LastRequest().Length)

	w := f.Window()
	assert.Equal(t, 6*mib, w.Offset)
	assert.Equal(t, 4*mib, w.Length)
	assert.Len(t, obs.remaps, 1)
	assert.Equal(t, int64(0), obs.remaps[0][0].Offset)
	assert.Equal(t, 6*mib, obs.remaps[0][1].Offset)

	s := f.Stats()
	assert.Equal(t, 2, s.Maps)
	assert.Equal(t, 1, s.Unmaps)
	assert.Equal(t, 1, s.Remaps)
	assert.True(t, s.Partial)
}

func TestManager_CoveredRequestDoesNotMap(t *testing.T) {
	m := testutil.NewMapper()
	mgr, _ := newTestManager(t, m, 4*mib, ExecutorConfig{})
	f := newTestFile(m, 3, 10*mib)

	_, err := mgr.Prepare(f, 0, 4*kib)
	require.NoError(t, err)
	for off := int64(0); off < 4*mib; off += 256 * kib {
		_, err := mgr.Prepare(f, off, 4*kib)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, m.MapCalls())
	assert.Equal(t, 0, m.UnmapCalls())
}

func TestManager_WindowClippedAtEnd(t *testing.T) {
	m := testutil.NewMapper()
	mgr, _ := newTestManager(t, m, 4*mib, ExecutorConfig{})
	f := newTestFile(m, 3, 10*mib)

	_, err := mgr.Prepare(f, 8*mib, 1*mib)
	require.NoError(t, err)
	assert.Equal(t, 8*mib, f.Window().Offset)
	assert.Equal(t, 2*mib, f.Window().Length)

	_, err = mgr.Prepare(f, 9*mib, 2*mib)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestManager_OffsetOverflow(t *testing.T) {
	m := testutil.NewMapper()
	mgr, _ := newTestManager(t, m, 4*mib, ExecutorConfig{})
	f := newTestFile(m, 3, 1*mib)

	_, err := mgr.Prepare(f, 0, 4*kib)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_, err = mgr.Prepare(f, math.MaxInt64-10, 100)
	})
	assert.ErrorIs(t, err, ErrOutOfRange)

	f.BaseOffset = 8 * kib
	assert.NotPanics(t, func() {
		_, err = mgr.Prepare(f, math.MinInt64+10, 100)
	})
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 1, m.MapCalls())
}

func TestManager_RequestTooLarge(t *testing.T) {
	m := testutil.NewMapper()
	mgr, _ := newTestManager(t, m, 4*mib, ExecutorConfig{})
	f := newTestFile(m, 3, 10*mib)

	_, err := mgr.Prepare(f, 0, 5*mib)
	assert.ErrorIs(t, err, ErrRequestTooLarge)

	// Fits the window length but not once the window is aligned down.
	_, err = mgr.Prepare(f, 100, 4*mib)
	assert.ErrorIs(t, err, ErrRequestTooLarge)

	assert.Equal(t, 0, m.MapCalls())
	assert.Equal(t, Unmapped, f.State())
}

func TestManager_FullMapping(t *testing.T) {
	m := testutil.NewMapper()
	mgr, obs := newTestManager(t, m, 4*mib, ExecutorConfig{})
	f := newTestFile(m, 3, 1*mib)

	_, err := mgr.Prepare(f, 512*kib, 4*kib)
	require.NoError(t, err)
	assert.Equal(t, FullyMapped, f.State())
	assert.False(t, f.PartialOnly())
	assert.Equal(t, int64(0), m.LastRequest().Offset)
	assert.Equal(t, int(1*mib), m.LastRequest().Length)

	_, err = mgr.Prepare(f, 0, 1*mib)
	require.NoError(t, err)
	assert.Equal(t, 1, m.MapCalls())
	assert.Equal(t, 1, obs.maps)
}

func TestManager_UnalignedBaseOffset(t *testing.T) {
	ps := int64(mmap.PageSize())
	m := testutil.NewMapper()
	mgr, _ := newTestManager(t, m, 4*mib, ExecutorConfig{})

	m.SetFile(3, make([]byte, 2*mib))
	f := &File{Name: "file", Fd: 3, BaseOffset: ps + 100, IOSize: 1 * mib}

	buf, err := mgr.Prepare(f, ps+100, 16)
	require.NoError(t, err)
	copy(buf, "hello")

	assert.Equal(t, ps, m.LastRequest().Offset)
	assert.Equal(t, int(1*mib+100), m.LastRequest().Length)
	assert.Equal(t, int64(-100), f.Window().Offset)
	assert.Equal(t, "hello", string(m.File(3)[ps+100:ps+105]))
}

func TestManager_FallbackToWindow(t *testing.T) {
	m := testutil.NewMapper()
	m.MapErrAbove = int(512 * kib)
	mgr, obs := newTestManager(t, m, 4*mib, ExecutorConfig{})
	f := newTestFile(m, 3, 1*mib)

	_, err := mgr.Prepare(f, 768*kib, 4*kib)
	require.NoError(t, err)

	assert.Equal(t, 1, obs.fallbacks)
	assert.Equal(t, WindowMapped, f.State())
	assert.True(t, f.PartialOnly())
	assert.Equal(t, 768*kib, f.Window().Offset)
	assert.Equal(t, 256*kib, f.Window().Length)

	s := f.Stats()
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Maps)

	// Partial-only files never retry the full mapping.
	_, err = mgr.Prepare(f, 512*kib, 4*kib)
	require.NoError(t, err)
	assert.Equal(t, int(512*kib), m.LastRequest().Length)
	assert.Equal(t, 1, obs.fallbacks)
}

func TestManager_MapFailure(t *testing.T) {
	m := testutil.NewMapper()
	mgr, obs := newTestManager(t, m, 4*mib, ExecutorConfig{})
	f := newTestFile(m, 3, 10*mib)

	_, err := mgr.Prepare(f, 0, 4*kib)
	require.NoError(t, err)

	m.MapErr = testutil.ErrInjected
	_, err = mgr.Prepare(f, 8*mib, 4*kib)
	assert.ErrorIs(t, err, ErrMapFailed)
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Equal(t, Unmapped, f.State())
	assert.Equal(t, 1, obs.mapErrs)
	assert.Equal(t, 0, m.Live())
}

func TestManager_WindowBudget(t *testing.T) {
	budget := resource.NewController(resource.Config{GlobalBudget: 16 * mib})
	windowSize := budget.WindowSize(4)
	assert.Equal(t, 4*mib, windowSize)

	m := testutil.NewMapper()
	mgr, _ := newTestManager(t, m, windowSize, ExecutorConfig{Budget: budget})

	files := make([]*File, 4)
	for i := range files {
		files[i] = newTestFile(m, 10+i, 16*mib)
		_, err := mgr.Prepare(files[i], 8*mib, 4*kib)
		require.NoError(t, err)
		assert.LessOrEqual(t, files[i].Window().Length, windowSize)
	}
	assert.LessOrEqual(t, budget.MemoryUsage(), budget.GlobalBudget())

	for _, f := range files {
		require.NoError(t, mgr.Release(f))
		assert.Equal(t, Unmapped, f.State())
	}
	assert.Equal(t, int64(0), budget.MemoryUsage())
	assert.Equal(t, 0, m.Live())
}

func TestManager_Shared(t *testing.T) {
	reg := registry.New(registry.DefaultCapacity)

	t.Run("reused across threads", func(t *testing.T) {
		m := testutil.NewMapper()
		cfg := ExecutorConfig{JobName: "shared-job", Share: true, Registry: reg}
		a, _ := newTestManager(t, m, 4*mib, cfg)
		b, _ := newTestManager(t, m, 4*mib, cfg)
		fa := newTestFile(m, 3, 1*mib)
		fb := &File{Name: "file", Fd: 3, IOSize: 1 * mib}

		buf, err := a.Prepare(fa, 0, 4*kib)
		require.NoError(t, err)
		copy(buf, "xyz")

		buf, err = b.Prepare(fb, 0, 4*kib)
		require.NoError(t, err)
		assert.Equal(t, "xyz", string(buf[:3]))
		assert.Equal(t, 1, m.MapCalls())
		assert.Equal(t, 1, fb.Stats().Reused)

		require.NoError(t, a.Release(fa))
		assert.Equal(t, 0, m.UnmapCalls())
		assert.Equal(t, 0, fa.Stats().Unmaps)
	})

	t.Run("window rejected", func(t *testing.T) {
		m := testutil.NewMapper()
		mgr, _ := newTestManager(t, m, 4*mib, ExecutorConfig{JobName: "big", Share: true, Registry: reg})
		f := newTestFile(m, 3, 10*mib)

		_, err := mgr.Prepare(f, 0, 4*kib)
		assert.ErrorIs(t, err, ErrSharedWindow)
		assert.Equal(t, 0, m.MapCalls())
	})

	t.Run("registry exhausted", func(t *testing.T) {
		m := testutil.NewMapper()
		small := registry.New(1)
		a, _ := newTestManager(t, m, 4*mib, ExecutorConfig{JobName: "a", Share: true, Registry: small})
		b, obs := newTestManager(t, m, 4*mib, ExecutorConfig{JobName: "b", Share: true, Registry: small})

		_, err := a.Prepare(newTestFile(m, 3, 1*mib), 0, 4*kib)
		require.NoError(t, err)

		f := newTestFile(m, 4, 1*mib)
		_, err = b.Prepare(f, 0, 4*kib)
		assert.ErrorIs(t, err, ErrRegistryExhausted)
		assert.Equal(t, 1, obs.mapErrs)
		assert.Equal(t, 0, obs.fallbacks)
	})
}

func TestWindow_PageRange(t *testing.T) {
	ps := int64(mmap.PageSize())
	w := Window{Data: make([]byte, 4*ps), Offset: 0, Length: 4 * ps}

	r := w.PageRange(ps+10, 20)
	assert.Len(t, r, int(ps))
	assert.Same(t, &w.Data[ps], &r[0])

	r = w.PageRange(3*ps+10, ps-10)
	assert.Len(t, r, int(ps))

	assert.True(t, w.Covers(0, 4*ps))
	assert.False(t, w.Covers(ps, 4*ps))
	assert.False(t, Window{}.Covers(0, 1))
	assert.False(t, w.Covers(math.MaxInt64-10, 100))
	assert.False(t, w.Covers(ps, -1))
}
