package window

import (
	"log/slog"

	"github.com/hupe1980/mmapio/internal/conv"
	"github.com/hupe1980/mmapio/internal/mmap"
)

// Observer receives mapping events.
type Observer interface {
	OnMap(f *File, w Window, reused bool)
	OnMapError(f *File, err error)
	OnUnmap(f *File, w Window, err error)
	OnRemap(f *File, from, to Window)
	OnFallback(f *File, err error)
}

// Manager keeps each file's window covering the requests issued against it.
type Manager struct {
	exec       *Executor
	windowSize int64
	observer   Observer
	logger     *slog.Logger
}

// NewManager creates a manager that bounds windows to windowSize bytes.
func NewManager(exec *Executor, windowSize int64, observer Observer, logger *slog.Logger) *Manager {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		exec:       exec,
		windowSize: windowSize,
		observer:   observer,
		logger:     logger,
	}
}

// WindowSize returns the per-file window budget.
func (m *Manager) WindowSize() int64 { return m.windowSize }

// Executor returns the mapping executor.
func (m *Manager) Executor() *Executor { return m.exec }

// WindowLength returns the windowed-mapping length for f.
func (m *Manager) WindowLength(f *File) int64 {
	return min(m.windowSize, f.IOSize)
}

// Prepare makes sure f's window covers [offset, offset+length) and returns
// the mapped bytes of the request. offset is an absolute file offset.
func (m *Manager) Prepare(f *File, offset, length int64) ([]byte, error) {
	rel := offset - f.BaseOffset
	if length <= 0 || rel < 0 || rel > f.IOSize-length {
		return nil, newError("prep", ErrOutOfRange, nil)
	}

	if f.window.Covers(rel, length) {
		return f.window.Slice(rel, length), nil
	}

	full := !f.partialOnly && m.fullEligible(f, rel)
	if !full {
		if err := m.checkFits(f, rel, length); err != nil {
			return nil, err
		}
		if m.exec.cfg.Share {
			return nil, newError("mmap", ErrSharedWindow, nil)
		}
	}

	old := f.window
	if old.Mapped() {
		if old.Shared {
			return nil, newError("remap", ErrSharedWindow, nil)
		}
		if err := m.release(f); err != nil {
			return nil, err
		}
	}

	mapped := false
	if full {
		err := m.mapFull(f)
		switch {
		case err == nil:
			mapped = true
		case m.exec.cfg.Share:
			m.observer.OnMapError(f, err)
			return nil, err
		default:
			// The one designed retry: fall back to a window.
			m.observer.OnFallback(f, err)
			m.logger.Debug("full mapping failed, falling back to window",
				"file", f.Name,
				"size", f.IOSize,
				"error", err,
			)
			if err := m.checkFits(f, rel, length); err != nil {
				return nil, err
			}
		}
	}
	if !mapped {
		if err := m.mapWindow(f, rel); err != nil {
			return nil, err
		}
	}

	if old.Mapped() {
		f.stats.Remaps++
		m.observer.OnRemap(f, old, f.window)
	}
	return f.window.Slice(rel, length), nil
}

// Release unmaps f's window and resets its state, e.g. on file close.
func (m *Manager) Release(f *File) error {
	err := m.release(f)
	f.window = Window{}
	f.state = Unmapped
	f.partialOnly = false
	return err
}

func (m *Manager) release(f *File) error {
	w := f.window
	if !w.Mapped() {
		return nil
	}
	err := m.exec.Unmap(w.mapping())
	m.observer.OnUnmap(f, w, err)
	if err != nil {
		return err
	}
	if !w.Shared {
		f.stats.Unmaps++
	}
	f.window = Window{}
	f.state = Unmapped
	return nil
}

// fullEligible marks f partial-only when the whole file cannot be mapped.
func (m *Manager) fullEligible(f *File, rel int64) bool {
	slack := f.BaseOffset - mmap.AlignDown(f.BaseOffset)
	if f.IOSize > m.windowSize || !conv.FitsInt(f.IOSize+slack) || !conv.FitsInt(rel) {
		f.partialOnly = true
		return false
	}
	return true
}

// checkFits rejects requests that cannot fit a page-aligned window.
func (m *Manager) checkFits(f *File, rel, length int64) error {
	winLen := m.WindowLength(f)
	if length > winLen {
		return newError("prep", ErrRequestTooLarge, nil)
	}
	off := mmap.AlignDown(f.BaseOffset+rel) - f.BaseOffset
	if rel+length > off+winLen {
		return newError("prep", ErrRequestTooLarge, nil)
	}
	return nil
}

func (m *Manager) mapFull(f *File) error {
	pos := mmap.AlignDown(f.BaseOffset)
	slack := f.BaseOffset - pos
	length := f.IOSize + slack

	mp, err := m.exec.Map(f.Fd, pos, int(length), f.BlockDevice)
	if err != nil {
		f.partialOnly = true
		f.stats.Failed++
		return err
	}
	m.install(f, Window{Data: mp.Data, Offset: -slack, Length: length, Shared: mp.Shared}, FullyMapped, mp.Reused)
	return nil
}

func (m *Manager) mapWindow(f *File, rel int64) error {
	pos := mmap.AlignDown(f.BaseOffset + rel)
	off := pos - f.BaseOffset
	length := min(m.WindowLength(f), f.IOSize-off)

	n, err := conv.Int64ToInt(length)
	if err != nil {
		f.stats.Failed++
		err = newError("mmap", ErrMapFailed, err)
		m.observer.OnMapError(f, err)
		return err
	}

	mp, err := m.exec.Map(f.Fd, pos, n, f.BlockDevice)
	if err != nil {
		f.stats.Failed++
		m.observer.OnMapError(f, err)
		return err
	}
	m.install(f, Window{Data: mp.Data, Offset: off, Length: length, Shared: mp.Shared}, WindowMapped, mp.Reused)
	return nil
}

func (m *Manager) install(f *File, w Window, s State, reused bool) {
	f.window = w
	f.state = s
	f.stats.Maps++
	if reused {
		f.stats.Reused++
	}
	m.observer.OnMap(f, w, reused)
}

type nopObserver struct{}

func (nopObserver) OnMap(*File, Window, bool)     {}
func (nopObserver) OnMapError(*File, error)       {}
func (nopObserver) OnUnmap(*File, Window, error)  {}
func (nopObserver) OnRemap(*File, Window, Window) {}
func (nopObserver) OnFallback(*File, error)       {}
