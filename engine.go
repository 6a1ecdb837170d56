package mmapio

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/mmapio/internal/conv"
	"github.com/hupe1980/mmapio/internal/coverage"
	"github.com/hupe1980/mmapio/internal/fs"
	"github.com/hupe1980/mmapio/internal/mmap"
	"github.com/hupe1980/mmapio/internal/window"
)

var (
	// ErrFileTooSmall is returned when a read-only job opens a file shorter
	// than its I/O range.
	ErrFileTooSmall = errors.New("mmapio: file smaller than I/O range")
	// ErrEmptyRange is returned when a file has no bytes to do I/O on.
	ErrEmptyRange = errors.New("mmapio: empty I/O range")
	// ErrFileClosed is returned for operations on a closed file.
	ErrFileClosed = errors.New("mmapio: file closed")
)

// Engine drives mapped I/O for one worker thread.
//
// An Engine and its files are not safe for concurrent use. Threads of a
// sharing job each have their own Engine and reach the same mapped bytes
// through the process registry.
type Engine struct {
	cfg     JobConfig
	proc    *Process
	mgr     *window.Manager
	sink    ErrorSink
	logger  *Logger
	metrics MetricsCollector
	files   map[*File]struct{}
}

// File is an open file of an Engine.
type File struct {
	file   fs.File
	win    *window.File
	pages  *coverage.Tracker
	logger *Logger
	err    error
	closed bool
}

// FileStats is a snapshot of a file's mapping activity.
type FileStats struct {
	State        string
	Maps         int
	Unmaps       int
	Remaps       int
	Reused       int
	Failed       int
	PartialOnly  bool
	TouchedPages uint64
	TouchedBytes int64
}

// Name returns the file name.
func (f *File) Name() string { return f.win.Name }

// Offset returns the file offset where the I/O range starts.
func (f *File) Offset() int64 { return f.win.BaseOffset }

// Size returns the length of the I/O range.
func (f *File) Size() int64 { return f.win.IOSize }

// Err returns the error that stopped I/O on the file, if any.
func (f *File) Err() error { return f.err }

// Stats returns the file's mapping counters.
func (f *File) Stats() FileStats {
	s := f.win.Stats()
	return FileStats{
		State:        f.win.State().String(),
		Maps:         s.Maps,
		Unmaps:       s.Unmaps,
		Remaps:       s.Remaps,
		Reused:       s.Reused,
		Failed:       s.Failed,
		PartialOnly:  s.Partial,
		TouchedPages: f.pages.Pages(),
		TouchedBytes: f.pages.Bytes(),
	}
}

// Config returns the job configuration.
func (e *Engine) Config() JobConfig { return e.cfg }

// WindowSize returns the per-file window budget.
func (e *Engine) WindowSize() int64 { return e.mgr.WindowSize() }

// OpenFile opens name for I/O on [offset, offset+size). A size of zero uses
// the rest of the file. Files of writing jobs are created and extended as
// needed.
func (e *Engine) OpenFile(ctx context.Context, name string, offset, size int64) (*File, error) {
	fsys := e.proc.opts.fileSystem

	flag := os.O_RDONLY
	if e.cfg.Mode.Writes() {
		flag = os.O_RDWR | os.O_CREATE
	}
	file, err := fsys.OpenFile(name, flag, 0o644)
	if err != nil {
		return nil, err
	}

	f, err := e.attach(name, file, offset, size)
	if err != nil {
		_ = file.Close()
		e.logger.WithFile(name).LogFatal(ctx, "open", err)
		return nil, err
	}
	e.files[f] = struct{}{}
	return f, nil
}

func (e *Engine) attach(name string, file fs.File, offset, size int64) (*File, error) {
	if offset < 0 || size < 0 {
		return nil, ErrOutOfRange
	}

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	blockDevice := fs.IsBlockDevice(info)

	fileSize, err := fs.Size(file)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		size = fileSize - offset
	}
	if size <= 0 {
		return nil, ErrEmptyRange
	}

	if end := offset + size; end > fileSize {
		if !e.cfg.Mode.Writes() || blockDevice {
			return nil, fmt.Errorf("%w: %s has %d bytes, need %d", ErrFileTooSmall, name, fileSize, end)
		}
		if err := e.proc.opts.fileSystem.Truncate(name, end); err != nil {
			return nil, err
		}
	}

	fd, err := conv.Int64ToInt(int64(file.Fd()))
	if err != nil {
		return nil, err
	}

	return &File{
		file: file,
		win: &window.File{
			Name:        name,
			Fd:          fd,
			BaseOffset:  offset,
			IOSize:      size,
			BlockDevice: blockDevice,
		},
		pages:  coverage.NewTracker(mmap.PageSize()),
		logger: e.logger.WithFile(name),
	}, nil
}

// CloseFile releases f's window and closes it.
func (e *Engine) CloseFile(f *File) error {
	if f.closed {
		return ErrFileClosed
	}
	f.closed = true
	delete(e.files, f)

	err := translateError(f.Name(), e.mgr.Release(f.win))
	return errors.Join(err, f.file.Close())
}

// Close closes every open file of the engine.
func (e *Engine) Close() error {
	var errs []error
	for f := range e.files {
		errs = append(errs, e.CloseFile(f))
	}
	return errors.Join(errs...)
}

// Prepare makes sure f's window covers the request and binds the mapped
// bytes to it. Only reads and writes need mapped bytes; other operations
// pass through.
//
// A failure stops further I/O on f and is reported to the job's error sink.
func (e *Engine) Prepare(ctx context.Context, f *File, r *Request) error {
	if f.closed {
		return ErrFileClosed
	}
	if f.err != nil {
		return fmt.Errorf("%w: %w", ErrFileFailed, f.err)
	}

	r.data = nil
	if r.Op != OpRead && r.Op != OpWrite {
		return nil
	}

	data, err := e.mgr.Prepare(f.win, r.Offset, int64(len(r.Buf)))
	if err != nil {
		err = translateError(f.Name(), err)
		f.err = err
		e.sink.ReportError("prep", err)
		f.logger.LogFatal(ctx, "prep", err)
		return err
	}
	r.data = data
	return nil
}
