package mmapio

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/mmapio/internal/mmap"
)

// ErrNotPrepared is returned when a read or write is executed without a
// successful Prepare.
var ErrNotPrepared = errors.New("mmapio: request not prepared")

// Op is the operation of a request.
type Op int

const (
	// OpRead copies mapped bytes into the request buffer.
	OpRead Op = iota
	// OpWrite copies the request buffer into mapped bytes.
	OpWrite
	// OpSync flushes the file's current window.
	OpSync
	// OpDataSync is OpSync; mapped files have no separate metadata flush.
	OpDataSync
	// OpTrim discards the request range.
	OpTrim
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpSync:
		return "sync"
	case OpDataSync:
		return "datasync"
	case OpTrim:
		return "trim"
	default:
		return "unknown"
	}
}

// Status is the completion status of an executed request.
type Status int

const (
	// Completed requests succeeded.
	Completed Status = iota
	// CompletedWithError requests finished with Request.Err set.
	CompletedWithError
)

func (s Status) String() string {
	if s == CompletedWithError {
		return "completed with error"
	}
	return "completed"
}

// Request is one I/O request.
type Request struct {
	Op Op
	// Offset is an absolute file offset.
	Offset int64
	// Buf is the transfer buffer of reads and writes.
	Buf []byte
	// Length is the trim length.
	Length int64
	// Err is set by Execute when the request completes with an error.
	Err error

	data []byte
}

// Data returns the mapped bytes bound by Prepare.
func (r *Request) Data() []byte { return r.data }

// Execute performs a prepared request against f's window.
// It never blocks on anything but the syscalls of the request itself.
func (e *Engine) Execute(ctx context.Context, f *File, r *Request) Status {
	start := time.Now()
	n, err := e.execute(f, r)
	e.metrics.RecordIO(r.Op, n, time.Since(start), err)

	r.Err = err
	if err == nil {
		return Completed
	}
	f.logger.LogRequestError(ctx, r.Op, r.Offset, err)
	return CompletedWithError
}

func (e *Engine) execute(f *File, r *Request) (int, error) {
	if f.closed {
		return 0, ErrFileClosed
	}
	switch r.Op {
	case OpRead, OpWrite:
		return e.transfer(f, r)
	case OpSync, OpDataSync:
		return 0, e.sync(f)
	case OpTrim:
		return 0, e.trim(f, r)
	default:
		return 0, ErrUnknownOp
	}
}

func (e *Engine) transfer(f *File, r *Request) (int, error) {
	if r.Op == OpWrite && !e.cfg.Mode.Writes() {
		return 0, ErrReadOnly
	}
	if r.data == nil || len(r.data) != len(r.Buf) {
		return 0, ErrNotPrepared
	}

	var n int
	if r.Op == OpRead {
		n = copy(r.Buf, r.data)
	} else {
		n = copy(r.data, r.Buf)
	}
	f.pages.Mark(r.Offset, int64(n))

	if !e.cfg.Direct {
		return n, nil
	}
	return n, e.dropCache(f, r.Offset, int64(n))
}

// dropCache flushes and drops the pages of [offset, offset+length) to
// approximate uncached I/O.
func (e *Engine) dropCache(f *File, offset, length int64) error {
	w := f.win.Window()
	if !w.Covers(offset-f.win.BaseOffset, length) {
		return ErrNotPrepared
	}
	pages := w.PageRange(offset-f.win.BaseOffset, length)
	mapper := e.proc.opts.mapper

	var errs []error
	if err := mapper.Sync(pages); err != nil {
		errs = append(errs, &MappingError{Kind: KindSyncFailed, Op: "msync", File: f.Name(), Err: err})
	}
	if err := mapper.Advise(pages, mmap.AccessDontNeed); err != nil {
		errs = append(errs, &MappingError{Kind: KindAdviseDropFailed, Op: "madvise", File: f.Name(), Err: err})
	}
	return errors.Join(errs...)
}

func (e *Engine) sync(f *File) error {
	w := f.win.Window()
	if !w.Mapped() {
		return nil
	}
	if err := e.proc.opts.mapper.Sync(w.Data); err != nil {
		return &MappingError{Kind: KindSyncFailed, Op: "msync", File: f.Name(), Err: err}
	}
	return nil
}

func (e *Engine) trim(f *File, r *Request) error {
	if !e.cfg.Mode.Writes() {
		return ErrReadOnly
	}
	rel := r.Offset - f.win.BaseOffset
	if r.Length <= 0 || rel < 0 || rel > f.win.IOSize-r.Length {
		return ErrOutOfRange
	}
	if err := e.proc.opts.trimmer.Trim(f.file, r.Offset, r.Length); err != nil {
		return &MappingError{Kind: KindTrimFailed, Op: "trim", File: f.Name(), Err: err}
	}
	return nil
}
