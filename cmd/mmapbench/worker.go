package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hupe1980/mmapio"
	"github.com/hupe1980/mmapio/internal/latlog"
	"github.com/hupe1980/mmapio/internal/randutil"
	"github.com/hupe1980/mmapio/internal/resource"
)

// jobResult accumulates the results of all threads of a job.
type jobResult struct {
	name      string
	ios       atomic.Int64
	bytes     atomic.Int64
	reqErrors atomic.Int64
	latencyNs atomic.Int64
	maps      atomic.Int64
	remaps    atomic.Int64
	partial   atomic.Int64
	errs      mmapio.JobErrors
}

// worker is one thread of a job.
type worker struct {
	cfg     *config
	job     mmapio.JobConfig
	engine  *mmapio.Engine
	result  *jobResult
	rng     *randutil.RNG
	limiter *resource.Controller
	latLog  *latlog.Writer
}

func (w *worker) run(ctx context.Context) error {
	f, err := w.engine.OpenFile(ctx, w.cfg.path, w.cfg.offset, w.cfg.size)
	if err != nil {
		w.result.errs.ReportError("open", err)
		return nil
	}
	defer func() {
		s := f.Stats()
		w.result.maps.Add(int64(s.Maps))
		w.result.remaps.Add(int64(s.Remaps))
		if s.PartialOnly {
			w.result.partial.Add(1)
		}
		if err := w.engine.CloseFile(f); err != nil {
			w.result.errs.ReportError("close", err)
		}
	}()

	op := mmapio.OpRead
	if w.job.Mode.Writes() {
		op = mmapio.OpWrite
	}
	syncEvery, syncOp := w.job.SyncEvery()

	buf := make([]byte, w.cfg.blockSize)
	if op == mmapio.OpWrite {
		w.rng.Fill(buf)
	}
	blocks := w.cfg.size / w.cfg.blockSize
	var next int64

	for n := int64(0); w.cfg.ios == 0 || n < w.cfg.ios; n++ {
		if ctx.Err() != nil || w.result.errs.Failed() {
			return nil
		}

		var block int64
		if w.cfg.random {
			block = w.rng.Int63n(blocks)
		} else {
			block = next
			next = (next + 1) % blocks
		}

		req := &mmapio.Request{Op: op, Offset: w.cfg.offset + block*w.cfg.blockSize, Buf: buf}
		if err := w.issue(ctx, f, req); err != nil {
			return nil
		}

		if op == mmapio.OpWrite && syncEvery > 0 && (n+1)%int64(syncEvery) == 0 {
			if err := w.issue(ctx, f, &mmapio.Request{Op: syncOp}); err != nil {
				return nil
			}
		}
	}
	return nil
}

// issue runs one request. The returned error is the fatal error that
// stopped the file; per-request errors are only counted.
func (w *worker) issue(ctx context.Context, f *mmapio.File, req *mmapio.Request) error {
	if err := w.limiter.AcquireIO(ctx, len(req.Buf)); err != nil {
		return err
	}

	start := time.Now()
	if err := w.engine.Prepare(ctx, f, req); err != nil {
		return err
	}
	status := w.engine.Execute(ctx, f, req)
	lat := time.Since(start)

	w.result.ios.Add(1)
	w.result.bytes.Add(int64(len(req.Buf)))
	w.result.latencyNs.Add(lat.Nanoseconds())
	if status == mmapio.CompletedWithError {
		w.result.reqErrors.Add(1)
	}

	if w.latLog != nil {
		if err := w.latLog.Log(lat, int(req.Op), len(req.Buf), req.Offset); err != nil {
			return err
		}
	}
	return nil
}
