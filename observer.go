package mmapio

import (
	"context"

	"github.com/hupe1980/mmapio/internal/window"
)

// engineObserver forwards window events to the engine's logger and metrics.
type engineObserver struct {
	e *Engine
}

func (o engineObserver) OnMap(f *window.File, w window.Window, reused bool) {
	o.e.metrics.RecordMap(w.Length, reused, nil)
	o.e.logger.WithFile(f.Name).LogMap(context.Background(), f.BaseOffset+w.Offset, w.Length, reused)
}

func (o engineObserver) OnMapError(_ *window.File, err error) {
	o.e.metrics.RecordMap(0, false, err)
}

func (o engineObserver) OnUnmap(f *window.File, w window.Window, err error) {
	if w.Shared {
		return
	}
	o.e.metrics.RecordUnmap(w.Length, err)
	o.e.logger.WithFile(f.Name).LogUnmap(context.Background(), f.BaseOffset+w.Offset, w.Length, err)
}

func (o engineObserver) OnRemap(f *window.File, from, to window.Window) {
	o.e.metrics.RecordRemap()
	o.e.logger.WithFile(f.Name).LogRemap(context.Background(), f.BaseOffset+from.Offset, f.BaseOffset+to.Offset)
}

func (o engineObserver) OnFallback(_ *window.File, err error) {
	o.e.metrics.RecordMap(0, false, err)
}
