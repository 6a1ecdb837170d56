package mmapio

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    remaps prometheus.Counter
//	    io     *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordRemap() {
//	    p.remaps.Inc()
//	}
type MetricsCollector interface {
	// RecordMap is called after each mapping attempt.
	// bytes is the mapping length, reused is set for registry hits.
	RecordMap(bytes int64, reused bool, err error)

	// RecordUnmap is called after each unmap.
	RecordUnmap(bytes int64, err error)

	// RecordRemap is called each time a window moves.
	RecordRemap()

	// RecordIO is called after each executed request.
	RecordIO(op Op, bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMap(int64, bool, error)           {}
func (NoopMetricsCollector) RecordUnmap(int64, error)               {}
func (NoopMetricsCollector) RecordRemap()                           {}
func (NoopMetricsCollector) RecordIO(Op, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	MapCount     atomic.Int64
	MapReused    atomic.Int64
	MapErrors    atomic.Int64
	MappedBytes  atomic.Int64
	UnmapCount   atomic.Int64
	UnmapErrors  atomic.Int64
	RemapCount   atomic.Int64
	ReadCount    atomic.Int64
	ReadBytes    atomic.Int64
	WriteCount   atomic.Int64
	WriteBytes   atomic.Int64
	SyncCount    atomic.Int64
	TrimCount    atomic.Int64
	IOErrors     atomic.Int64
	IOTotalNanos atomic.Int64
}

// RecordMap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMap(bytes int64, reused bool, err error) {
	if err != nil {
		b.MapErrors.Add(1)
		return
	}
	b.MapCount.Add(1)
	if reused {
		b.MapReused.Add(1)
		return
	}
	b.MappedBytes.Add(bytes)
}

// RecordUnmap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUnmap(bytes int64, err error) {
	if err != nil {
		b.UnmapErrors.Add(1)
		return
	}
	b.UnmapCount.Add(1)
	b.MappedBytes.Add(-bytes)
}

// RecordRemap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemap() {
	b.RemapCount.Add(1)
}

// RecordIO implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIO(op Op, bytes int, duration time.Duration, err error) {
	switch op {
	case OpRead:
		b.ReadCount.Add(1)
		b.ReadBytes.Add(int64(bytes))
	case OpWrite:
		b.WriteCount.Add(1)
		b.WriteBytes.Add(int64(bytes))
	case OpSync, OpDataSync:
		b.SyncCount.Add(1)
	case OpTrim:
		b.TrimCount.Add(1)
	}
	b.IOTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IOErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		MapCount:    b.MapCount.Load(),
		MapReused:   b.MapReused.Load(),
		MapErrors:   b.MapErrors.Load(),
		MappedBytes: b.MappedBytes.Load(),
		UnmapCount:  b.UnmapCount.Load(),
		UnmapErrors: b.UnmapErrors.Load(),
		RemapCount:  b.RemapCount.Load(),
		ReadCount:   b.ReadCount.Load(),
		ReadBytes:   b.ReadBytes.Load(),
		WriteCount:  b.WriteCount.Load(),
		WriteBytes:  b.WriteBytes.Load(),
		SyncCount:   b.SyncCount.Load(),
		TrimCount:   b.TrimCount.Load(),
		IOErrors:    b.IOErrors.Load(),
		IOAvgNanos:  b.getAvgIONanos(),
	}
}

func (b *BasicMetricsCollector) getAvgIONanos() int64 {
	count := b.ReadCount.Load() + b.WriteCount.Load() + b.SyncCount.Load() + b.TrimCount.Load()
	if count == 0 {
		return 0
	}
	return b.IOTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	MapCount    int64
	MapReused   int64
	MapErrors   int64
	MappedBytes int64
	UnmapCount  int64
	UnmapErrors int64
	RemapCount  int64
	ReadCount   int64
	ReadBytes   int64
	WriteCount  int64
	WriteBytes  int64
	SyncCount   int64
	TrimCount   int64
	IOErrors    int64
	IOAvgNanos  int64
}
