package mmapio

import (
	"log/slog"

	"github.com/hupe1980/mmapio/internal/fs"
	"github.com/hupe1980/mmapio/internal/mmap"
	"github.com/hupe1980/mmapio/internal/registry"
	"github.com/hupe1980/mmapio/internal/resource"
)

type options struct {
	share             bool
	replicate         bool
	hugePages         int
	globalBudget      int64
	registryCapacity  int
	mappedMemoryLimit int64
	mapper            mmap.Mapper
	fileSystem        fs.FileSystem
	trimmer           fs.Trimmer
	metricsCollector  MetricsCollector
	logger            *Logger
}

// Option configures a Process.
//
// Options are read once by NewProcess and are immutable afterwards.
type Option func(*options)

// WithShare reuses one mapping per job name across the threads of the job.
//
// Every file of a sharing job must fit a single full mapping; requests that
// would need a window fail with KindSharedWindow.
//
// The registry key is the job name alone, not the file. All files of a
// sharing job resolve to the mapping created for the first one: a later file
// of the same job reads and writes the first file's bytes, and one longer
// than that mapping fails with KindMapFailed. Sharing jobs should therefore
// use a single file.
func WithShare(share bool) Option {
	return func(o *options) {
		o.share = share
	}
}

// WithReplicate requests NUMA replication of mapped pages.
func WithReplicate(replicate bool) Option {
	return func(o *options) {
		o.replicate = replicate
	}
}

// WithHugePages requests transparent huge pages. Any level above zero maps
// files privately and issues a huge page hint.
func WithHugePages(level int) Option {
	return func(o *options) {
		o.hugePages = level
	}
}

// WithGlobalBudget sets the bytes a job's windows may span in total.
// The per-file window is the budget divided by the job's file count.
func WithGlobalBudget(bytes int64) Option {
	return func(o *options) {
		o.globalBudget = bytes
	}
}

// WithRegistryCapacity sets the number of shared mapping slots.
func WithRegistryCapacity(capacity int) Option {
	return func(o *options) {
		o.registryCapacity = capacity
	}
}

// WithMappedMemoryLimit caps the bytes mapped at once by the process.
// A full mapping that would exceed the limit falls back to a window.
func WithMappedMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.mappedMemoryLimit = bytes
	}
}

// WithMapper replaces the mapping syscalls, e.g. with a test double.
func WithMapper(m mmap.Mapper) Option {
	return func(o *options) {
		if m == nil {
			m = mmap.Default
		}
		o.mapper = m
	}
}

// WithFileSystem replaces the file system used to open files.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fileSystem = fsys
	}
}

// WithTrimmer replaces the trim executor.
func WithTrimmer(t fs.Trimmer) Option {
	return func(o *options) {
		if t == nil {
			t = fs.DefaultTrimmer
		}
		o.trimmer = t
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &mmapio.BasicMetricsCollector{}
//	p := mmapio.NewProcess(mmapio.WithMetricsCollector(metrics))
//	// ... run jobs ...
//	stats := metrics.GetStats()
//	fmt.Printf("Remaps: %d, Avg latency: %dns\n", stats.RemapCount, stats.IOAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := mmapio.NewJSONLogger(slog.LevelDebug)
//	p := mmapio.NewProcess(mmapio.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		globalBudget:     resource.DefaultGlobalBudget,
		registryCapacity: registry.DefaultCapacity,
		mapper:           mmap.Default,
		fileSystem:       fs.Default,
		trimmer:          fs.DefaultTrimmer,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
