package mmapio

import (
	"github.com/hupe1980/mmapio/internal/mmap"
	"github.com/hupe1980/mmapio/internal/registry"
	"github.com/hupe1980/mmapio/internal/resource"
	"github.com/hupe1980/mmapio/internal/window"
)

// Process is the process-wide mapped-I/O context.
//
// It owns the mapping options, the shared mapping registry and the mapping
// budget. The registry is populated while jobs start, read while they run,
// and never cleared: shared mappings live until the process exits.
type Process struct {
	opts     options
	registry *registry.Registry
	budget   *resource.Controller
}

// NewProcess creates a process context.
func NewProcess(optFns ...Option) *Process {
	o := applyOptions(optFns)
	return &Process{
		opts:     o,
		registry: registry.New(o.registryCapacity),
		budget: resource.NewController(resource.Config{
			GlobalBudget:     o.globalBudget,
			MemoryLimitBytes: o.mappedMemoryLimit,
		}),
	}
}

// NewEngine creates the engine of one worker thread of job cfg.
// Errors that stop a file are reported to sink; a nil sink discards them.
func (p *Process) NewEngine(cfg JobConfig, sink ErrorSink) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = discardSink{}
	}

	exec := window.NewExecutor(window.ExecutorConfig{
		JobName: cfg.Name,
		Intent: window.Intent{
			Mode:       cfg.Mode,
			Verify:     cfg.Verify,
			VerifyOnly: cfg.VerifyOnly,
		},
		Share:     p.opts.share,
		Replicate: p.opts.replicate,
		HugePages: p.opts.hugePages > 0,
		Fadvise:   cfg.Fadvise,
		Random:    cfg.Random,
		Mapper:    p.opts.mapper,
		Registry:  p.registry,
		Budget:    p.budget,
	})

	logger := p.opts.logger.WithJob(cfg.Name)
	e := &Engine{
		cfg:     cfg,
		proc:    p,
		sink:    sink,
		logger:  logger,
		metrics: p.opts.metricsCollector,
		files:   make(map[*File]struct{}),
	}
	e.mgr = window.NewManager(exec, p.WindowSize(cfg.NrFiles), engineObserver{e}, logger.Logger)
	return e, nil
}

// WindowSize returns the per-file window budget of a job with nrFiles files.
func (p *Process) WindowSize(nrFiles int) int64 {
	return p.budget.WindowSize(nrFiles)
}

// MappedBytes returns the bytes currently mapped by the process.
func (p *Process) MappedBytes() int64 {
	return p.budget.MemoryUsage()
}

// MappedMemoryLimit returns the hard limit on mapped bytes, 0 if unlimited.
func (p *Process) MappedMemoryLimit() int64 {
	return p.budget.MemoryLimit()
}

// SharedSlots returns the number of occupied and total registry slots.
func (p *Process) SharedSlots() (used, capacity int) {
	return p.registry.Len(), p.registry.Cap()
}

// SharedMappings returns the job names holding a shared mapping.
func (p *Process) SharedMappings() []string {
	entries := p.registry.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Mapper returns the mapper used for mapping syscalls.
func (p *Process) Mapper() mmap.Mapper {
	return p.opts.mapper
}
