// Package resource implements the process-wide mapping budget.
//
// The Controller manages three things:
//
//   - Window budget: a fixed global budget (1 GiB by default) divided evenly
//     among a job's files to bound the sliding window size
//   - Mapped memory: tracks (and optionally limits) the bytes currently
//     mapped by all engines (non-blocking, fail-fast)
//   - IO: token bucket rate limit used by the benchmark harness
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                       Controller                            │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Window Budget  │  Mapped Memory  │  IO Rate Limiter        │
//	│  (immutable)    │  (fail-fast)    │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  WindowSize     │  AcquireMemory  │  AcquireIO              │
//	│  GlobalBudget   │  ReleaseMemory  │                         │
//	│                 │  MemoryUsage    │                         │
//	│                 │  MemoryLimit    │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Mapped Memory
//
// AcquireMemory is non-blocking and returns ErrMemoryLimitExceeded if the
// limit would be exceeded. A failed full-file mapping falls back to a
// windowed one, so hitting the limit degrades to smaller mappings instead of
// failing the job:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 2 << 30,
//	})
//
//	if err := rc.AcquireMemory(int64(len(data))); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(int64(len(data)))
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully: the default budget applies
// and memory and IO are unlimited.
package resource
