// Package registry implements the shared mapping registry.
//
// A Registry is a fixed-capacity directory, keyed by job name, that lets the
// worker threads of one job reuse a single mapping instead of each creating
// their own. It is owned by the process-wide context and follows a simple
// lifecycle: populated during job startup, read for the job's duration,
// never cleared. There is no removal operation; a long-running process
// leaks one slot (and the mapping it references) per distinct job name.
//
// # Locking
//
// A single mutex guards the whole table. Matching, allocation and the creation
// callback passed to [Registry.GetOrCreate] all run under it, so at most one
// mapping is ever created per job name. Contention across unrelated jobs is
// accepted: operations are O(capacity) and happen once per file open, not
// per I/O. The lock protects the table only, never the mapped bytes.
package registry
