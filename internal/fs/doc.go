// Package fs provides the file collaborators of the mapped I/O engine.
//
// The package defines:
//
//   - [File]: an open file or block device exposing its descriptor for mapping
//   - [FileSystem]: opens and inspects files
//   - [Trimmer]: discards a byte range of a file
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [DefaultTrimmer]: hole punching for regular files, BLKDISCARD for block
//     devices (Linux only)
//   - [FaultyFS]: Test utility for fault injection (open, stat, close, trim)
//
// # Usage
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR, 0)
//	size, err := fs.Size(file)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("data", fs.Fault{FailOnTrim: true})
//
// # Design Notes
//
// This package intentionally does NOT include context.Context parameters.
// Every call is a single non-interruptible syscall.
package fs
