// Package testutil provides testing utilities for mmapio.
//
// This package is intended for use in tests and benchmarks. It provides
// data patterns and an in-memory [Mapper] that counts mapping calls and
// injects failures.
//
// # Patterns
//
//	buf := testutil.Pattern(4096)   // bytes 0, 1, 2, ... 255, 0, 1, ...
//
// # Counting Mapper
//
//	m := testutil.NewMapper()
//	m.SetFile(fd, make([]byte, size)) // mappings of fd alias this buffer
//	// ... drive the engine ...
//	m.MapCalls()   // number of Map calls
//	m.Requests()   // every mmap.Request, in order
package testutil
