// Package mmap is the syscall layer of the mapped I/O engine.
//
// # Overview
//
// All mapping work goes through the [Mapper] interface so the window manager
// can be driven by a test double that counts calls and injects failures.
// [Default] is the platform implementation:
//
//   - Linux and the BSDs: mmap(2), munmap(2), madvise(2) and msync(2) via
//     golang.org/x/sys/unix
//   - Everything else: every call returns [ErrUnsupported]
//
// # Usage
//
//	data, err := mmap.Default.Map(mmap.Request{
//	    Fd:     int(f.Fd()),
//	    Offset: 0,
//	    Length: size,
//	    Prot:   mmap.ProtRead | mmap.ProtWrite,
//	    Type:   mmap.Shared,
//	})
//	if err != nil { ... }
//	defer mmap.Default.Unmap(data)
//
//	// Post-mapping advice (huge pages, access pattern, drop cache)
//	err = mmap.ApplyHints(mmap.Default, data, mmap.Hints{Fadvise: true, Random: true})
//
// # Replication
//
// [ProtReplicate] is an opaque bit understood by kernels carrying the NUMA
// page replication patch. It is passed through untouched; kernels without
// the patch reject the mapping with EINVAL.
package mmap
