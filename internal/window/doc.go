// Package window implements the per-file mapping window manager and the
// mapping request executor.
//
// # States
//
// Every open file is in one of three states:
//
//	            first request, file fits the budget
//	Unmapped ──────────────────────────────────────▶ FullyMapped
//	    │
//	    │ file too large, or full mapping failed
//	    ▼
//	WindowMapped ──┐ request outside the window:
//	    ▲          │ unmap, then map a new window at the request offset
//	    └──────────┘
//
// A failed full mapping marks the file partial-only and falls back to a
// window transparently; later requests never retry the full mapping.
//
// # Offsets
//
// Request offsets are absolute file offsets. Window offsets are relative to
// the file's base offset and always start on a page boundary in the file, so
// the address of a covered request is
//
//	window.Data[offset - base - window.Offset:]
//
// # Sharing
//
// With sharing enabled the executor routes mappings through the shared
// registry. Shared mappings are never unmapped, so a shared file must fit a
// single full mapping: windowing or remapping it fails with ErrSharedWindow.
package window
