package window

import "github.com/hupe1980/mmapio/internal/mmap"

// State is the mapping state of a file.
type State int

const (
	// Unmapped files have no mapping.
	Unmapped State = iota
	// FullyMapped files are mapped in one piece.
	FullyMapped
	// WindowMapped files have a bounded sliding window mapped.
	WindowMapped
)

func (s State) String() string {
	switch s {
	case FullyMapped:
		return "full"
	case WindowMapped:
		return "window"
	default:
		return "unmapped"
	}
}

// Window is the currently mapped byte range of a file.
type Window struct {
	Data []byte
	// Offset is relative to the file's base offset and may be negative
	// when the base offset is not page aligned.
	Offset int64
	Length int64
	Shared bool
}

// Mapped reports whether the window holds a mapping.
func (w Window) Mapped() bool {
	return w.Data != nil
}

// Covers reports whether [off, off+length) lies inside the window.
// off is relative to the file's base offset.
func (w Window) Covers(off, length int64) bool {
	return w.Mapped() && length >= 0 && off >= w.Offset && off-w.Offset <= w.Length-length
}

// Slice returns the mapped bytes for [off, off+length). The request must be covered.
func (w Window) Slice(off, length int64) []byte {
	i := off - w.Offset
	return w.Data[i : i+length : i+length]
}

// PageRange returns the mapped bytes for [off, off+length) widened to page
// boundaries and clipped to the window. The request must be covered.
func (w Window) PageRange(off, length int64) []byte {
	ps := int64(mmap.PageSize())
	start := off - w.Offset
	end := start + length
	start -= start % ps
	if r := end % ps; r != 0 {
		end += ps - r
	}
	end = min(end, int64(len(w.Data)))
	return w.Data[start:end:end]
}

func (w Window) mapping() Mapping {
	return Mapping{Data: w.Data, Shared: w.Shared}
}

// File is the mapping metadata of one open file. It is owned by the thread
// driving the file; the mapped bytes may be shared, the metadata never is.
type File struct {
	Name        string
	Fd          int
	BaseOffset  int64
	IOSize      int64
	BlockDevice bool

	window      Window
	state       State
	partialOnly bool
	stats       Stats
}

// Stats counts mapping activity of a file.
type Stats struct {
	Maps    int
	Unmaps  int
	Remaps  int
	Reused  int
	Failed  int
	Partial bool
}

// Window returns the current window.
func (f *File) Window() Window { return f.window }

// State returns the current mapping state.
func (f *File) State() State { return f.state }

// PartialOnly reports whether full mappings are skipped for this file.
func (f *File) PartialOnly() bool { return f.partialOnly }

// Stats returns the mapping counters.
func (f *File) Stats() Stats {
	s := f.stats
	s.Partial = f.partialOnly
	return s
}
