package fs

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Fault defines specific failure behavior.
type Fault struct {
	FailOnOpen  bool
	FailOnStat  bool
	FailOnClose bool
	FailOnTrim  bool
	Err         error
}

// FaultyFS is a FileSystem and Trimmer wrapper that can inject errors.
type FaultyFS struct {
	FS      FileSystem
	Trimmer Trimmer
	mu      sync.Mutex
	rules   map[string]Fault // Filename pattern -> Fault
	Default Fault            // Fallback
	trims   int
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:      fs,
		Trimmer: DefaultTrimmer,
		rules:   make(map[string]Fault),
	}
}

// AddRule adds a fault injection rule for a specific file pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// Trims returns the number of trim calls that reached the wrapped Trimmer.
func (f *FaultyFS) Trims() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trims
}

func (f *FaultyFS) faultFor(name string) Fault {
	f.mu.Lock()
	defer f.mu.Unlock()
	fault := f.Default
	// Match pattern (last winning match)
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			fault = rule
		}
	}
	return fault
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	fault := f.faultFor(name)
	if fault.FailOnOpen {
		return nil, fault.err("open")
	}
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fault: fault}, nil
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	if fault := f.faultFor(name); fault.FailOnStat {
		return nil, fault.err("stat")
	}
	return f.FS.Stat(name)
}

func (f *FaultyFS) Truncate(name string, size int64) error {
	return f.FS.Truncate(name, size)
}

func (f *FaultyFS) Remove(name string) error {
	return f.FS.Remove(name)
}

// Trim implements Trimmer.
func (f *FaultyFS) Trim(file File, offset, length int64) error {
	fault := f.faultFor(file.Name())
	if ff, ok := file.(*faultyFile); ok {
		fault = ff.fault
		file = ff.File
	}
	if fault.FailOnTrim {
		return fault.err("trim")
	}
	f.mu.Lock()
	f.trims++
	f.mu.Unlock()
	return f.Trimmer.Trim(file, offset, length)
}

func (ft Fault) err(op string) error {
	if ft.Err != nil {
		return ft.Err
	}
	return fmt.Errorf("injected %s error", op)
}

type faultyFile struct {
	File
	fault Fault
}

func (ff *faultyFile) Stat() (os.FileInfo, error) {
	if ff.fault.FailOnStat {
		return nil, ff.fault.err("stat")
	}
	return ff.File.Stat()
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		ff.File.Close()
		return ff.fault.err("close")
	}
	return ff.File.Close()
}
