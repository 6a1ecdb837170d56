package mmapio

import (
	"github.com/hupe1980/mmapio/internal/mmap"
	"github.com/hupe1980/mmapio/internal/window"
)

// Mode is the data direction of a job.
type Mode = window.Mode

const (
	// ModeRead jobs only read.
	ModeRead = window.ModeRead
	// ModeWrite jobs only write.
	ModeWrite = window.ModeWrite
	// ModeReadWrite jobs mix reads and writes.
	ModeReadWrite = window.ModeReadWrite
)

// JobConfig describes one job. All threads of a job share its name.
type JobConfig struct {
	// Name keys shared mappings.
	Name string
	// NrFiles divides the global budget into per-file windows. 0 means 1.
	NrFiles int
	Mode    Mode
	// Verify reads back written data, so write-only jobs map read-write.
	Verify bool
	// VerifyOnly jobs only read back previously written data.
	VerifyOnly bool
	// Random selects the random access hint when Fadvise is set.
	Random  bool
	Fadvise bool
	// Direct flushes and drops touched pages after every read and write.
	Direct bool
	// MinBlockSize is the smallest request size of the job.
	MinBlockSize int64
	// FsyncBlocks and FdatasyncBlocks issue a sync every that many writes.
	FsyncBlocks     int
	FdatasyncBlocks int
}

func (c JobConfig) validate() error {
	if !c.Direct && c.FsyncBlocks <= 0 && c.FdatasyncBlocks <= 0 {
		return nil
	}
	if c.MinBlockSize%int64(mmap.PageSize()) != 0 {
		return ErrBlockSizeAlignment
	}
	return nil
}

// SyncEvery returns the number of writes between syncs, 0 for none, and
// the sync operation to issue.
func (c JobConfig) SyncEvery() (int, Op) {
	if c.FsyncBlocks > 0 {
		return c.FsyncBlocks, OpSync
	}
	if c.FdatasyncBlocks > 0 {
		return c.FdatasyncBlocks, OpDataSync
	}
	return 0, OpSync
}
