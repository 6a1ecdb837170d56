package window

import (
	"errors"

	"github.com/hupe1980/mmapio/internal/mmap"
	"github.com/hupe1980/mmapio/internal/registry"
	"github.com/hupe1980/mmapio/internal/resource"
)

// Mode is the data direction of a job.
type Mode int

const (
	// ModeRead jobs only read.
	ModeRead Mode = iota
	// ModeWrite jobs only write.
	ModeWrite
	// ModeReadWrite jobs mix reads and writes.
	ModeReadWrite
)

func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return "write"
	case ModeReadWrite:
		return "readwrite"
	default:
		return "read"
	}
}

// Writes reports whether the mode issues writes.
func (m Mode) Writes() bool {
	return m == ModeWrite || m == ModeReadWrite
}

// Intent is the I/O intent protections are derived from.
type Intent struct {
	Mode       Mode
	Verify     bool
	VerifyOnly bool
}

// Protection derives the mapping protection from the intent.
//
// Read-write jobs map read-write, write-only jobs map write-only plus read
// when written data is verified, everything else maps read-only.
func Protection(in Intent) mmap.Prot {
	switch {
	case in.Mode == ModeReadWrite && !in.VerifyOnly:
		return mmap.ProtRead | mmap.ProtWrite
	case in.Mode == ModeWrite && !in.VerifyOnly:
		if in.Verify {
			return mmap.ProtWrite | mmap.ProtRead
		}
		return mmap.ProtWrite
	default:
		return mmap.ProtRead
	}
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// JobName keys shared mappings.
	JobName string
	Intent  Intent

	// Share routes mappings through Registry.
	Share bool
	// Replicate sets the NUMA replication bit on every mapping.
	Replicate bool
	// HugePages requests transparent huge pages and a private mapping.
	HugePages bool
	// Fadvise and Random select the access pattern hint.
	Fadvise bool
	Random  bool

	Mapper   mmap.Mapper
	Registry *registry.Registry
	Budget   *resource.Controller
}

// Mapping is the result of a mapping request.
type Mapping struct {
	Data []byte
	// Shared mappings are owned by the registry and never unmapped.
	Shared bool
	// Reused is set when an existing shared mapping was returned.
	Reused bool
}

// Executor performs map and unmap requests against files.
type Executor struct {
	cfg  ExecutorConfig
	prot mmap.Prot
	typ  mmap.MapType
}

// NewExecutor creates an executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Mapper == nil {
		cfg.Mapper = mmap.Default
	}
	if cfg.Share && cfg.Registry == nil {
		cfg.Registry = registry.New(registry.DefaultCapacity)
	}

	prot := Protection(cfg.Intent)
	if cfg.Replicate {
		prot |= mmap.ProtReplicate
	}

	typ := mmap.Shared
	if cfg.HugePages {
		typ = mmap.Private
	}

	return &Executor{cfg: cfg, prot: prot, typ: typ}
}

// Prot returns the protection passed to every mapping call.
func (x *Executor) Prot() mmap.Prot { return x.prot }

// Type returns the mapping type passed to every mapping call.
func (x *Executor) Type() mmap.MapType { return x.typ }

// Mapper returns the underlying mapper.
func (x *Executor) Mapper() mmap.Mapper { return x.cfg.Mapper }

// Map maps length bytes of fd starting at the page-aligned offset.
func (x *Executor) Map(fd int, offset int64, length int, blockDevice bool) (Mapping, error) {
	req := mmap.Request{
		Fd:     fd,
		Offset: offset,
		Length: length,
		Prot:   x.prot,
		Type:   x.typ,
	}
	hints := mmap.Hints{
		HugePages:   x.cfg.HugePages,
		Fadvise:     x.cfg.Fadvise,
		Random:      x.cfg.Random,
		BlockDevice: blockDevice,
	}

	if !x.cfg.Share {
		data, err := x.create(req, hints)
		if err != nil {
			return Mapping{}, err
		}
		return Mapping{Data: data}, nil
	}

	// Shared mappings are accounted once and never released.
	data, created, err := x.cfg.Registry.GetOrCreate(x.cfg.JobName,
		func() ([]byte, error) { return x.create(req, hints) },
		func(data []byte) { x.destroy(data) },
	)
	if err != nil {
		if errors.Is(err, registry.ErrExhausted) {
			return Mapping{}, newError("register", ErrRegistryExhausted, err)
		}
		var we *Error
		if errors.As(err, &we) {
			return Mapping{}, err
		}
		return Mapping{}, newError("mmap", ErrMapFailed, err)
	}
	if len(data) < length {
		return Mapping{}, newError("mmap", ErrMapFailed, ErrSharedSizeMismatch)
	}
	return Mapping{Data: data[:length:length], Shared: true, Reused: !created}, nil
}

// Unmap releases a mapping. Shared mappings are left in place.
func (x *Executor) Unmap(m Mapping) error {
	if m.Shared || len(m.Data) == 0 {
		return nil
	}
	if err := x.cfg.Mapper.Unmap(m.Data); err != nil {
		return newError("munmap", ErrMapFailed, err)
	}
	x.cfg.Budget.ReleaseMemory(int64(len(m.Data)))
	return nil
}

func (x *Executor) create(req mmap.Request, hints mmap.Hints) ([]byte, error) {
	if err := x.cfg.Budget.AcquireMemory(int64(req.Length)); err != nil {
		return nil, newError("mmap", ErrMapFailed, err)
	}

	data, err := x.cfg.Mapper.Map(req)
	if err != nil {
		x.cfg.Budget.ReleaseMemory(int64(req.Length))
		return nil, newError("mmap", ErrMapFailed, err)
	}

	if err := mmap.ApplyHints(x.cfg.Mapper, data, hints); err != nil {
		x.destroy(data)
		return nil, newError("madvise", ErrAdviseFailed, err)
	}
	return data, nil
}

func (x *Executor) destroy(data []byte) {
	_ = x.cfg.Mapper.Unmap(data)
	x.cfg.Budget.ReleaseMemory(int64(len(data)))
}
