// Package boot implements the multi-CPU boot and initialization
// synchronization protocol: every online CPU enters the same routine, one
// CPU is elected master to perform the system-wide setup, each CPU performs
// its private setup, and all CPUs transition together into virtualized
// execution — or, on any recorded error, all roll back and return it.
package boot

import (
	"io"
	"sync/atomic"

	"hypercore/cell"
	"hypercore/config"
	"hypercore/kernel"
	"hypercore/kernel/mm"
	"hypercore/kernel/sync"
)

// Version is reported in the boot banner.
const Version = "0.4.0"

// invalidCPUID is the sentinel stored in the master slot until a CPU claims
// it.
const invalidCPUID = ^uint32(0)

// Virtual layout of the hypervisor address space. The three bases live in
// distinct top-level table slots: the hypervisor image slot is linked into
// every per-CPU hierarchy, while the per-CPU and temporary slots stay
// private to each CPU.
const (
	hypervisorBase = mm.VirtAddr(0xffffc00000000000)
	localCPUBase   = mm.VirtAddr(0xffffc08000000000)
	temporaryBase  = mm.VirtAddr(0xffffc10000000000)

	// numTemporaryPages is the size of the per-CPU scratch remapping
	// window.
	numTemporaryPages = 16
)

// defaultPoolPages is the page-table pool capacity used when the caller
// does not size it explicitly.
const defaultPoolPages = 1024

var (
	errNoArch           = &kernel.Error{Module: "boot", Message: "no architecture backend supplied", Code: kernel.CodeInvalidParam}
	errNoLocate         = &kernel.Error{Module: "boot", Message: "no configuration locator supplied", Code: kernel.CodeInvalidParam}
	errInvalidCPUID     = &kernel.Error{Module: "boot", Message: "invalid CPU identifier", Code: kernel.CodeInvalidParam}
	errCPUCountMismatch = &kernel.Error{Module: "boot", Message: "configured CPU set does not match the online CPU count", Code: kernel.CodeInvalidParam}
	errActivateReturned = &kernel.Error{Module: "boot", Message: "VMM activation returned", Code: kernel.CodeIO}

	// Channel codes map back to one of these when Entry reports a
	// failure another CPU raised.
	errChannelIO           = &kernel.Error{Module: "boot", Message: "boot failed: I/O error", Code: kernel.CodeIO}
	errChannelNoMemory     = &kernel.Error{Module: "boot", Message: "boot failed: out of resources", Code: kernel.CodeNoMemory}
	errChannelInvalidParam = &kernel.Error{Module: "boot", Message: "boot failed: invalid parameter", Code: kernel.CodeInvalidParam}
	errChannelRange        = &kernel.Error{Module: "boot", Message: "boot failed: value out of range", Code: kernel.CodeRange}
)

// Options carries the collaborators and tunables of a boot attempt.
type Options struct {
	// Arch is the architecture-specific backend.
	Arch Arch

	// Locate resolves the system configuration placed by the loader.
	Locate config.LocateFn

	// ConsoleSink, when non-nil, is installed as the kfmt output sink by
	// the master during early setup.
	ConsoleSink io.Writer

	// PoolPages overrides the page-table pool capacity when non-zero.
	PoolPages int
}

// State is the boot coordination state shared by all CPUs of one boot
// attempt. It is created once, before any CPU enters, and torn down only by
// a full shutdown; no protocol state hides in package globals.
type State struct {
	header      *config.Header
	arch        Arch
	locate      config.LocateFn
	consoleSink io.Writer
	poolPages   int

	initLock    sync.Spinlock
	entered     sync.Counter
	initialized sync.Counter
	masterCPUID uint32
	errCode     int32
	activate    uint32

	sysConfig      *config.SystemConfig
	rootCell       cell.Cell
	virtualConsole bool
	perCPU         []*PerCPU
}

// NewState validates the header and builds the coordination state for one
// boot attempt, pre-allocating a per-CPU record for every CPU the image was
// built for.
func NewState(header *config.Header, opts Options) (*State, *kernel.Error) {
	if err := header.Validate(); err != nil {
		return nil, err
	}
	if opts.Arch == nil {
		return nil, errNoArch
	}
	if opts.Locate == nil {
		return nil, errNoLocate
	}

	poolPages := opts.PoolPages
	if poolPages == 0 {
		poolPages = defaultPoolPages
	}

	s := &State{
		header:      header,
		arch:        opts.Arch,
		locate:      opts.Locate,
		consoleSink: opts.ConsoleSink,
		poolPages:   poolPages,
		masterCPUID: invalidCPUID,
		perCPU:      make([]*PerCPU, header.MaxCPUs),
	}
	for i := range s.perCPU {
		s.perCPU[i] = new(PerCPU)
	}

	return s, nil
}

// PerCPU returns the pre-allocated record for cpuID, or nil when cpuID lies
// outside the range the image was built for.
func (s *State) PerCPU(cpuID uint32) *PerCPU {
	if cpuID >= uint32(len(s.perCPU)) {
		return nil
	}
	return s.perCPU[cpuID]
}

// MasterCPUID returns the identifier of the elected master CPU, or the
// invalid sentinel before the election has happened.
func (s *State) MasterCPUID() uint32 {
	return atomic.LoadUint32(&s.masterCPUID)
}

// Activated returns true once the activation gate has been opened.
func (s *State) Activated() bool {
	return atomic.LoadUint32(&s.activate) != 0
}

// ErrorCode returns the current value of the global error channel: zero
// while the boot is healthy, the negative code of the most recent reported
// failure otherwise.
func (s *State) ErrorCode() int {
	return int(atomic.LoadInt32(&s.errCode))
}

// RootCell returns the root partition constructed by this boot attempt.
func (s *State) RootCell() *cell.Cell {
	return &s.rootCell
}

// reportError publishes err on the global error channel. The most recent
// non-nil report wins; CPUs failing concurrently race and the surviving code
// is whichever write lands last.
func (s *State) reportError(err *kernel.Error) {
	atomic.StoreInt32(&s.errCode, int32(kernel.Code(err)))
}

// failed returns true once any CPU has reported an error.
func (s *State) failed() bool {
	return atomic.LoadInt32(&s.errCode) != 0
}

// channelError maps an error-channel code back to the error Entry returns.
func channelError(code int) *kernel.Error {
	switch code {
	case kernel.CodeIO:
		return errChannelIO
	case kernel.CodeNoMemory:
		return errChannelNoMemory
	case kernel.CodeRange:
		return errChannelRange
	default:
		return errChannelInvalidParam
	}
}
