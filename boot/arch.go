package boot

import (
	"hypercore/cell"
	"hypercore/kernel"
	"hypercore/kernel/mm"
)

// Arch is the architecture-specific backend the protocol drives. The
// protocol owns the ordering and synchronization; the backend owns the
// hardware.
type Arch interface {
	// InitEarly runs the architecture hooks of the system-wide early
	// setup, on the master CPU only.
	InitEarly() *kernel.Error

	// CPUInit performs the architecture-specific part of one CPU's
	// private setup.
	CPUInit(cpu *PerCPU) *kernel.Error

	// MapMemoryRegion installs region into the cell's address space.
	MapMemoryRegion(c *cell.Cell, region mm.MemRegion) *kernel.Error

	// CPUActivateVMM switches the calling CPU into virtualized
	// execution. It does not return on success.
	CPUActivateVMM(cpu *PerCPU)

	// CPURestore rolls the calling CPU back to its pre-entry state after
	// a failed boot. code is the error-channel value being returned to
	// the host.
	CPURestore(cpuID uint32, code int)

	// Shutdown tears down the partially initialized system. Only the
	// master calls it, and only on the failure path.
	Shutdown()
}
