package boot

import (
	"sync/atomic"

	"hypercore/kernel"
	"hypercore/kernel/cpu"
	"hypercore/kernel/kfmt"
	"hypercore/kernel/mm/paging"
)

// Entry is the architecture-independent entry point, invoked exactly once on
// every online CPU with that CPU's identifier and pre-allocated record. On
// success it never returns: the CPU ends up executing in virtualized mode.
// On failure every CPU rolls back its own state and Entry returns the error
// reported on the global channel.
func (s *State) Entry(cpuID uint32, cpuData *PerCPU) *kernel.Error {
	var master bool

	cpuData.Public.CPUID = cpuID

	s.initLock.Acquire()

	// The increment fences first: if this CPU is the last one in, every
	// write it performed must be visible to the CPUs spinning on entered.
	s.entered.Inc()

	s.initLock.Release()

	s.entered.Wait(s.header.OnlineCPUs, nil)

	s.initLock.Acquire()

	if atomic.LoadUint32(&s.masterCPUID) == invalidCPUID {
		// Only the master CPU, the first to get here after the
		// rendezvous, performs the system-wide initializations.
		master = true
		s.initEarly(cpuID)
	}

	if !s.failed() {
		s.cpuInit(cpuData)
	}

	s.initLock.Release()

	s.initialized.Wait(s.header.OnlineCPUs, s.failed)

	if !s.failed() && master {
		s.initLate()
		if !s.failed() {
			// Publish everything late setup committed before the
			// other CPUs see the gate open.
			cpu.MemoryBarrier()
			atomic.StoreUint32(&s.activate, 1)
		}
	} else {
		for !s.failed() && atomic.LoadUint32(&s.activate) == 0 {
			cpu.Relax()
		}
	}

	if code := s.ErrorCode(); code != 0 {
		if master {
			s.arch.Shutdown()
		}

		// Roll back this CPU's address space, and the root cell's on
		// the master, returning their tables to the pool. The lock
		// serializes against a CPU still inside its private setup.
		s.initLock.Acquire()
		paging.Destroy(&cpuData.PgStructs)
		if master {
			paging.Destroy(&s.rootCell.PgStructs)
		}
		s.initLock.Release()

		s.arch.CPURestore(cpuID, code)
		return channelError(code)
	}

	if master {
		kfmt.Printf("Activating hypervisor\n")
	}

	// Point of no return.
	s.arch.CPUActivateVMM(cpuData)

	return errActivateReturned
}
