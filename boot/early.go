package boot

import (
	"sync/atomic"

	"hypercore/cell"
	"hypercore/gcov"
	"hypercore/kernel/kfmt"
	"hypercore/kernel/mm"
	"hypercore/kernel/mm/paging"
)

// initEarly performs the one-time system-wide setup. It runs on the master
// CPU only, while the init lock is held, so nothing here needs further
// locking. Each failing step reports on the error channel and returns,
// skipping the rest.
func (s *State) initEarly(cpuID uint32) {
	atomic.StoreUint32(&s.masterCPUID, cpuID)

	// The loader places the system configuration directly past the core
	// image and the per-CPU data regions.
	coreAndPerCPUSize := s.header.CoreSize + uint64(s.header.MaxCPUs)*s.header.PerCPUSize

	sysConfig, err := s.locate(coreAndPerCPUSize)
	if err != nil {
		s.reportError(err)
		return
	}
	s.sysConfig = sysConfig
	s.virtualConsole = sysConfig.VirtualConsole()

	if s.consoleSink != nil {
		kfmt.SetOutputSink(s.consoleSink)
	}

	kfmt.Printf("\nInitializing hypervisor %s on CPU %d\n", Version, cpuID)
	kfmt.Printf("Code location: 0x%x\n", uint64(hypervisorBase)+s.header.EntryOffset)

	gcov.Init()

	if err := paging.Init(s.poolPages, sysConfig.HypervisorMemory, hypervisorBase); err != nil {
		s.reportError(err)
		return
	}

	if sysConfig.PageTableProtection() {
		// The read-only buffer must exist in the shared tables before
		// the per-CPU structures can link it.
		rb := sysConfig.ROBuffer
		if err := paging.Create(paging.HVStructures(), rb.PhysStart, rb.Size, rb.VirtStart,
			paging.DefaultFlags, paging.NonCoherent); err != nil {
			s.reportError(err)
			return
		}
	}

	s.rootCell.Config = &sysConfig.RootCell
	if err := cell.Init(&s.rootCell); err != nil {
		s.reportError(err)
		return
	}

	if err := s.arch.InitEarly(); err != nil {
		s.reportError(err)
		return
	}

	// Back the hypervisor image and per-CPU data region with the shared
	// empty page so the host can fault the region into its own tables
	// during a later teardown without access violations. Only the page
	// backing the console is mapped for real, read-only, and only when
	// the virtual console capability is enabled.
	hvPhysStart := sysConfig.HypervisorMemory.PhysStart
	hvPhysEnd := hvPhysStart + mm.PhysAddr(sysConfig.HypervisorMemory.Size)
	consolePage := paging.Hvirt2Phys(hypervisorBase + mm.VirtAddr(s.header.ConsolePageOffset))

	hvPage := mm.MemRegion{Size: mm.PageSize, Flags: mm.RegionRead}
	for virt := hvPhysStart; virt < hvPhysEnd; virt += mm.PhysAddr(mm.PageSize) {
		hvPage.VirtStart = mm.VirtAddr(virt)
		if s.virtualConsole && virt == consolePage {
			hvPage.PhysStart = consolePage
		} else {
			hvPage.PhysStart = paging.EmptyPage().Address()
		}
		if err := s.arch.MapMemoryRegion(&s.rootCell, hvPage); err != nil {
			s.reportError(err)
			return
		}
	}

	paging.DumpStats("after early setup")
	kfmt.Printf("Initializing processors:\n")
}
