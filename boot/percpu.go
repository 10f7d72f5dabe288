package boot

import (
	"hypercore/cell"
	"hypercore/kernel"
	"hypercore/kernel/kfmt"
	"hypercore/kernel/mm"
	"hypercore/kernel/mm/paging"
)

// PublicPerCPU is the part of a CPU's record that other subsystems may
// inspect: its identifier, owning cell and the physical address of its root
// page-table page.
type PublicPerCPU struct {
	CPUID         uint32
	Cell          *cell.Cell
	RootTablePage mm.PhysAddr
}

// PerCPU is the fixed record associated with one physical CPU for its
// entire lifetime. Records are pre-allocated for the maximum CPU count;
// during boot only the owning CPU mutates its record.
type PerCPU struct {
	Public PublicPerCPU

	// PgStructs is this CPU's private page-table view, linked into the
	// shared hypervisor address space.
	PgStructs paging.Structures

	// rootTable backs PgStructs.RootTable so per-CPU setup needs no
	// allocator.
	rootTable paging.Table
}

// cpuIDValid reports whether cpuID lies within the range the image was
// built for and the root cell's configured CPU set. It runs after the early
// setup has resolved the system configuration.
func (s *State) cpuIDValid(cpuID uint32) bool {
	return cpuID < s.header.MaxCPUs && s.rootCell.Config.CPUSet.Contains(cpuID)
}

// perCPUPhys returns the physical address of the given CPU's data region.
func (s *State) perCPUPhys(cpuID uint32) mm.PhysAddr {
	return s.sysConfig.HypervisorMemory.PhysStart +
		mm.PhysAddr(s.header.CoreSize+uint64(cpuID)*s.header.PerCPUSize)
}

// cpuInit performs one CPU's private setup. It runs under the init lock.
// A failing step prints the FAILED verdict, reports on the error channel
// and returns without touching the initialized counter.
func (s *State) cpuInit(cpuData *PerCPU) {
	cpuID := cpuData.Public.CPUID

	kfmt.Printf(" CPU %d... ", cpuID)

	if !s.cpuIDValid(cpuID) {
		s.cpuInitFailed(errInvalidCPUID)
		return
	}

	cpuData.Public.Cell = &s.rootCell
	cpuData.Public.RootTablePage = s.perCPUPhys(cpuID)

	// Set up the private page-table view aliasing the shared hypervisor
	// tables.
	cpuData.PgStructs.HVPaging = true
	cpuData.PgStructs.RootTable = &cpuData.rootTable

	if err := paging.CreateHvptLink(&cpuData.PgStructs, hypervisorBase); err != nil {
		s.cpuInitFailed(err)
		return
	}

	if s.sysConfig.PageTableProtection() {
		if err := paging.CreateHvptLink(&cpuData.PgStructs, s.sysConfig.ROBuffer.VirtStart); err != nil {
			s.cpuInitFailed(err)
			return
		}
	}

	if s.sysConfig.DebugConsole.IsMMIO() {
		if err := paging.CreateHvptLink(&cpuData.PgStructs, mm.VirtAddr(s.header.DebugConsoleBase)); err != nil {
			s.cpuInitFailed(err)
			return
		}
	}

	// Private mapping of this CPU's own data region.
	if err := paging.Create(&cpuData.PgStructs, s.perCPUPhys(cpuID), s.header.PerCPUSize,
		localCPUBase, paging.DefaultFlags, paging.NonCoherent|paging.Huge); err != nil {
		s.cpuInitFailed(err)
		return
	}

	if err := s.arch.CPUInit(cpuData); err != nil {
		s.cpuInitFailed(err)
		return
	}

	// Pre-allocate the tables covering the temporary mapping range so
	// that later remappings never need page-table pages on the hot path.
	if err := paging.Create(&cpuData.PgStructs, 0, numTemporaryPages*mm.PageSize,
		temporaryBase, paging.NonPresentFlags, paging.NonCoherent|paging.NoHuge); err != nil {
		s.cpuInitFailed(err)
		return
	}

	kfmt.Printf("OK\n")

	// If this CPU is last, the fenced increment makes everything it
	// committed visible to the CPUs spinning on initialized.
	s.initialized.Inc()
}

func (s *State) cpuInitFailed(err *kernel.Error) {
	kfmt.Printf("FAILED\n")
	s.reportError(err)
}
