package boot

import (
	"bytes"

	"hypercore/cell"
	"hypercore/kernel"
	"hypercore/kernel/kfmt"
	"hypercore/kernel/mm/paging"
	"hypercore/mmio"
	"hypercore/unit"
)

// initLate completes the system-wide setup once every CPU has finished its
// private setup. It runs on the master CPU only, after the initialized
// rendezvous, so no other CPU touches shared state concurrently.
func (s *State) initLate() {
	if expected := s.rootCell.Config.CPUSet.Count(); s.header.OnlineCPUs != expected {
		s.reportError(errCPUCountMismatch)
		return
	}

	var (
		sink      = kfmt.GetOutputSink()
		prefixBuf bytes.Buffer
	)
	err := unit.ForEach(func(u unit.Unit) *kernel.Error {
		kfmt.Printf("Initializing unit: %s\n", u.UnitName())

		prefixBuf.Reset()
		kfmt.Fprintf(&prefixBuf, "[%s] ", u.UnitName())
		w := kfmt.PrefixWriter{Sink: sink, Prefix: prefixBuf.Bytes()}

		return u.Init(&w)
	})
	if err != nil {
		s.reportError(err)
		return
	}

	for _, region := range s.rootCell.Config.MemRegions {
		var err *kernel.Error
		if region.IsSubpage() {
			err = mmio.SubpageRegister(&s.rootCell, region)
		} else {
			err = s.arch.MapMemoryRegion(&s.rootCell, region)
		}
		if err != nil {
			s.reportError(err)
			return
		}
	}

	if s.sysConfig.PageTableProtection() {
		rb := s.sysConfig.ROBuffer
		if err := paging.WriteProtect(paging.HVStructures(), rb.VirtStart, rb.Size); err != nil {
			s.reportError(err)
			return
		}
	}

	cell.Commit(&s.rootCell)

	paging.DumpStats("after late setup")
}
