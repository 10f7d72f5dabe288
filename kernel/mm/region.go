package mm

import "hypercore/kernel"

// RegionFlag describes an attribute of a memory region. The flag set is a
// closed enumeration; configurations carrying unknown bits are rejected.
type RegionFlag uint32

const (
	// RegionRead allows read access.
	RegionRead RegionFlag = 1 << iota

	// RegionWrite allows write access.
	RegionWrite

	// RegionExecute allows instruction fetches.
	RegionExecute

	// RegionDMA marks a region accessible to DMA-capable devices.
	RegionDMA

	// RegionIO marks a device MMIO region.
	RegionIO

	// RegionComm marks a shared communication region.
	RegionComm

	// RegionLoadable marks a region populated by the loader.
	RegionLoadable

	// RegionRootShared marks a region that remains shared with the root
	// partition when delegated.
	RegionRootShared

	// RegionSubpage marks a region that needs finer-than-page access
	// trapping. Such regions are registered with the sub-page MMIO
	// mechanism instead of being mapped directly.
	RegionSubpage

	regionFlagMask = RegionFlag(1<<iota) - 1
)

var (
	errRegionEmpty     = &kernel.Error{Module: "mm", Message: "memory region has zero size", Code: kernel.CodeInvalidParam}
	errRegionOverflow  = &kernel.Error{Module: "mm", Message: "memory region start + size overflows", Code: kernel.CodeInvalidParam}
	errRegionUnaligned = &kernel.Error{Module: "mm", Message: "memory region is not page-aligned", Code: kernel.CodeInvalidParam}
	errRegionBadFlags  = &kernel.Error{Module: "mm", Message: "memory region carries unknown flags", Code: kernel.CodeInvalidParam}
)

// MemRegion is the value object describing one static memory region of a
// partition configuration: where it lives physically, where it is mapped
// virtually and with which permissions.
type MemRegion struct {
	PhysStart PhysAddr
	VirtStart VirtAddr
	Size      uint64
	Flags     RegionFlag
}

// IsSubpage returns true if the region requires sub-page granularity
// trapping.
func (r MemRegion) IsSubpage() bool {
	return r.Flags&RegionSubpage != 0
}

// LastPhys returns the physical address of the last byte of the region.
// The region must have passed Validate.
func (r MemRegion) LastPhys() PhysAddr {
	return r.PhysStart + PhysAddr(r.Size-1)
}

// Pages returns the number of pages spanned by the region.
func (r MemRegion) Pages() uint64 {
	first := uint64(r.PhysStart) >> PageShift
	last := uint64(r.LastPhys()) >> PageShift
	return last - first + 1
}

// Validate checks the region invariants: a non-zero size that does not
// overflow past the end of the address space, page alignment for regions
// mapped through the page tables, and no flags outside the closed set.
// Sub-page regions are exempt from the alignment requirement; that is what
// makes them sub-page.
func (r MemRegion) Validate() *kernel.Error {
	if r.Size == 0 {
		return errRegionEmpty
	}

	if uint64(r.PhysStart)+r.Size-1 < uint64(r.PhysStart) ||
		uint64(r.VirtStart)+r.Size-1 < uint64(r.VirtStart) {
		return errRegionOverflow
	}

	if r.Flags&^regionFlagMask != 0 {
		return errRegionBadFlags
	}

	if !r.IsSubpage() {
		if !r.PhysStart.IsPageAligned() || !r.VirtStart.IsPageAligned() || r.Size&(PageSize-1) != 0 {
			return errRegionUnaligned
		}
	}

	return nil
}
