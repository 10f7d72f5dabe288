// Package paging implements the page-table backend used while constructing
// the hypervisor and root-partition address spaces. Tables are organized as
// a 4-level hierarchy; intermediate tables are allocated from a fixed-size
// page pool so that mapping failures surface as resource errors instead of
// silent misbehavior.
package paging

import (
	"hypercore/kernel"
	"hypercore/kernel/kfmt"
	"hypercore/kernel/mm"
)

const (
	pageLevels      = 4
	entriesPerTable = 512

	// hugePageSize is the mapping granularity of a level-3 leaf entry.
	hugePageSize = uint64(entriesPerTable) * mm.PageSize
)

// EntryFlag describes the access attributes of a page-table entry.
type EntryFlag uint32

const (
	// EntryPresent marks an entry as backed by a physical frame.
	EntryPresent EntryFlag = 1 << iota

	// EntryWrite allows write access through the entry.
	EntryWrite

	// EntryExecute allows instruction fetches through the entry.
	EntryExecute
)

// Commonly used flag combinations.
const (
	// DefaultFlags is the attribute set used for regular hypervisor
	// mappings.
	DefaultFlags = EntryPresent | EntryWrite | EntryExecute

	// ReadOnlyFlags maps a page with read access only.
	ReadOnlyFlags = EntryPresent

	// NonPresentFlags pre-allocates the intermediate tables covering a
	// range without making any page accessible. A later Create over the
	// same range is then guaranteed not to touch the page pool.
	NonPresentFlags = EntryFlag(0)
)

// CreateMode carries the per-call mapping options of Create.
type CreateMode uint32

const (
	// NonCoherent skips the coherency flush after updating entries; the
	// caller guarantees the tables are not live on any CPU yet.
	NonCoherent CreateMode = 1 << iota

	// Huge allows Create to use large-page leaf entries where address
	// alignment and size permit.
	Huge

	// NoHuge forces 4K leaf entries even when a large page would fit.
	NoHuge
)

var (
	// ErrInvalidMapping is returned when a lookup walks into a hole.
	ErrInvalidMapping = &kernel.Error{Module: "paging", Message: "virtual address is not mapped", Code: kernel.CodeInvalidParam}

	errPoolExhausted = &kernel.Error{Module: "paging", Message: "page-table page pool exhausted", Code: kernel.CodeNoMemory}
	errUnaligned     = &kernel.Error{Module: "paging", Message: "mapping addresses must be page-aligned", Code: kernel.CodeInvalidParam}
	errHugeRemap     = &kernel.Error{Module: "paging", Message: "attempt to remap inside a large-page mapping", Code: kernel.CodeInvalidParam}
	errNoHvMapping   = &kernel.Error{Module: "paging", Message: "hypervisor tables carry no mapping for the linked address", Code: kernel.CodeInvalidParam}
	errNotInit       = &kernel.Error{Module: "paging", Message: "paging subsystem is not initialized", Code: kernel.CodeInvalidParam}
)

// entry is one slot of a Table. Interior entries point to the next-level
// table; leaf entries carry a frame and its access flags.
type entry struct {
	flags EntryFlag
	huge  bool
	frame mm.Frame
	next  *Table
}

// Table is one page-table page: a fixed array of entries.
type Table struct {
	entries [entriesPerTable]entry
}

// Structures identifies one address space: the root of its page-table
// hierarchy and whether that root links back into the hypervisor's shared
// tables rather than owning a private copy of every level.
type Structures struct {
	HVPaging  bool
	RootTable *Table
}

// pool hands out page-table pages up to a fixed capacity. The pool region
// starts right past the hypervisor memory reservation.
type pool struct {
	capacity  int
	used      int
	baseFrame mm.Frame
}

func (p *pool) allocTable() (*Table, *kernel.Error) {
	if p.used >= p.capacity {
		return nil, errPoolExhausted
	}
	p.used++
	return new(Table), nil
}

var (
	pagePool    pool
	hvStructs   Structures
	emptyFrame  mm.Frame
	initialized bool

	// hvPhysBase/hvVirtBase anchor the linear translation between the
	// hypervisor's physical load address and its virtual mapping.
	hvPhysBase mm.PhysAddr
	hvVirtBase mm.VirtAddr
)

// Init sets up the hypervisor's own address space: it resets the page pool
// to poolPages pages, builds the shared root structures, maps the hypervisor
// memory region at virtBase and reserves the shared zeroed frame that backs
// the image for the host. Init is called exactly once per boot attempt, by
// the master CPU.
func Init(poolPages int, hvMem mm.MemRegion, virtBase mm.VirtAddr) *kernel.Error {
	if err := hvMem.Validate(); err != nil {
		return err
	}

	pagePool = pool{
		capacity:  poolPages,
		baseFrame: (hvMem.PhysStart + mm.PhysAddr(hvMem.Size)).Frame(),
	}
	initialized = false

	root, err := pagePool.allocTable()
	if err != nil {
		return err
	}
	hvStructs = Structures{HVPaging: true, RootTable: root}

	// The shared empty frame sits at the start of the pool region.
	emptyFrame = pagePool.baseFrame

	hvPhysBase = hvMem.PhysStart
	hvVirtBase = virtBase

	initialized = true

	return Create(&hvStructs, hvMem.PhysStart, hvMem.Size, virtBase, DefaultFlags, NonCoherent)
}

// HVStructures returns the hypervisor's own paging structures.
func HVStructures() *Structures {
	return &hvStructs
}

// EmptyPage returns the frame of the shared zeroed page.
func EmptyPage() mm.Frame {
	return emptyFrame
}

// UsedPoolPages returns the number of page-table pages handed out so far.
func UsedPoolPages() int {
	return pagePool.used
}

// NewStructures allocates the root table for a new address space.
func NewStructures() (Structures, *kernel.Error) {
	if !initialized {
		return Structures{}, errNotInit
	}

	root, err := pagePool.allocTable()
	if err != nil {
		return Structures{}, err
	}
	return Structures{RootTable: root}, nil
}

// Hvirt2Phys converts an address inside the hypervisor's linear mapping to
// its physical counterpart.
func Hvirt2Phys(virt mm.VirtAddr) mm.PhysAddr {
	return hvPhysBase + mm.PhysAddr(virt-hvVirtBase)
}

// Phys2Hvirt converts a physical address inside the hypervisor memory
// region to its address in the linear mapping.
func Phys2Hvirt(phys mm.PhysAddr) mm.VirtAddr {
	return hvVirtBase + mm.VirtAddr(phys-hvPhysBase)
}

// Destroy tears down an address space and returns its page-table pages to
// the pool. Slots aliasing the hypervisor's shared tables are unlinked, not
// freed; the shared tables stay owned by the hypervisor structures. Roots
// not allocated from the pool (the per-CPU structures) are only cleared.
func Destroy(pg *Structures) {
	if pg.RootTable == nil {
		return
	}

	var hvRoot *Table
	if pg != &hvStructs {
		hvRoot = hvStructs.RootTable
	}

	for idx := range pg.RootTable.entries {
		e := &pg.RootTable.entries[idx]
		if e.next != nil && (hvRoot == nil || hvRoot.entries[idx].next != e.next) {
			destroyTable(e.next, 1)
		}
		*e = entry{}
	}

	if !pg.HVPaging {
		pagePool.used--
	}
	pg.RootTable = nil
}

func destroyTable(t *Table, level int) {
	if level < pageLevels-1 {
		for idx := range t.entries {
			if next := t.entries[idx].next; next != nil {
				destroyTable(next, level+1)
			}
		}
	}
	pagePool.used--
}

// levelIndex returns the table slot covering virt at the given level, with
// level 0 being the root.
func levelIndex(virt mm.VirtAddr, level int) int {
	shift := uint(mm.PageShift) + uint(9*(pageLevels-1-level))
	return int(uint64(virt)>>shift) & (entriesPerTable - 1)
}

// walkTo descends the hierarchy from the root to targetLevel, allocating
// missing intermediate tables from the pool, and returns the entry covering
// virt at that level.
func walkTo(pg *Structures, virt mm.VirtAddr, targetLevel int) (*entry, *kernel.Error) {
	table := pg.RootTable
	for level := 0; ; level++ {
		e := &table.entries[levelIndex(virt, level)]
		if level == targetLevel {
			return e, nil
		}

		if e.huge {
			return nil, errHugeRemap
		}

		if e.next == nil {
			next, err := pagePool.allocTable()
			if err != nil {
				return nil, err
			}
			e.next = next
		}
		table = e.next
	}
}

// Create maps the physical range [phys, phys+size) at virt into the address
// space identified by pg. The size is rounded up to the next page boundary.
// With NonPresentFlags only the intermediate tables are allocated, making a
// later Create over the same range allocation-free.
func Create(pg *Structures, phys mm.PhysAddr, size uint64, virt mm.VirtAddr, flags EntryFlag, mode CreateMode) *kernel.Error {
	if !initialized {
		return errNotInit
	}

	if !phys.IsPageAligned() || !virt.IsPageAligned() {
		return errUnaligned
	}

	size = (size + mm.PageSize - 1) &^ (mm.PageSize - 1)

	for size > 0 {
		if mode&Huge != 0 && mode&NoHuge == 0 && size >= hugePageSize &&
			uint64(virt)%hugePageSize == 0 && uint64(phys)%hugePageSize == 0 {
			e, err := walkTo(pg, virt, pageLevels-2)
			if err != nil {
				return err
			}
			if e.next != nil {
				return errHugeRemap
			}
			*e = entry{flags: flags, huge: true, frame: phys.Frame()}

			phys += mm.PhysAddr(hugePageSize)
			virt += mm.VirtAddr(hugePageSize)
			size -= hugePageSize
			continue
		}

		e, err := walkTo(pg, virt, pageLevels-1)
		if err != nil {
			return err
		}
		if flags&EntryPresent != 0 {
			*e = entry{flags: flags, frame: phys.Frame()}
		}

		phys += mm.PhysAddr(mm.PageSize)
		virt += mm.VirtAddr(mm.PageSize)
		size -= mm.PageSize
	}

	return nil
}

// CreateHvptLink aliases the hypervisor's shared tables into pg for the
// top-level region covering virt. The per-CPU structures use this to see the
// hypervisor image without duplicating its tables.
func CreateHvptLink(pg *Structures, virt mm.VirtAddr) *kernel.Error {
	if !initialized {
		return errNotInit
	}

	idx := levelIndex(virt, 0)
	src := &hvStructs.RootTable.entries[idx]
	if src.next == nil && src.flags&EntryPresent == 0 {
		return errNoHvMapping
	}

	pg.RootTable.entries[idx] = *src

	return nil
}

// Translate walks pg and returns the physical address and flags that virt
// maps to, or ErrInvalidMapping when it walks into a hole.
func Translate(pg *Structures, virt mm.VirtAddr) (mm.PhysAddr, EntryFlag, *kernel.Error) {
	table := pg.RootTable
	for level := 0; ; level++ {
		e := &table.entries[levelIndex(virt, level)]

		if e.huge {
			base := e.frame.Address()
			return base + mm.PhysAddr(uint64(virt)%hugePageSize), e.flags, nil
		}

		if level == pageLevels-1 {
			if e.flags&EntryPresent == 0 {
				return 0, 0, ErrInvalidMapping
			}
			return e.frame.Address() + mm.PhysAddr(virt.PageOffset()), e.flags, nil
		}

		if e.next == nil {
			return 0, 0, ErrInvalidMapping
		}
		table = e.next
	}
}

// WriteProtect clears the write permission on every mapping in the range
// [virt, virt+size). The range must be fully mapped.
func WriteProtect(pg *Structures, virt mm.VirtAddr, size uint64) *kernel.Error {
	size = (size + mm.PageSize - 1) &^ (mm.PageSize - 1)

	for size > 0 {
		table := pg.RootTable
		step := mm.PageSize
		var leaf *entry

		for level := 0; ; level++ {
			e := &table.entries[levelIndex(virt, level)]
			if e.huge {
				leaf = e
				step = hugePageSize - uint64(virt)%hugePageSize
				break
			}
			if level == pageLevels-1 {
				leaf = e
				break
			}
			if e.next == nil {
				return ErrInvalidMapping
			}
			table = e.next
		}

		if leaf.flags&EntryPresent == 0 {
			return ErrInvalidMapping
		}
		leaf.flags &^= EntryWrite

		virt += mm.VirtAddr(step)
		if step >= size {
			break
		}
		size -= step
	}

	return nil
}

// DumpStats prints the current page pool usage tagged with label.
func DumpStats(label string) {
	kfmt.Printf("paging: %d/%d page-table pages in use (%s)\n",
		pagePool.used, pagePool.capacity, label)
}
