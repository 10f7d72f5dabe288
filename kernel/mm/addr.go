// Package mm defines the address and memory-region value types shared by the
// paging backend and the boot protocol. Physical and virtual addresses are
// distinct types so the two can never be conflated by accident.
package mm

const (
	// PageShift is equal to log2(PageSize). It converts between addresses
	// and page/frame numbers.
	PageShift = 12

	// PageSize is the system page size in bytes.
	PageSize = uint64(1) << PageShift
)

// PhysAddr is a physical memory address.
type PhysAddr uint64

// VirtAddr is a virtual memory address.
type VirtAddr uint64

// Frame describes a physical memory page index.
type Frame uint64

// Page describes a virtual memory page index.
type Page uint64

// Frame returns the frame that contains this address. Addresses that are not
// page-aligned are rounded down to the frame that contains them.
func (a PhysAddr) Frame() Frame {
	return Frame(uint64(a) >> PageShift)
}

// PageOffset returns the offset of this address within its page.
func (a PhysAddr) PageOffset() uint64 {
	return uint64(a) & (PageSize - 1)
}

// IsPageAligned returns true if this address is page-aligned.
func (a PhysAddr) IsPageAligned() bool {
	return a.PageOffset() == 0
}

// Page returns the page that contains this address. Addresses that are not
// page-aligned are rounded down to the page that contains them.
func (a VirtAddr) Page() Page {
	return Page(uint64(a) >> PageShift)
}

// PageOffset returns the offset of this address within its page.
func (a VirtAddr) PageOffset() uint64 {
	return uint64(a) & (PageSize - 1)
}

// IsPageAligned returns true if this address is page-aligned.
func (a VirtAddr) IsPageAligned() bool {
	return a.PageOffset() == 0
}

// Address returns the physical address of the first byte of this frame.
func (f Frame) Address() PhysAddr {
	return PhysAddr(uint64(f) << PageShift)
}

// Address returns the virtual address of the first byte of this page.
func (p Page) Address() VirtAddr {
	return VirtAddr(uint64(p) << PageShift)
}
