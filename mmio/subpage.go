// Package mmio implements the sub-page access trapping registry. Regions
// needing finer-than-page granularity cannot be expressed in the page tables
// and are emulated through trap-and-decode instead; during boot they are
// only recorded here.
package mmio

import (
	"hypercore/cell"
	"hypercore/kernel"
	"hypercore/kernel/mm"
)

var (
	errNotSubpage    = &kernel.Error{Module: "mmio", Message: "region is not flagged for sub-page handling", Code: kernel.CodeInvalidParam}
	errSubpageBounds = &kernel.Error{Module: "mmio", Message: "sub-page region crosses a page boundary", Code: kernel.CodeInvalidParam}
)

// SubpageRegister validates region and records it on the cell's sub-page
// trap list. A sub-page region must stay within a single page; larger
// trapped windows are split by the configuration generator.
func SubpageRegister(c *cell.Cell, region mm.MemRegion) *kernel.Error {
	if !region.IsSubpage() {
		return errNotSubpage
	}

	if err := region.Validate(); err != nil {
		return err
	}

	if region.PhysStart.PageOffset()+region.Size > mm.PageSize ||
		region.VirtStart.PageOffset()+region.Size > mm.PageSize {
		return errSubpageBounds
	}

	c.AddSubpageRegion(region)

	return nil
}

// SubpageCount returns the number of sub-page regions registered on c.
func SubpageCount(c *cell.Cell) int {
	return len(c.SubpageRegions())
}
