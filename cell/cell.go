// Package cell models a partition: the unit of resource ownership. During
// boot exactly one instance exists, the root cell, which owns every resource
// that has not been delegated elsewhere.
package cell

import (
	"hypercore/config"
	"hypercore/kernel"
	"hypercore/kernel/mm"
	"hypercore/kernel/mm/paging"
)

var (
	errNilConfig = &kernel.Error{Module: "cell", Message: "cell has no configuration", Code: kernel.CodeInvalidParam}
	errNoCPUs    = &kernel.Error{Module: "cell", Message: "cell configuration contains no CPUs", Code: kernel.CodeInvalidParam}
)

// Cell holds the runtime state of one partition. The configuration is
// written only during the global initialization phases; after Commit it is
// the authoritative, queryable description of the partition.
type Cell struct {
	Config *config.CellConfig

	// PgStructs is the address space being constructed for the cell.
	PgStructs paging.Structures

	subpages  []mm.MemRegion
	committed bool
}

// Init validates the cell configuration and creates the root of the cell's
// address space. It must run after the paging subsystem is initialized.
func Init(c *Cell) *kernel.Error {
	if c.Config == nil {
		return errNilConfig
	}

	if c.Config.CPUSet.Count() == 0 {
		return errNoCPUs
	}

	for _, region := range c.Config.MemRegions {
		if err := region.Validate(); err != nil {
			return err
		}
	}

	pg, err := paging.NewStructures()
	if err != nil {
		return err
	}
	c.PgStructs = pg

	return nil
}

// Commit freezes the cell configuration. From this point on the cell
// describes the authoritative state of the partition.
func Commit(c *Cell) {
	c.committed = true
}

// Committed returns true once the cell configuration has been committed.
func (c *Cell) Committed() bool {
	return c.committed
}

// AddSubpageRegion records a region handled by the sub-page MMIO mechanism
// rather than the page tables. Callers validate the region beforehand.
func (c *Cell) AddSubpageRegion(region mm.MemRegion) {
	c.subpages = append(c.subpages, region)
}

// SubpageRegions returns the regions registered for sub-page trapping.
func (c *Cell) SubpageRegions() []mm.MemRegion {
	return c.subpages
}
