package cell

import (
	"testing"

	"hypercore/config"
	"hypercore/kernel/mm"
	"hypercore/kernel/mm/paging"
)

func initPaging(t *testing.T) {
	t.Helper()
	hvMem := mm.MemRegion{PhysStart: 0x100000, VirtStart: 0x100000, Size: 2 * mm.PageSize, Flags: mm.RegionRead | mm.RegionWrite}
	if err := paging.Init(16, hvMem, mm.VirtAddr(0xffffc00000000000)); err != nil {
		t.Fatal(err)
	}
}

func TestInit(t *testing.T) {
	initPaging(t)

	c := Cell{Config: &config.CellConfig{
		Name:   "root",
		CPUSet: config.NewCPUSet(0, 1),
		MemRegions: []mm.MemRegion{
			{PhysStart: 0x1000, VirtStart: 0x1000, Size: mm.PageSize, Flags: mm.RegionRead},
		},
	}}

	if err := Init(&c); err != nil {
		t.Fatal(err)
	}

	if c.PgStructs.RootTable == nil {
		t.Fatal("expected Init to allocate the cell root table")
	}

	if c.Committed() {
		t.Fatal("expected fresh cell not to be committed")
	}

	Commit(&c)
	if !c.Committed() {
		t.Fatal("expected cell to be committed")
	}
}

func TestInitValidation(t *testing.T) {
	initPaging(t)

	specs := []struct {
		descr string
		cell  Cell
	}{
		{"nil config", Cell{}},
		{"empty cpu set", Cell{Config: &config.CellConfig{Name: "root"}}},
		{
			"invalid region",
			Cell{Config: &config.CellConfig{
				Name:       "root",
				CPUSet:     config.NewCPUSet(0),
				MemRegions: []mm.MemRegion{{PhysStart: 0x1080, VirtStart: 0x1000, Size: mm.PageSize, Flags: mm.RegionRead}},
			}},
		},
	}

	for _, spec := range specs {
		if err := Init(&spec.cell); err == nil {
			t.Errorf("[%s] expected Init to fail", spec.descr)
		}
	}
}
