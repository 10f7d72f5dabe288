package mmio

import (
	"testing"

	"hypercore/cell"
	"hypercore/kernel/mm"
)

func TestSubpageRegister(t *testing.T) {
	var c cell.Cell

	region := mm.MemRegion{
		PhysStart: 0x1f80,
		VirtStart: 0x1f80,
		Size:      0x40,
		Flags:     mm.RegionRead | mm.RegionIO | mm.RegionSubpage,
	}

	if err := SubpageRegister(&c, region); err != nil {
		t.Fatal(err)
	}

	if exp, got := 1, SubpageCount(&c); exp != got {
		t.Fatalf("expected %d registered region(s); got %d", exp, got)
	}
}

func TestSubpageRegisterValidation(t *testing.T) {
	specs := []struct {
		descr  string
		region mm.MemRegion
	}{
		{
			"missing subpage flag",
			mm.MemRegion{PhysStart: 0x1000, VirtStart: 0x1000, Size: mm.PageSize, Flags: mm.RegionRead},
		},
		{
			"zero size",
			mm.MemRegion{PhysStart: 0x1f80, VirtStart: 0x1f80, Flags: mm.RegionRead | mm.RegionSubpage},
		},
		{
			"crosses page boundary",
			mm.MemRegion{PhysStart: 0x1f80, VirtStart: 0x1f80, Size: 0x100, Flags: mm.RegionRead | mm.RegionSubpage},
		},
	}

	for _, spec := range specs {
		var c cell.Cell
		if err := SubpageRegister(&c, spec.region); err == nil {
			t.Errorf("[%s] expected registration to fail", spec.descr)
		}
		if got := SubpageCount(&c); got != 0 {
			t.Errorf("[%s] expected no region to be recorded; got %d", spec.descr, got)
		}
	}
}
