package mm

import "testing"

func TestPhysAddrConversions(t *testing.T) {
	addr := PhysAddr(0x3042)

	if exp, got := Frame(3), addr.Frame(); exp != got {
		t.Errorf("expected frame %d; got %d", exp, got)
	}

	if exp, got := uint64(0x42), addr.PageOffset(); exp != got {
		t.Errorf("expected page offset 0x%x; got 0x%x", exp, got)
	}

	if addr.IsPageAligned() {
		t.Error("expected 0x3042 not to be page-aligned")
	}

	if exp, got := PhysAddr(0x3000), addr.Frame().Address(); exp != got {
		t.Errorf("expected frame address 0x%x; got 0x%x", exp, got)
	}
}

func TestVirtAddrConversions(t *testing.T) {
	addr := VirtAddr(0xffffc00000001000)

	if !addr.IsPageAligned() {
		t.Error("expected address to be page-aligned")
	}

	if exp, got := addr, addr.Page().Address(); exp != got {
		t.Errorf("expected page address round-trip to return 0x%x; got 0x%x", exp, got)
	}
}
