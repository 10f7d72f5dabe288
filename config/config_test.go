package config

import "testing"

func validHeader() Header {
	return Header{
		Signature:  Signature,
		CoreSize:   0x2000,
		PerCPUSize: 0x1000,
		MaxCPUs:    4,
		OnlineCPUs: 4,
	}
}

func TestHeaderValidate(t *testing.T) {
	specs := []struct {
		descr  string
		mutate func(*Header)
		expErr bool
	}{
		{"valid header", func(*Header) {}, false},
		{"bad signature", func(h *Header) { h.Signature[0] = 'X' }, true},
		{"zero max cpus", func(h *Header) { h.MaxCPUs = 0; h.OnlineCPUs = 0 }, true},
		{"zero online cpus", func(h *Header) { h.OnlineCPUs = 0 }, true},
		{"online exceeds max", func(h *Header) { h.OnlineCPUs = 5 }, true},
	}

	for _, spec := range specs {
		h := validHeader()
		spec.mutate(&h)
		if err := h.Validate(); (err != nil) != spec.expErr {
			t.Errorf("[%s] expected error=%t; got %v", spec.descr, spec.expErr, err)
		}
	}
}

func TestCPUSet(t *testing.T) {
	s := NewCPUSet(0, 2, 5)

	if exp, got := uint32(3), s.Count(); exp != got {
		t.Fatalf("expected count %d; got %d", exp, got)
	}

	for _, id := range []uint32{0, 2, 5} {
		if !s.Contains(id) {
			t.Errorf("expected set to contain CPU %d", id)
		}
	}
	for _, id := range []uint32{1, 3, 63, 64, 1000} {
		if s.Contains(id) {
			t.Errorf("expected set not to contain CPU %d", id)
		}
	}

	var visited []uint32
	s.ForEach(func(cpuID uint32) { visited = append(visited, cpuID) })
	if exp, got := 3, len(visited); exp != got {
		t.Fatalf("expected ForEach to visit %d CPUs; got %d", exp, got)
	}
	for i, exp := range []uint32{0, 2, 5} {
		if visited[i] != exp {
			t.Errorf("expected visit %d to be CPU %d; got %d", i, exp, visited[i])
		}
	}
}

func TestSystemConfigFlags(t *testing.T) {
	var cfg SystemConfig
	if cfg.VirtualConsole() || cfg.PageTableProtection() {
		t.Fatal("expected capabilities to default to off")
	}

	cfg.Flags = SysVirtualDebugConsole | SysPageTableProtection
	if !cfg.VirtualConsole() || !cfg.PageTableProtection() {
		t.Fatal("expected capabilities to be reported as on")
	}
}

func TestConsoleDescriptorIsMMIO(t *testing.T) {
	con := ConsoleDescriptor{Address: 0xfe000000, Size: 0x1000}
	if con.IsMMIO() {
		t.Fatal("expected port I/O console not to report MMIO")
	}

	con.Flags = ConAccessMMIO
	if !con.IsMMIO() {
		t.Fatal("expected MMIO console to report MMIO")
	}
}
