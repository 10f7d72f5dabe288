package unit

import (
	"io"
	"testing"

	"hypercore/kernel"
)

type fakeUnit struct {
	name string
	err  *kernel.Error
}

func (u *fakeUnit) UnitName() string { return u.name }

func (u *fakeUnit) Init(io.Writer) *kernel.Error { return u.err }

func TestForEachRunsInRegistrationOrder(t *testing.T) {
	defer Reset()
	Reset()

	for _, name := range []string{"pci", "ivshmem", "apic"} {
		Register(&fakeUnit{name: name})
	}

	if exp, got := 3, Count(); exp != got {
		t.Fatalf("expected %d registered units; got %d", exp, got)
	}

	var order []string
	err := ForEach(func(u Unit) *kernel.Error {
		order = append(order, u.UnitName())
		return u.Init(nil)
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, exp := range []string{"pci", "ivshmem", "apic"} {
		if order[i] != exp {
			t.Errorf("expected unit %d to be %q; got %q", i, exp, order[i])
		}
	}
}

func TestForEachStopsAtFirstFailure(t *testing.T) {
	defer Reset()
	Reset()

	initErr := &kernel.Error{Module: "ivshmem", Message: "init failed", Code: kernel.CodeIO}
	Register(&fakeUnit{name: "pci"})
	Register(&fakeUnit{name: "ivshmem", err: initErr})
	Register(&fakeUnit{name: "apic"})

	var visited []string
	err := ForEach(func(u Unit) *kernel.Error {
		visited = append(visited, u.UnitName())
		return u.Init(nil)
	})

	if err != initErr {
		t.Fatalf("expected ForEach to return the ivshmem error; got %v", err)
	}

	if exp, got := 2, len(visited); exp != got {
		t.Fatalf("expected %d units to run before the failure; got %d (%v)", exp, got, visited)
	}
}
