package config

import (
	"hypercore/kernel"
	"hypercore/kernel/mm"
)

// SysFlag is a system-wide capability flag. Capabilities the original
// design selected at build time are runtime flags here so a single image
// serves every configuration.
type SysFlag uint32

const (
	// SysVirtualDebugConsole grants the host read access to the page
	// backing the hypervisor debug console.
	SysVirtualDebugConsole SysFlag = 1 << iota

	// SysPageTableProtection enables the write-protected read-only
	// buffer that shields the page tables from stray writes.
	SysPageTableProtection
)

// ConFlag describes the access type of the debug console.
type ConFlag uint32

const (
	// ConAccessMMIO marks a memory-mapped console; its page must be
	// linked into every per-CPU address space. Consoles without this
	// flag are reached through port I/O.
	ConAccessMMIO ConFlag = 1 << iota
)

// ConsoleDescriptor locates the debug console device.
type ConsoleDescriptor struct {
	Address mm.PhysAddr
	Size    uint64
	Flags   ConFlag
}

// IsMMIO returns true if the console is memory-mapped.
func (c ConsoleDescriptor) IsMMIO() bool {
	return c.Flags&ConAccessMMIO != 0
}

// CellConfig describes one partition: the CPUs it owns and the static
// memory regions delegated to it.
type CellConfig struct {
	Name       string
	CPUSet     CPUSet
	MemRegions []mm.MemRegion
}

// SystemConfig is the single shared configuration structure placed at a
// fixed offset past the hypervisor image. It is written only during the
// global initialization phases and read by every CPU afterwards.
type SystemConfig struct {
	Flags            SysFlag
	HypervisorMemory mm.MemRegion
	DebugConsole     ConsoleDescriptor

	// ROBuffer is the read-only buffer region used when the page-table
	// protection capability is enabled.
	ROBuffer mm.MemRegion

	RootCell CellConfig
}

// VirtualConsole returns true when the host may fault in the console page.
func (c *SystemConfig) VirtualConsole() bool {
	return c.Flags&SysVirtualDebugConsole != 0
}

// PageTableProtection returns true when the page-table protection
// capability is enabled.
func (c *SystemConfig) PageTableProtection() bool {
	return c.Flags&SysPageTableProtection != 0
}

// LocateFn resolves the system configuration the loader placed at the given
// offset past the hypervisor image base. The boot protocol computes the
// offset from the header and never inspects the blob layout itself.
type LocateFn func(offset uint64) (*SystemConfig, *kernel.Error)
