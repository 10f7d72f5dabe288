// Package config describes the loader-visible hypervisor header and the
// system configuration that the boot protocol reads. Both are constructed
// before any CPU enters the hypervisor and are read-mostly afterwards.
package config

import "hypercore/kernel"

// Signature identifies a valid hypervisor header to the loader.
var Signature = [8]byte{'H', 'V', 'C', 'O', 'R', 'E', '0', '1'}

var (
	errBadSignature = &kernel.Error{Module: "config", Message: "hypervisor header carries a bad signature", Code: kernel.CodeInvalidParam}
	errBadCPUCounts = &kernel.Error{Module: "config", Message: "hypervisor header carries inconsistent CPU counts", Code: kernel.CodeInvalidParam}
)

// Header is the fixed-layout descriptor placed at a known link-time location
// so the loader can size and start the hypervisor. All fields are set at
// build/load time; OnlineCPUs is written once by the loader before any CPU
// reaches the entry routine and is treated as immutable afterwards.
type Header struct {
	// Signature must equal the package Signature value.
	Signature [8]byte

	// CoreSize is the size of the hypervisor core image in bytes.
	CoreSize uint64

	// PerCPUSize is the size of one per-CPU data region in bytes.
	PerCPUSize uint64

	// EntryOffset is the offset of the architecture entry stub from the
	// hypervisor image base.
	EntryOffset uint64

	// ConsolePageOffset is the offset of the page backing the debug
	// console from the hypervisor image base.
	ConsolePageOffset uint64

	// DebugConsoleBase is the virtual address at which a memory-mapped
	// debug console gets linked into each per-CPU address space.
	DebugConsoleBase uint64

	// MaxCPUs is the number of per-CPU regions the image was built for.
	MaxCPUs uint32

	// OnlineCPUs is the number of CPUs the loader will send through the
	// entry routine.
	OnlineCPUs uint32
}

// Validate checks the header invariants the boot protocol relies on.
func (h *Header) Validate() *kernel.Error {
	if h.Signature != Signature {
		return errBadSignature
	}

	if h.MaxCPUs == 0 || h.OnlineCPUs == 0 || h.OnlineCPUs > h.MaxCPUs {
		return errBadCPUCounts
	}

	return nil
}
