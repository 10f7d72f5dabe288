// Package cpu provides the processor hints that back the busy-wait
// synchronization primitives used while bringing up the hypervisor.
package cpu

import (
	"runtime"
	"sync/atomic"
)

var (
	// relaxFn is invoked by Relax on every spin iteration. On bare metal
	// this resolves to a pause/yield instruction; when running hosted it
	// yields the processor to the Go scheduler so that other simulated
	// CPUs can make progress.
	relaxFn = runtime.Gosched

	// fenceWord is the target of the read-modify-write issued by
	// MemoryBarrier.
	fenceWord uint32
)

// Relax hints the processor that the caller sits in a polling loop. It must
// be called on every iteration of a busy-wait so a spinning CPU does not
// starve the one it is waiting on.
func Relax() {
	relaxFn()
}

// SetRelaxFn overrides the relax hint. An architecture backend installs its
// pause instruction here; tests install counters.
func SetRelaxFn(fn func()) {
	relaxFn = fn
}

// MemoryBarrier issues a full memory fence. Every write performed by the
// calling CPU before the barrier is visible to any CPU that observes a write
// performed after it. The boot protocol issues one right before publishing a
// counter increment or flag that other CPUs poll on.
func MemoryBarrier() {
	atomic.AddUint32(&fenceWord, 1)
}
