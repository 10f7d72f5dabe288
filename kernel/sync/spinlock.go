// Package sync provides the busy-wait synchronization primitives used by the
// boot rendezvous protocol: a spinlock and a fenced monotonic counter. No
// blocking OS primitive exists at this layer; every wait is a polling loop
// with a processor relax hint.
package sync

import (
	"sync/atomic"

	"hypercore/kernel/cpu"
)

// Spinlock implements a mutual exclusion lock where each CPU trying to
// acquire it busy-waits until the lock becomes available. Any attempt to
// re-acquire a lock already held by the calling CPU will deadlock.
type Spinlock struct {
	state uint32
}

// Acquire spins until the lock is acquired by the calling CPU.
func (l *Spinlock) Acquire() {
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		cpu.Relax()
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock
// could be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Release relinquishes a held lock allowing other CPUs to acquire it.
// Calling Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
