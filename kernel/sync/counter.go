package sync

import (
	"sync/atomic"

	"hypercore/kernel/cpu"
)

// Counter is a monotonically increasing counter that CPUs poll to implement
// "wait until K CPUs have reached point P". A counter never decreases within
// a boot attempt.
type Counter struct {
	value uint32
}

// Inc issues a full memory barrier and then increments the counter by one,
// returning the new value. The barrier guarantees that everything the
// incrementing CPU wrote beforehand is visible to any CPU released by Wait.
func (c *Counter) Inc() uint32 {
	cpu.MemoryBarrier()
	return atomic.AddUint32(&c.value, 1)
}

// Load returns the current counter value.
func (c *Counter) Load() uint32 {
	return atomic.LoadUint32(&c.value)
}

// Wait polls until the counter reaches target or abort reports true. The
// wait is a lock-free polling loop with a relax hint; abort may be nil when
// no abort condition exists.
func (c *Counter) Wait(target uint32, abort func() bool) {
	for atomic.LoadUint32(&c.value) < target {
		if abort != nil && abort() {
			return
		}
		cpu.Relax()
	}
}
