package config

// maxCPUSetBits bounds the CPU identifiers a set can hold.
const maxCPUSetBits = 64

// CPUSet is the fixed-size bitmap of CPU identifiers owned by a partition.
type CPUSet uint64

// Set marks cpuID as a member of the set. Identifiers past the set capacity
// are ignored.
func (s *CPUSet) Set(cpuID uint32) {
	if cpuID < maxCPUSetBits {
		*s |= 1 << cpuID
	}
}

// Contains returns true if cpuID is a member of the set.
func (s CPUSet) Contains(cpuID uint32) bool {
	return cpuID < maxCPUSetBits && s&(1<<cpuID) != 0
}

// Count returns the number of CPUs in the set.
func (s CPUSet) Count() uint32 {
	var count uint32
	for bits := uint64(s); bits != 0; bits &= bits - 1 {
		count++
	}
	return count
}

// ForEach invokes fn for every member of the set in ascending order.
func (s CPUSet) ForEach(fn func(cpuID uint32)) {
	for cpuID := uint32(0); cpuID < maxCPUSetBits; cpuID++ {
		if s.Contains(cpuID) {
			fn(cpuID)
		}
	}
}

// NewCPUSet builds a set from the given identifiers.
func NewCPUSet(cpuIDs ...uint32) CPUSet {
	var s CPUSet
	for _, id := range cpuIDs {
		s.Set(id)
	}
	return s
}
