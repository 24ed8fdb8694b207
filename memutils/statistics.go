package memutils

import "math"

// Statistics summarizes the blocks carved from a heap. BlockBytes counts headers as well as
// payloads, so it always matches the number of bytes the heap has taken from its growth provider.
type Statistics struct {
	BlockCount      int
	AllocationCount int
	BlockBytes      uintptr
	AllocationBytes uintptr
}

func (s *Statistics) Clear() {
	s.BlockCount = 0
	s.AllocationCount = 0
	s.BlockBytes = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.AllocationCount += other.AllocationCount
	s.BlockBytes += other.BlockBytes
	s.AllocationBytes += other.AllocationBytes
}

// DetailedStatistics extends Statistics with the shape of the free blocks and live allocations.
// Sizes are payload capacities, not the size originally requested by the caller.
type DetailedStatistics struct {
	Statistics
	FreeBlockCount    int
	FreeBytes         uintptr
	AllocationSizeMin uintptr
	AllocationSizeMax uintptr
	FreeBlockSizeMin  uintptr
	FreeBlockSizeMax  uintptr
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.FreeBlockCount = 0
	s.FreeBytes = 0
	s.AllocationSizeMin = math.MaxUint
	s.AllocationSizeMax = 0
	s.FreeBlockSizeMin = math.MaxUint
	s.FreeBlockSizeMax = 0
}

// AddBlock records a single block of the given payload capacity. headerSize is added to
// BlockBytes alongside the capacity.
func (s *DetailedStatistics) AddBlock(headerSize, size uintptr, free bool) {
	s.BlockCount++
	s.BlockBytes += headerSize + size

	if free {
		s.addFreeBlock(size)
	} else {
		s.addAllocation(size)
	}
}

func (s *DetailedStatistics) addFreeBlock(size uintptr) {
	s.FreeBlockCount++
	s.FreeBytes += size

	if size < s.FreeBlockSizeMin {
		s.FreeBlockSizeMin = size
	}

	if size > s.FreeBlockSizeMax {
		s.FreeBlockSizeMax = size
	}
}

func (s *DetailedStatistics) addAllocation(size uintptr) {
	s.AllocationCount++
	s.AllocationBytes += size

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.FreeBlockCount += other.FreeBlockCount
	s.FreeBytes += other.FreeBytes

	if other.FreeBlockSizeMin < s.FreeBlockSizeMin {
		s.FreeBlockSizeMin = other.FreeBlockSizeMin
	}

	if other.FreeBlockSizeMax > s.FreeBlockSizeMax {
		s.FreeBlockSizeMax = other.FreeBlockSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}
