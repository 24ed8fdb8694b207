package heap

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/tmalloc/memutils"
)

// BlockInfo describes a single block on the heap as seen by VisitAllBlocks
type BlockInfo struct {
	// Address is the address of the block's header
	Address uintptr
	// Size is the capacity of the block's payload in bytes
	Size uintptr
	// Free is true if the block has been freed and is waiting to be reused
	Free bool
	// Next is the address of the following block's header, or 0 for the last block
	Next uintptr

	payload unsafe.Pointer
}

// Payload returns the pointer that was handed to the caller for this block
func (b BlockInfo) Payload() unsafe.Pointer {
	return b.payload
}

func formatAddress(addr uintptr) string {
	if addr == 0 {
		return "(nil)"
	}
	return fmt.Sprintf("%#x", addr)
}

// VisitAllBlocks calls visitor once for each block on the heap, in address order. The heap is
// locked for the duration, so visitor must not call back into the heap. Iteration stops at the
// first error, which is returned.
func (h *Heap) VisitAllBlocks(visitor func(block BlockInfo) error) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.blocks.visit(func(header unsafe.Pointer, loaded blockHeader) error {
		return visitor(BlockInfo{
			Address: uintptr(header),
			Size:    loaded.size,
			Free:    loaded.free(),
			Next:    loaded.next,
			payload: payloadOf(header),
		})
	})
}

// WriteList writes a line naming the head and tail of the block list, followed by one line per
// block with its address, capacity, free flag and the address of the next block.
func (h *Heap) WriteList(w io.Writer) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	_, err := fmt.Fprintf(w, "head = %s, tail = %s\n", formatAddress(h.blocks.head), formatAddress(h.blocks.tail))
	if err != nil {
		return err
	}

	return h.blocks.visit(func(header unsafe.Pointer, loaded blockHeader) error {
		_, err := fmt.Fprintf(w, "addr = %s, size = %d, is_free = %d, next = %s\n",
			formatAddress(uintptr(header)), loaded.size, loaded.isFree, formatAddress(loaded.next))
		return err
	})
}

// AddStatistics sums this heap's block statistics into the provided memutils.Statistics object
func (h *Heap) AddStatistics(stats *memutils.Statistics) {
	var detailed memutils.DetailedStatistics
	detailed.Clear()
	h.AddDetailedStatistics(&detailed)

	stats.AddStatistics(&detailed.Statistics)
}

// AddDetailedStatistics sums this heap's block statistics into the provided
// memutils.DetailedStatistics object
func (h *Heap) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	var heapStats memutils.DetailedStatistics
	heapStats.Clear()
	h.addDetailedStatisticsLocked(&heapStats)

	stats.AddDetailedStatistics(&heapStats)
}

func (h *Heap) addDetailedStatisticsLocked(stats *memutils.DetailedStatistics) {
	_ = h.blocks.visit(func(header unsafe.Pointer, loaded blockHeader) error {
		stats.AddBlock(HeaderSize, loaded.size, loaded.free())
		return nil
	})
}

// PrintDetailedMap writes a JSON object describing the heap and every block on it
func (h *Heap) PrintDetailedMap(writer *jwriter.Writer) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	var stats memutils.DetailedStatistics
	stats.Clear()
	h.addDetailedStatisticsLocked(&stats)

	objState := writer.Object()
	defer objState.End()

	if h.provider != nil {
		objState.Name("Base").String(formatAddress(uintptr(h.provider.Base())))
		objState.Name("Break").String(formatAddress(h.provider.Break()))
	}
	objState.Name("HeaderSize").Int(int(HeaderSize))
	objState.Name("TotalBytes").Int(int(stats.BlockBytes))
	objState.Name("Blocks").Int(stats.BlockCount)
	objState.Name("Allocations").Int(stats.AllocationCount)
	objState.Name("AllocatedBytes").Int(int(stats.AllocationBytes))
	objState.Name("FreeBlocks").Int(stats.FreeBlockCount)
	objState.Name("FreeBytes").Int(int(stats.FreeBytes))

	arrayState := objState.Name("BlockList").Array()
	defer arrayState.End()

	_ = h.blocks.visit(func(header unsafe.Pointer, loaded blockHeader) error {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Address").String(formatAddress(uintptr(header)))
		obj.Name("Size").Int(int(loaded.size))
		obj.Name("Free").Bool(loaded.free())
		obj.Name("Next").String(formatAddress(loaded.next))
		return nil
	})
}

// Validate performs internal consistency checks on the heap: the block list must be ordered and
// terminated, and the blocks must tile the provider's range exactly, from its base to its break.
// When the heap is functioning correctly it should not be possible for this method to return an
// error.
func (h *Heap) Validate() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.provider == nil {
		return errors.New("the heap has been destroyed")
	}

	err := h.blocks.Validate()
	if err != nil {
		return err
	}

	expected := uintptr(h.provider.Base())
	if h.blocks.head != 0 && h.blocks.head != expected {
		return errors.Errorf("the first block is at %#x, but the heap begins at %#x", h.blocks.head, expected)
	}

	err = h.blocks.visit(func(header unsafe.Pointer, loaded blockHeader) error {
		addr := uintptr(header)
		if addr != expected {
			return errors.Errorf("the block at %#x should be at %#x", addr, expected)
		}
		expected = addr + HeaderSize + loaded.size
		return nil
	})
	if err != nil {
		return err
	}

	if expected != h.provider.Break() {
		return errors.Errorf("the blocks end at %#x, but the heap break is %#x", expected, h.provider.Break())
	}

	return nil
}
