package heap

import (
	"context"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/vkngwrapper/tmalloc/memutils/growth"
	"golang.org/x/exp/slog"
)

// Heap is a first-fit allocator over a single contiguous range supplied by a growth.Provider.
// Every block carries a header recording its capacity, whether it is free, and the address of
// the next block. Free blocks are reused as-is: they are never split to fit a smaller request and
// never merged with free neighbors. Memory only goes back to the provider when the block at the
// very end of the heap is freed.
//
// All methods are safe for concurrent use. A single mutex serializes every decision that reads or
// writes the block list, and every call into the provider.
type Heap struct {
	mutex    sync.Mutex
	logger   *slog.Logger
	provider growth.Provider
	flags    CreateFlags

	blocks blockList
}

// Destroy releases the heap's provider. If any allocation is still live, each one is logged
// and an error is returned without releasing anything.
func (h *Heap) Destroy() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.provider == nil {
		return errors.New("the heap has already been destroyed")
	}

	live := 0
	_ = h.blocks.visit(func(header unsafe.Pointer, loaded blockHeader) error {
		if loaded.free() {
			return nil
		}

		live++
		h.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation",
			slog.String("address", formatAddress(uintptr(payloadOf(header)))),
			slog.Uint64("size", uint64(loaded.size)),
		)
		return nil
	})

	if live > 0 {
		return errors.Errorf("%d allocations were not freed before the destruction of this heap", live)
	}

	err := h.provider.Release()
	if err != nil {
		return err
	}

	h.provider = nil
	h.blocks = blockList{}
	return nil
}
