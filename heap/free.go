package heap

import (
	"context"
	"unsafe"

	"github.com/vkngwrapper/tmalloc/memutils"
	"golang.org/x/exp/slog"
)

// Free returns a block obtained from Alloc, Calloc or Realloc to the heap. Freeing nil does
// nothing.
//
// If the block is the last one on the heap, its memory is handed back to the provider and the
// block leaves the list. Otherwise it is marked free and stays where it is, available to any later
// request no larger than its capacity. Free blocks are never merged.
//
// Passing a pointer the heap did not produce, or freeing the same pointer twice, corrupts the heap.
func (h *Heap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.freeLocked(p)
}

func (h *Heap) freeLocked(p unsafe.Pointer) {
	if h.provider == nil {
		h.logger.LogAttrs(context.Background(), slog.LevelError, "free called on a destroyed heap",
			slog.String("address", formatAddress(uintptr(p))))
		return
	}

	header := headerOf(p)
	loaded := loadHeader(header)

	if uintptr(p)+loaded.size == h.provider.Break() {
		// Shrink first so a provider failure leaves the block in the list
		err := h.provider.Shrink(HeaderSize + loaded.size)
		if err == nil {
			h.blocks.popTail()
			memutils.DebugValidate(&h.blocks)

			h.logger.LogAttrs(context.Background(), slog.LevelDebug, "    Returned tail block",
				slog.String("address", formatAddress(uintptr(header))),
				slog.Uint64("size", uint64(loaded.size)))
			return
		}

		h.logger.LogAttrs(context.Background(), slog.LevelError, "failed to return tail block to the growth provider",
			slog.String("address", formatAddress(uintptr(header))),
			slog.Uint64("size", uint64(loaded.size)),
			slog.Any("error", err))
	}

	loaded.isFree = 1
	storeHeader(header, loaded)

	h.logger.LogAttrs(context.Background(), slog.LevelDebug, "    Freed block",
		slog.String("address", formatAddress(uintptr(header))),
		slog.Uint64("size", uint64(loaded.size)))
}
