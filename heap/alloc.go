package heap

import (
	"context"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tmalloc/memutils"
	"golang.org/x/exp/slog"
)

// Alloc returns a pointer to at least size usable bytes. The first free block large enough for
// the request is reused, keeping its full capacity; if there is none, the heap grows by
// HeaderSize+size bytes and a new block is appended.
//
// A zero size returns memutils.ErrInvalidArgument and leaves the heap untouched. If the provider
// cannot grow, the error wraps memutils.ErrResourceExhausted and the heap is unchanged. The
// returned pointer is nil whenever the error is not.
func (h *Heap) Alloc(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, errors.Wrap(memutils.ErrInvalidArgument, "allocation size must be greater than zero")
	}

	totalSize, err := memutils.CheckedAdd(HeaderSize, size)
	if err != nil {
		return nil, errors.Wrap(err, "allocation size does not fit alongside its header")
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.allocLocked(size, totalSize)
}

func (h *Heap) allocLocked(size, totalSize uintptr) (unsafe.Pointer, error) {
	if h.provider == nil {
		return nil, errors.Wrap(memutils.ErrResourceExhausted, "the heap has been destroyed")
	}

	header, loaded, found := h.blocks.firstFit(size)
	if found {
		loaded.isFree = 0
		storeHeader(header, loaded)

		p := payloadOf(header)
		if h.flags&HeapCreateZeroOnReuse != 0 {
			clear(payloadBytes(p, size))
		}

		h.logger.LogAttrs(context.Background(), slog.LevelDebug, "    Reused free block",
			slog.String("address", formatAddress(uintptr(header))),
			slog.Uint64("size", uint64(size)),
			slog.Uint64("capacity", uint64(loaded.size)))
		return p, nil
	}

	header, err := h.provider.Extend(totalSize)
	if err != nil {
		h.logger.LogAttrs(context.Background(), slog.LevelDebug, "    Failed to grow heap",
			slog.Uint64("size", uint64(totalSize)),
			slog.Any("error", err))
		return nil, errors.Wrapf(err, "failed to grow the heap by %d bytes", totalSize)
	}

	storeHeader(header, blockHeader{size: size})
	h.blocks.push(header)
	memutils.DebugValidate(&h.blocks)

	h.logger.LogAttrs(context.Background(), slog.LevelDebug, "    Grew heap",
		slog.String("address", formatAddress(uintptr(header))),
		slog.Uint64("size", uint64(size)))
	return payloadOf(header), nil
}
