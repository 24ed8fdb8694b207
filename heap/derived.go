package heap

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tmalloc/memutils"
)

// Calloc allocates room for count elements of elemSize bytes each and zero-fills it. A zero
// argument returns memutils.ErrInvalidArgument; a product that does not fit in a uintptr returns
// memutils.ErrOverflow. Neither touches the heap.
func (h *Heap) Calloc(count, elemSize uintptr) (unsafe.Pointer, error) {
	if count == 0 || elemSize == 0 {
		return nil, errors.Wrapf(memutils.ErrInvalidArgument, "cannot allocate %d elements of %d bytes", count, elemSize)
	}

	size, err := memutils.CheckedMul(count, elemSize)
	if err != nil {
		return nil, err
	}

	p, err := h.Alloc(size)
	if err != nil {
		return nil, err
	}

	clear(payloadBytes(p, size))
	return p, nil
}

// Realloc resizes the block at p to hold at least newSize bytes.
//
// A nil p, or a zero newSize, behaves exactly like Alloc(newSize). If the block's capacity
// already covers newSize, p is returned unchanged; blocks are never shrunk. Otherwise a new block
// is allocated, the old capacity's worth of bytes is copied into it and the old block is freed.
// If that allocation fails, p is left untouched and the error is returned.
func (h *Heap) Realloc(p unsafe.Pointer, newSize uintptr) (unsafe.Pointer, error) {
	if p == nil || newSize == 0 {
		return h.Alloc(newSize)
	}

	oldSize := h.UsableSize(p)
	if oldSize >= newSize {
		return p, nil
	}

	newP, err := h.Alloc(newSize)
	if err != nil {
		return nil, err
	}

	copy(payloadBytes(newP, newSize), payloadBytes(p, min(oldSize, newSize)))
	h.Free(p)

	return newP, nil
}

// UsableSize returns the capacity of the block at p, which may exceed the size originally
// requested if the block was reused. It returns 0 for nil.
func (h *Heap) UsableSize(p unsafe.Pointer) uintptr {
	if p == nil {
		return 0
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	return loadHeader(headerOf(p)).size
}
