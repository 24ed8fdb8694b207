package heap

import (
	"unsafe"

	"github.com/vkngwrapper/tmalloc/memutils/growth"
)

// blockHeader is stored in the first HeaderSize bytes of every block carved from the heap. The
// payload handed to callers begins exactly HeaderSize bytes past the start of the header.
//
// next holds the address of the following header, or 0 for the last block. Addresses are stored
// as plain integers so the header holds nothing the garbage collector needs to trace; they are
// turned back into pointers only through blockList.at.
type blockHeader struct {
	size   uintptr
	isFree uint32
	next   uintptr
}

func (h blockHeader) free() bool { return h.isFree != 0 }

// HeaderSize is the number of bytes reserved in front of every payload: the size of a header
// rounded up to growth.HeapAlignment
const HeaderSize = (unsafe.Sizeof(blockHeader{}) + growth.HeapAlignment - 1) &^ (growth.HeapAlignment - 1)

// Requested sizes are never rounded, so only the first header on the heap is guaranteed to be
// aligned. Headers are therefore copied in and out byte-wise rather than dereferenced in place.

func headerBytes(header unsafe.Pointer) []byte {
	return unsafe.Slice((*byte)(header), unsafe.Sizeof(blockHeader{}))
}

func loadHeader(header unsafe.Pointer) blockHeader {
	var loaded blockHeader
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&loaded)), unsafe.Sizeof(loaded)), headerBytes(header))
	return loaded
}

func storeHeader(header unsafe.Pointer, value blockHeader) {
	copy(headerBytes(header), unsafe.Slice((*byte)(unsafe.Pointer(&value)), unsafe.Sizeof(value)))
}

// headerOf recovers the header from a payload pointer. It is the only place the payload-to-header
// offset is applied.
func headerOf(p unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(p, -int(HeaderSize))
}

func payloadOf(header unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(header, HeaderSize)
}

func payloadBytes(p unsafe.Pointer, n uintptr) []byte {
	return unsafe.Slice((*byte)(p), n)
}
