package growth

import "unsafe"

//go:generate mockgen -source provider.go -destination mocks/provider.go

// HeapAlignment is the alignment of the first byte of every heap range handed out by a Provider
const HeapAlignment uintptr = 16

// Provider is the boundary between a heap and the memory it grows into. A Provider owns a single
// contiguous address range and a break: bytes in [Base(), Break()) belong to the heap, bytes past
// the break do not.
//
// Pointers into the range must be derived from Base or Extend. A Go-allocated range cannot be
// addressed through a pointer rebuilt from an integer.
//
// Providers are not safe for concurrent use. The heap that owns a Provider calls it only while
// holding its own lock.
type Provider interface {
	// Extend moves the break up by n bytes and returns a pointer to the old break, which is the
	// start of the newly-usable region. If the range cannot grow by n bytes the break is left where it
	// is and an error wrapping memutils.ErrResourceExhausted is returned. Extend(0) returns the current
	// break.
	Extend(n uintptr) (unsafe.Pointer, error)
	// Shrink moves the break down by n bytes. The contents of the released bytes are unspecified the
	// next time they are handed out by Extend.
	Shrink(n uintptr) error
	// Break returns the current heap boundary
	Break() uintptr
	// Base returns a pointer to the lowest byte of the range. Break() == uintptr(Base()) when the
	// heap is empty.
	Base() unsafe.Pointer
	// Release returns the entire range to its source. The Provider cannot be used afterward.
	Release() error
}

// Extent returns the number of bytes currently between the provider's base and its break
func Extent(p Provider) uintptr {
	return p.Break() - uintptr(p.Base())
}
