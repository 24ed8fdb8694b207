package heap

import (
	"unsafe"

	"github.com/dolthub/swiss"
	"github.com/pkg/errors"
)

// blockList threads every block ever carved from the heap, free or not, in ascending address
// order. New blocks are only ever appended at the tail, and only the tail is ever removed.
//
// Links are kept as addresses. base is the provider's range, and every header pointer is derived
// from it with at.
type blockList struct {
	base  unsafe.Pointer
	count int
	head  uintptr
	tail  uintptr
}

func (l *blockList) isEmpty() bool {
	return l.head == 0
}

// at returns a pointer to the header at addr, derived from the list's base
func (l *blockList) at(addr uintptr) unsafe.Pointer {
	return unsafe.Add(l.base, addr-uintptr(l.base))
}

// push appends the header, which must already be stored with next == 0
func (l *blockList) push(header unsafe.Pointer) {
	addr := uintptr(header)
	if l.isEmpty() {
		l.head = addr
	}

	if l.tail != 0 {
		tail := l.at(l.tail)
		tailHeader := loadHeader(tail)
		tailHeader.next = addr
		storeHeader(tail, tailHeader)
	}

	l.tail = addr
	l.count++
}

// popTail unlinks the last block. Finding its predecessor means walking the whole list.
func (l *blockList) popTail() {
	if l.head == l.tail {
		l.head = 0
		l.tail = 0
		l.count = 0
		return
	}

	for addr := l.head; addr != 0; {
		header := l.at(addr)
		loaded := loadHeader(header)
		if loaded.next == l.tail {
			loaded.next = 0
			storeHeader(header, loaded)
			l.tail = addr
			l.count--
			return
		}
		addr = loaded.next
	}
}

// firstFit returns the first free block, in address order, whose capacity is at least size
func (l *blockList) firstFit(size uintptr) (unsafe.Pointer, blockHeader, bool) {
	for addr := l.head; addr != 0; {
		header := l.at(addr)
		loaded := loadHeader(header)
		if loaded.free() && loaded.size >= size {
			return header, loaded, true
		}
		addr = loaded.next
	}

	return nil, blockHeader{}, false
}

func (l *blockList) visit(visitor func(header unsafe.Pointer, loaded blockHeader) error) error {
	for addr := l.head; addr != 0; {
		header := l.at(addr)
		loaded := loadHeader(header)
		err := visitor(header, loaded)
		if err != nil {
			return err
		}
		addr = loaded.next
	}

	return nil
}

// Validate checks the structure of the list: ordering, termination and the head/tail pair. It
// does not look at block contents.
func (l *blockList) Validate() error {
	if (l.head == 0) != (l.tail == 0) {
		return errors.Errorf("head (%#x) and tail (%#x) must both be set or both be empty", l.head, l.tail)
	}

	if l.isEmpty() {
		if l.count != 0 {
			return errors.Errorf("the list is empty but claims to hold %d blocks", l.count)
		}
		return nil
	}

	if l.head < uintptr(l.base) {
		return errors.Errorf("the first block (%#x) lies below the heap base (%#x)", l.head, uintptr(l.base))
	}

	seen := swiss.NewMap[uintptr, struct{}](uint32(l.count + 1))
	actualCount := 0
	var last uintptr

	for addr := l.head; addr != 0; {
		if seen.Has(addr) {
			return errors.Errorf("the block at %#x appears twice in the list", addr)
		}
		seen.Put(addr, struct{}{})

		if last != 0 && addr <= last {
			return errors.Errorf("the block at %#x follows the block at %#x but is not at a higher address", addr, last)
		}

		loaded := loadHeader(l.at(addr))
		actualCount++
		last = addr
		addr = loaded.next
	}

	if last != l.tail {
		return errors.Errorf("the list ends at %#x but the tail is %#x", last, l.tail)
	}

	if actualCount != l.count {
		return errors.Errorf("the listed number of blocks (%d) does not match the actual number of blocks (%d)", l.count, actualCount)
	}

	return nil
}
