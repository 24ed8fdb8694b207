package growth

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/tmalloc/memutils"
)

const (
	// DefaultArenaCapacity is the capacity used by NewArena when ArenaOptions.Capacity is 0. It is
	// equal to 64Mb.
	DefaultArenaCapacity int = 64 * 1024 * 1024
)

// ArenaOptions contains optional settings when creating an Arena
type ArenaOptions struct {
	// Capacity is the largest number of bytes the arena's break can move past its base
	Capacity int
}

// Arena is a Provider backed by a single Go-allocated byte slice. The slice is sized once, at
// creation, and the break moves up and down inside it, much like sbrk over a fixed data segment.
// Arena works on every platform but never gives memory back to the operating system before Release.
type Arena struct {
	region []byte
	base   unsafe.Pointer

	// brk and limit are offsets from base
	brk   uintptr
	limit uintptr
}

var _ Provider = &Arena{}

// NewArena creates a new Arena. It is valid to leave all option fields blank.
func NewArena(options ArenaOptions) (*Arena, error) {
	capacity := options.Capacity
	if capacity == 0 {
		capacity = DefaultArenaCapacity
	}
	if capacity < 0 {
		return nil, cerrors.Wrapf(memutils.ErrInvalidArgument, "arena capacity is %d", capacity)
	}

	// Over-allocate so the base can be moved up to HeapAlignment. The padding also keeps a pointer
	// to a full arena's break inside the slice.
	region := make([]byte, capacity+int(HeapAlignment))
	start := unsafe.Pointer(unsafe.SliceData(region))
	padding := memutils.AlignUp(uintptr(start), HeapAlignment) - uintptr(start)

	return &Arena{
		region: region,
		base:   unsafe.Add(start, padding),
		limit:  uintptr(capacity),
	}, nil
}

// Capacity returns the number of bytes the arena can hand out in total
func (a *Arena) Capacity() uintptr {
	return a.limit
}

func (a *Arena) Extend(n uintptr) (unsafe.Pointer, error) {
	if a.region == nil {
		return nil, errors.Wrap(memutils.ErrResourceExhausted, "arena has been released")
	}

	if n > a.limit-a.brk {
		return nil, cerrors.Wrapf(memutils.ErrResourceExhausted, "requested %d bytes but only %d remain in the arena", n, a.limit-a.brk)
	}

	oldBreak := unsafe.Add(a.base, a.brk)
	a.brk += n
	return oldBreak, nil
}

func (a *Arena) Shrink(n uintptr) error {
	if n > a.brk {
		return cerrors.Wrapf(memutils.ErrInvalidArgument, "cannot shrink by %d bytes, the arena only holds %d", n, a.brk)
	}

	a.brk -= n
	return nil
}

func (a *Arena) Break() uintptr { return uintptr(a.base) + a.brk }

func (a *Arena) Base() unsafe.Pointer { return a.base }

func (a *Arena) Release() error {
	if a.region == nil {
		return errors.New("arena has already been released")
	}

	a.region = nil
	a.base = nil
	a.brk = 0
	a.limit = 0
	return nil
}
