//go:build linux

package growth

import (
	"os"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/tmalloc/memutils"
	"golang.org/x/sys/unix"
)

const (
	// DefaultMappedReserve is the size of the address range reserved by NewMapped when
	// MappedOptions.Reserve is 0. It is equal to 1Gb. Reserving address space does not commit memory.
	DefaultMappedReserve int = 1024 * 1024 * 1024
)

// MappedOptions contains optional settings when creating a Mapped provider
type MappedOptions struct {
	// Reserve is the size in bytes of the address range reserved up front. It is rounded up to
	// the system page size.
	Reserve int
}

// Mapped is a Provider backed by an anonymous private mapping. The whole range is reserved at
// creation without committing memory; pages are committed by the kernel when first touched, and
// Shrink hands every whole page past the new break back to the kernel with MADV_DONTNEED.
type Mapped struct {
	mapping  []byte
	pageSize uintptr
	base     unsafe.Pointer

	// brk and limit are offsets from base
	brk   uintptr
	limit uintptr
}

var _ Provider = &Mapped{}

// NewMapped reserves a new anonymous mapping. It is valid to leave all option fields blank.
func NewMapped(options MappedOptions) (*Mapped, error) {
	reserve := options.Reserve
	if reserve == 0 {
		reserve = DefaultMappedReserve
	}
	if reserve < 0 {
		return nil, cerrors.Wrapf(memutils.ErrInvalidArgument, "mapping reserve is %d", reserve)
	}

	pageSize := uintptr(os.Getpagesize())
	memutils.DebugCheckPow2(pageSize, "page size")
	length := memutils.AlignUp(uintptr(reserve), pageSize)

	mapping, err := unix.Mmap(-1, 0, int(length),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
	if err != nil {
		return nil, cerrors.Wrapf(memutils.ErrResourceExhausted, "mmap of %d bytes failed: %v", length, err)
	}

	return &Mapped{
		mapping:  mapping,
		pageSize: pageSize,
		base:     unsafe.Pointer(unsafe.SliceData(mapping)),
		limit:    length,
	}, nil
}

// Reserved returns the number of bytes of address space reserved by the mapping
func (m *Mapped) Reserved() uintptr {
	return m.limit
}

func (m *Mapped) Extend(n uintptr) (unsafe.Pointer, error) {
	if m.mapping == nil {
		return nil, errors.Wrap(memutils.ErrResourceExhausted, "mapping has been released")
	}

	if n > m.limit-m.brk {
		return nil, cerrors.Wrapf(memutils.ErrResourceExhausted, "requested %d bytes but only %d remain reserved", n, m.limit-m.brk)
	}

	oldBreak := unsafe.Add(m.base, m.brk)
	m.brk += n
	return oldBreak, nil
}

func (m *Mapped) Shrink(n uintptr) error {
	if n > m.brk {
		return cerrors.Wrapf(memutils.ErrInvalidArgument, "cannot shrink by %d bytes, the mapping only holds %d", n, m.brk)
	}

	newBreak := m.brk - n
	// Only pages that lie entirely past the new break can be dropped. The mapping is page-aligned,
	// so offsets align the same way addresses do.
	start := memutils.AlignUp(newBreak, m.pageSize)
	end := memutils.AlignUp(m.brk, m.pageSize)
	if end > start {
		err := unix.Madvise(m.mapping[start:end], unix.MADV_DONTNEED)
		if err != nil {
			return cerrors.Wrapf(err, "failed to return %d bytes to the kernel", end-start)
		}
	}

	m.brk = newBreak
	return nil
}

func (m *Mapped) Break() uintptr { return uintptr(m.base) + m.brk }

func (m *Mapped) Base() unsafe.Pointer { return m.base }

func (m *Mapped) Release() error {
	if m.mapping == nil {
		return errors.New("mapping has already been released")
	}

	err := unix.Munmap(m.mapping)
	if err != nil {
		return cerrors.Wrap(err, "munmap failed")
	}

	m.mapping = nil
	m.base = nil
	m.brk = 0
	m.limit = 0
	return nil
}
