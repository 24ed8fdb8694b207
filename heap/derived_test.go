package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/tmalloc/heap"
	"github.com/vkngwrapper/tmalloc/memutils"
)

var callocInvalidCases = map[string]struct {
	Count    uintptr
	ElemSize uintptr
	Err      error
}{
	"Zero Count": {
		Count:    0,
		ElemSize: 8,
		Err:      memutils.ErrInvalidArgument,
	},
	"Zero Element Size": {
		Count:    8,
		ElemSize: 0,
		Err:      memutils.ErrInvalidArgument,
	},
	"Both Zero": {
		Count:    0,
		ElemSize: 0,
		Err:      memutils.ErrInvalidArgument,
	},
	"Product Overflows": {
		Count:    4,
		ElemSize: ^uintptr(0)/2 + 1,
		Err:      memutils.ErrOverflow,
	},
	"Large Count Overflows": {
		Count:    ^uintptr(0),
		ElemSize: 2,
		Err:      memutils.ErrOverflow,
	},
}

func TestCallocInvalid(t *testing.T) {
	for name, testCase := range callocInvalidCases {
		t.Run(name, func(t *testing.T) {
			h, arena := readyHeap(t, 1024, heap.CreateOptions{})

			p, err := h.Calloc(testCase.Count, testCase.ElemSize)
			require.ErrorIs(t, err, testCase.Err)
			require.Nil(t, p)
			require.Equal(t, uintptr(arena.Base()), arena.Break())
			require.NoError(t, h.Validate())
		})
	}
}

func TestCallocZeroFillsReusedBlock(t *testing.T) {
	h, _ := readyHeap(t, 1024, heap.CreateOptions{})

	dirty, err := h.Alloc(64)
	require.NoError(t, err)
	fill(dirty, 64, 0xFF)
	_, err = h.Alloc(8)
	require.NoError(t, err)
	h.Free(dirty)

	p, err := h.Calloc(8, 8)
	require.NoError(t, err)
	require.Equal(t, dirty, p)
	require.Equal(t, make([]byte, 64), bytesAt(p, 64))
}

func TestCallocZeroFillsGrownBlock(t *testing.T) {
	h, _ := readyHeap(t, 1024, heap.CreateOptions{})

	// Leave garbage past the break for the next block to land on
	dirty, err := h.Alloc(96)
	require.NoError(t, err)
	fill(dirty, 96, 0xEE)
	h.Free(dirty)

	p, err := h.Calloc(3, 32)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 96), bytesAt(p, 96))
}

func TestReallocNilAllocates(t *testing.T) {
	h, arena := readyHeap(t, 1024, heap.CreateOptions{})

	p, err := h.Realloc(nil, 0)
	require.ErrorIs(t, err, memutils.ErrInvalidArgument)
	require.Nil(t, p)
	require.Equal(t, uintptr(arena.Base()), arena.Break())

	p, err = h.Realloc(nil, 24)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, uintptr(24), h.UsableSize(p))
}

func TestReallocZeroSize(t *testing.T) {
	h, _ := readyHeap(t, 1024, heap.CreateOptions{})

	p, err := h.Alloc(16)
	require.NoError(t, err)
	fill(p, 16, 0x42)

	newP, err := h.Realloc(p, 0)
	require.ErrorIs(t, err, memutils.ErrInvalidArgument)
	require.Nil(t, newP)

	// The original block is not released
	require.Equal(t, uintptr(16), h.UsableSize(p))
	require.Equal(t, byte(0x42), bytesAt(p, 16)[15])
}

func TestReallocNoShrink(t *testing.T) {
	h, arena := readyHeap(t, 1024, heap.CreateOptions{})

	p, err := h.Alloc(100)
	require.NoError(t, err)
	brk := arena.Break()

	for _, size := range []uintptr{100, 50, 1} {
		newP, err := h.Realloc(p, size)
		require.NoError(t, err)
		require.Equal(t, p, newP)
		require.Equal(t, brk, arena.Break())
		require.Equal(t, uintptr(100), h.UsableSize(p))
	}
}

func TestReallocPreservesContent(t *testing.T) {
	h, _ := readyHeap(t, 4096, heap.CreateOptions{})

	p, err := h.Alloc(10)
	require.NoError(t, err)
	region := bytesAt(p, 10)
	for i := range region {
		region[i] = byte(i + 1)
	}

	newP, err := h.Realloc(p, 1000)
	require.NoError(t, err)
	require.NotEqual(t, p, newP)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, bytesAt(newP, 10))
	require.Equal(t, uintptr(1000), h.UsableSize(newP))
	require.NoError(t, h.Validate())

	// The old block was not the last one once the new block was appended, so it stays as a
	// free block for reuse
	reused, err := h.Alloc(10)
	require.NoError(t, err)
	require.Equal(t, p, reused)
}

func TestReallocIntoReusedBlock(t *testing.T) {
	h, _ := readyHeap(t, 4096, heap.CreateOptions{})

	big, err := h.Alloc(200)
	require.NoError(t, err)
	_, err = h.Alloc(8)
	require.NoError(t, err)
	h.Free(big)

	p, err := h.Alloc(16)
	require.NoError(t, err)
	require.Equal(t, big, p)

	// Capacity is 200 thanks to reuse, so growing within it stays in place
	newP, err := h.Realloc(p, 150)
	require.NoError(t, err)
	require.Equal(t, p, newP)
}

func TestReallocFailureLeavesBlock(t *testing.T) {
	h, arena := readyHeap(t, 256, heap.CreateOptions{})

	p, err := h.Alloc(16)
	require.NoError(t, err)
	fill(p, 16, 0x5A)
	brk := arena.Break()

	newP, err := h.Realloc(p, 4096)
	require.ErrorIs(t, err, memutils.ErrResourceExhausted)
	require.Nil(t, newP)

	require.Equal(t, brk, arena.Break())
	require.Equal(t, uintptr(16), h.UsableSize(p))
	for _, b := range bytesAt(p, 16) {
		require.Equal(t, byte(0x5A), b)
	}
	require.NoError(t, h.Validate())
}

func TestUsableSizeNil(t *testing.T) {
	h, _ := readyHeap(t, 1024, heap.CreateOptions{})
	require.Zero(t, h.UsableSize(nil))
}
