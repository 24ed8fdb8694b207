package memutils_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/tmalloc/memutils"
)

func TestCheckPow2(t *testing.T) {
	require.NoError(t, memutils.CheckPow2(16, "alignment"))
	require.NoError(t, memutils.CheckPow2(uintptr(4096), "page size"))

	err := memutils.CheckPow2(24, "alignment")
	require.ErrorIs(t, err, memutils.PowerOfTwoError)
	require.Contains(t, err.Error(), "alignment is 24")

	require.ErrorIs(t, memutils.CheckPow2(0, "alignment"), memutils.PowerOfTwoError)
}

func TestAlign(t *testing.T) {
	require.Equal(t, uintptr(0), memutils.AlignUp(uintptr(0), 16))
	require.Equal(t, uintptr(16), memutils.AlignUp(uintptr(1), 16))
	require.Equal(t, uintptr(16), memutils.AlignUp(uintptr(16), 16))
	require.Equal(t, uintptr(32), memutils.AlignUp(uintptr(17), 16))
	require.Equal(t, uint(4096), memutils.AlignUp(uint(4095), 4096))
}

var checkedMulCases = map[string]struct {
	Count    uint64
	Size     uint64
	Product  uint64
	Overflow bool
}{
	"Small": {
		Count:   4,
		Size:    8,
		Product: 32,
	},
	"Zero Count": {
		Count:   0,
		Size:    math.MaxUint64,
		Product: 0,
	},
	"Max Without Overflow": {
		Count:   1,
		Size:    math.MaxUint64,
		Product: math.MaxUint64,
	},
	"Half Times Four": {
		Count:    4,
		Size:     math.MaxUint64/2 + 1,
		Overflow: true,
	},
	"Wraps Past Max": {
		Count:    3,
		Size:     math.MaxUint64 / 2,
		Overflow: true,
	},
}

func TestCheckedMul(t *testing.T) {
	for name, testCase := range checkedMulCases {
		t.Run(name, func(t *testing.T) {
			product, err := memutils.CheckedMul(testCase.Count, testCase.Size)
			if testCase.Overflow {
				require.ErrorIs(t, err, memutils.ErrOverflow)
				return
			}

			require.NoError(t, err)
			require.Equal(t, testCase.Product, product)
		})
	}
}

func TestCheckedAdd(t *testing.T) {
	sum, err := memutils.CheckedAdd(uint32(10), uint32(20))
	require.NoError(t, err)
	require.Equal(t, uint32(30), sum)

	_, err = memutils.CheckedAdd(uint32(math.MaxUint32), uint32(1))
	require.ErrorIs(t, err, memutils.ErrOverflow)
}

func TestDetailedStatisticsAdd(t *testing.T) {
	var first memutils.DetailedStatistics
	first.Clear()
	first.AddBlock(32, 100, false)
	first.AddBlock(32, 10, true)

	var second memutils.DetailedStatistics
	second.Clear()
	second.AddBlock(32, 5, false)

	var total memutils.DetailedStatistics
	total.Clear()
	total.AddDetailedStatistics(&first)
	total.AddDetailedStatistics(&second)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount:      3,
			AllocationCount: 2,
			BlockBytes:      3*32 + 115,
			AllocationBytes: 105,
		},
		FreeBlockCount:    1,
		FreeBytes:         10,
		AllocationSizeMin: 5,
		AllocationSizeMax: 100,
		FreeBlockSizeMin:  10,
		FreeBlockSizeMax:  10,
	}, total)

	total.Clear()
	require.Zero(t, total.BlockCount)
	require.Equal(t, uintptr(math.MaxUint), total.AllocationSizeMin)
}
