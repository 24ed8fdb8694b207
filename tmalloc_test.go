package tmalloc_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/tmalloc"
)

func TestDefaultIsShared(t *testing.T) {
	first, err := tmalloc.Default()
	require.NoError(t, err)
	second, err := tmalloc.Default()
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestMallocFree(t *testing.T) {
	require.Nil(t, tmalloc.Malloc(0))

	p := tmalloc.Malloc(100)
	require.NotNil(t, p)
	require.GreaterOrEqual(t, tmalloc.UsableSize(p), uintptr(100))

	region := unsafe.Slice((*byte)(p), 100)
	for i := range region {
		region[i] = byte(i)
	}

	p = tmalloc.Realloc(p, 400)
	require.NotNil(t, p)
	region = unsafe.Slice((*byte)(p), 100)
	for i := range region {
		require.Equal(t, byte(i), region[i])
	}

	tmalloc.Free(p)
	tmalloc.Free(nil)
}

func TestCallocDefault(t *testing.T) {
	require.Nil(t, tmalloc.Calloc(0, 4))
	require.Nil(t, tmalloc.Calloc(4, ^uintptr(0)/2+1))

	p := tmalloc.Calloc(16, 4)
	require.NotNil(t, p)
	require.Equal(t, make([]byte, 64), unsafe.Slice((*byte)(p), 64))
	tmalloc.Free(p)
}

func TestPrintMemList(t *testing.T) {
	p := tmalloc.Malloc(100)
	require.NotNil(t, p)
	defer tmalloc.Free(p)

	var buf bytes.Buffer
	require.NoError(t, tmalloc.PrintMemList(&buf))
	require.True(t, strings.HasPrefix(buf.String(), "head = "))
	require.Contains(t, buf.String(), "is_free = 0")
}

func TestConcurrentDefault(t *testing.T) {
	var wg sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p := tmalloc.Malloc(uintptr(i%64 + 1))
				if p != nil {
					tmalloc.Free(p)
				}
			}
		}()
	}
	wg.Wait()

	h, err := tmalloc.Default()
	require.NoError(t, err)
	require.NoError(t, h.Validate())
}
