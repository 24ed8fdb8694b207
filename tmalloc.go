// Package tmalloc exposes a process-wide first-fit heap through malloc-style functions. Every
// function reports failure by returning nil; use the heap package directly for error details or
// for independent heaps.
package tmalloc

import (
	"io"
	"os"
	"sync"
	"unsafe"

	"github.com/vkngwrapper/tmalloc/heap"
	"github.com/vkngwrapper/tmalloc/memutils/growth"
	"golang.org/x/exp/slog"
)

var (
	defaultOnce sync.Once
	defaultHeap *heap.Heap
	defaultErr  error
)

// Default returns the process-wide heap, creating it over growth.NewDefault on first use
func Default() (*heap.Heap, error) {
	defaultOnce.Do(func() {
		provider, err := growth.NewDefault()
		if err != nil {
			defaultErr = err
			return
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		defaultHeap, defaultErr = heap.New(logger, provider, heap.CreateOptions{})
	})

	return defaultHeap, defaultErr
}

func defaultOrNil() *heap.Heap {
	h, err := Default()
	if err != nil {
		return nil
	}
	return h
}

// Malloc returns size usable bytes from the process-wide heap, or nil
func Malloc(size uintptr) unsafe.Pointer {
	h := defaultOrNil()
	if h == nil {
		return nil
	}

	p, _ := h.Alloc(size)
	return p
}

// Calloc returns count*elemSize zeroed bytes from the process-wide heap, or nil
func Calloc(count, elemSize uintptr) unsafe.Pointer {
	h := defaultOrNil()
	if h == nil {
		return nil
	}

	p, _ := h.Calloc(count, elemSize)
	return p
}

// Realloc resizes a block from the process-wide heap. On failure it returns nil and the
// original block is left untouched.
func Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	h := defaultOrNil()
	if h == nil {
		return nil
	}

	newP, _ := h.Realloc(p, size)
	return newP
}

// Free releases a block from the process-wide heap. Free(nil) does nothing.
func Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	h := defaultOrNil()
	if h == nil {
		return
	}

	h.Free(p)
}

// UsableSize returns the capacity of a block from the process-wide heap
func UsableSize(p unsafe.Pointer) uintptr {
	h := defaultOrNil()
	if h == nil {
		return 0
	}

	return h.UsableSize(p)
}

// PrintMemList writes the process-wide heap's block list to w
func PrintMemList(w io.Writer) error {
	h, err := Default()
	if err != nil {
		return err
	}

	return h.WriteList(w)
}
