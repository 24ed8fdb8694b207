package main

import (
	"fmt"
	"io"
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/tmalloc/heap"
	"github.com/vkngwrapper/tmalloc/memutils"
)

type scenario struct {
	Description string
	Run         func(w io.Writer, h *heap.Heap) error
}

var scenarios = map[string]scenario{
	"A": {
		Description: "allocate 16 bytes, free them, allocate 16 bytes again",
		Run:         runReuseScenario,
	},
	"B": {
		Description: "allocate 8 bytes twice, free the first block",
		Run:         runFreeFirstScenario,
	},
	"C": {
		Description: "allocate 8 bytes and free them",
		Run:         runFreeOnlyScenario,
	},
	"D": {
		Description: "zero-allocate 4 elements whose total size overflows",
		Run:         runCallocOverflowScenario,
	},
}

func init() {
	rootCmd.AddCommand(newScenarioCmd())
}

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario <A|B|C|D>",
		Short: "Run one of the reference allocation scenarios",
		Long: `The scenario command runs a short allocation program and prints the heap
after each step.

  A  allocate 16 bytes, free them, allocate 16 bytes again
  B  allocate 8 bytes twice, free the first block
  C  allocate 8 bytes and free them
  D  zero-allocate 4 elements whose total size overflows`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, strings.ToUpper(args[0]))
		},
	}
}

func runScenario(cmd *cobra.Command, name string) error {
	s, ok := scenarios[name]
	if !ok {
		return errors.Wrapf(memutils.ErrInvalidArgument, "unknown scenario %q", name)
	}

	h, err := newHeap(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scenario %s: %s\n", name, s.Description)
	return s.Run(out, h)
}

func step(w io.Writer, h *heap.Heap, format string, args ...any) error {
	fmt.Fprintf(w, "-- "+format+"\n", args...)
	return printHeap(w, h)
}

func runReuseScenario(w io.Writer, h *heap.Heap) error {
	first, err := h.Alloc(16)
	if err != nil {
		return err
	}
	region := unsafe.Slice((*byte)(first), 16)
	for i := range region {
		region[i] = 0xA5
	}
	if err := step(w, h, "allocated 16 bytes at %p", first); err != nil {
		return err
	}

	h.Free(first)
	if err := step(w, h, "freed %p", first); err != nil {
		return err
	}

	second, err := h.Alloc(16)
	if err != nil {
		return err
	}
	if err := step(w, h, "allocated 16 bytes at %p (same address: %t)", second, first == second); err != nil {
		return err
	}

	h.Free(second)
	return nil
}

func runFreeFirstScenario(w io.Writer, h *heap.Heap) error {
	first, err := h.Alloc(8)
	if err != nil {
		return err
	}
	second, err := h.Alloc(8)
	if err != nil {
		return err
	}
	if err := step(w, h, "allocated 8 bytes at %p and %p", first, second); err != nil {
		return err
	}

	h.Free(first)
	return step(w, h, "freed %p", first)
}

func runFreeOnlyScenario(w io.Writer, h *heap.Heap) error {
	block, err := h.Alloc(8)
	if err != nil {
		return err
	}
	if err := step(w, h, "allocated 8 bytes at %p", block); err != nil {
		return err
	}

	h.Free(block)
	return step(w, h, "freed %p", block)
}

func runCallocOverflowScenario(w io.Writer, h *heap.Heap) error {
	block, err := h.Calloc(4, ^uintptr(0)/2+1)
	if !errors.Is(err, memutils.ErrOverflow) {
		return errors.Errorf("expected an overflow error, got %v", err)
	}

	return step(w, h, "zero-allocate returned %p: %v", block, err)
}
