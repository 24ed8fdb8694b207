package main

import (
	"github.com/spf13/cobra"
)

var demoSize uint

func init() {
	cmd := newDemoCmd()
	cmd.Flags().UintVar(&demoSize, "size", 100, "Bytes to allocate")
	rootCmd.AddCommand(cmd)
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Allocate one block, print the heap, free it and print again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd)
		},
	}
}

func runDemo(cmd *cobra.Command) error {
	h, err := newHeap(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	block, err := h.Alloc(uintptr(demoSize))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printHeap(out, h); err != nil {
		return err
	}

	h.Free(block)
	if err := printHeap(out, h); err != nil {
		return err
	}

	return h.Destroy()
}
