package main

import (
	"fmt"
	"io"
	"os"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/tmalloc/heap"
	"github.com/vkngwrapper/tmalloc/memutils"
	"github.com/vkngwrapper/tmalloc/memutils/growth"
	"golang.org/x/exp/slog"
)

var (
	// Global flags
	providerName string
	capacity     int
	jsonOut      bool
	verbose      bool
	zeroOnReuse  bool
)

var rootCmd = &cobra.Command{
	Use:   "tmalloc",
	Short: "Drive a first-fit heap and inspect its block list",
	Long: `tmalloc runs small allocation programs against a first-fit heap and prints
the heap's block list after each step. The heap can grow into a Go-allocated
arena or, on Linux, an anonymous memory mapping.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "arena", "Growth provider: arena or mapped")
	rootCmd.PersistentFlags().IntVar(&capacity, "capacity", 1024*1024, "Bytes the heap may grow to")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print heap state as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every allocation and free to stderr")
	rootCmd.PersistentFlags().BoolVar(&zeroOnReuse, "zero-on-reuse", false, "Zero-fill blocks when they are reused")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newProvider() (growth.Provider, error) {
	switch providerName {
	case "arena":
		return growth.NewArena(growth.ArenaOptions{Capacity: capacity})
	case "mapped":
		return newMappedProvider(capacity)
	default:
		return nil, errors.Wrapf(memutils.ErrInvalidArgument, "unknown provider %q", providerName)
	}
}

func newHeap(stderr io.Writer) (*heap.Heap, error) {
	provider, err := newProvider()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var options heap.CreateOptions
	if zeroOnReuse {
		options.Flags |= heap.HeapCreateZeroOnReuse
	}

	return heap.New(logger, provider, options)
}

// printHeap writes the heap's block list, or its detailed map when --json is set
func printHeap(w io.Writer, h *heap.Heap) error {
	if !jsonOut {
		return h.WriteList(w)
	}

	writer := jwriter.NewWriter()
	h.PrintDetailedMap(&writer)
	if err := writer.Error(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, string(writer.Bytes()))
	return err
}
