package heap

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tmalloc/memutils"
	"github.com/vkngwrapper/tmalloc/memutils/growth"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific heap behaviors to activate or deactivate
type CreateFlags int32

var createFlagsMapping = map[CreateFlags]string{
	HeapCreateZeroOnReuse: "HeapCreateZeroOnReuse",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var str string
	for flag := CreateFlags(1); flag != 0 && flag <= f; flag <<= 1 {
		if f&flag == 0 {
			continue
		}

		name, ok := createFlagsMapping[flag]
		if !ok {
			continue
		}

		if str != "" {
			str += "|"
		}
		str += name
	}

	return str
}

const (
	// HeapCreateZeroOnReuse zero-fills the requested span of a free block when it is handed out
	// again. Freshly grown blocks are never zero-filled by the heap itself.
	HeapCreateZeroOnReuse CreateFlags = 1 << iota
)

// CreateOptions contains optional settings when creating a heap
type CreateOptions struct {
	// Flags indicates specific heap behaviors to activate or deactivate
	Flags CreateFlags
}

// New creates a new Heap that grows into the provided growth.Provider. The provider must be
// empty (its break at its base): the heap takes ownership of it and releases it on Destroy.
//
// logger - Receives debug output for every allocation and free, and error output for
// conditions the heap cannot report through its return values. May be nil.
//
// provider - The source of heap memory
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, provider growth.Provider, options CreateOptions) (*Heap, error) {
	if provider == nil {
		return nil, errors.Wrap(memutils.ErrInvalidArgument, "a growth provider is required")
	}

	if provider.Break() != uintptr(provider.Base()) {
		return nil, errors.Wrapf(memutils.ErrInvalidArgument,
			"the growth provider already holds %d bytes", growth.Extent(provider))
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Heap{
		logger:   logger,
		provider: provider,
		flags:    options.Flags,
		blocks:   blockList{base: provider.Base()},
	}, nil
}
