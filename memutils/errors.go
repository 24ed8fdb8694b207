package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

var (
	// ErrInvalidArgument is returned for zero-size requests and other arguments the allocator
	// cannot act upon
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOverflow is returned when a size computation does not fit in a uintptr
	ErrOverflow = errors.New("size computation overflows")
	// ErrResourceExhausted is returned when the growth provider cannot extend the heap
	ErrResourceExhausted = errors.New("heap cannot be extended")
)
