package memutils

import (
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer
}

func CheckPow2[T Number](number T, name string) error {
	if number <= 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two
func AlignUp[T constraints.Unsigned](value T, alignment T) T {
	return (value + alignment - 1) &^ (alignment - 1)
}

// CheckedMul multiplies count by size. The product is verified by dividing it back by count,
// and ErrOverflow is returned if the division does not reproduce size.
func CheckedMul[T constraints.Unsigned](count, size T) (T, error) {
	product := count * size
	if count != 0 && product/count != size {
		return 0, cerrors.Wrapf(ErrOverflow, "%d * %d", count, size)
	}
	return product, nil
}

// CheckedAdd adds two unsigned values and returns ErrOverflow if the sum wraps
func CheckedAdd[T constraints.Unsigned](a, b T) (T, error) {
	sum := a + b
	if sum < a {
		return 0, cerrors.Wrapf(ErrOverflow, "%d + %d", a, b)
	}
	return sum, nil
}
