package fibonacci

import (
	"fmt"
	"math/bits"

	"github.com/agbru/calcpatch/internal/fixedpoint"
)

// FixedFib returns F(k) encoded as a fixed-point number.
//
// The pair (a, b) holds (F(i), F(i+1)) for the prefix i of k's bits
// processed so far, starting from (F(0), F(1)). Each bit applies the
// doubling step, then advances the pair by one when the bit is set.
// Every product is a fixed-point multiply, rescaled by One immediately.
//
// FixedFib keeps all state on the stack and is safe for concurrent use.
func FixedFib(k uint64) (fixedpoint.Fixed, error) {
	if k > MaxFixedIndex {
		return 0, fmt.Errorf("%w: %d > %d", ErrIndexOutOfRange, k, MaxFixedIndex)
	}
	if k == 0 {
		return 0, nil
	}

	a, b := fixedpoint.Fixed(0), fixedpoint.One
	for i := bits.Len64(k) - 1; i >= 0; i-- {
		// F(2i) and F(2i+1) from F(i) and F(i+1).
		t1 := a.Mul(2*b - a)
		t2 := a.Mul(a) + b.Mul(b)
		a, b = t1, t2

		if k&(1<<uint(i)) != 0 {
			a, b = b, a+b
		}
	}
	return a, nil
}

// NaiveFixed returns F(k) in fixed-point form using the O(k) recurrence.
// It accepts the same index range as FixedFib.
func NaiveFixed(k uint64) (fixedpoint.Fixed, error) {
	if k > MaxFixedIndex {
		return 0, fmt.Errorf("%w: %d > %d", ErrIndexOutOfRange, k, MaxFixedIndex)
	}
	a, b := fixedpoint.Fixed(0), fixedpoint.One
	for i := uint64(0); i < k; i++ {
		a, b = b, a+b
	}
	return a, nil
}
