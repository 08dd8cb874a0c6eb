package fibonacci

import "errors"

// MaxFixedIndex is the largest index FixedFib accepts.
//
// The last doubling step for index k computes F(k+1) scaled by One twice
// (once per operand of the fixed-point multiply) before rescaling. With
// int64 and 4 fractional bits that requires F(k+1) < 2^55, which holds up
// to F(80). F(81) does not fit, so k = 80 would overflow an intermediate.
const MaxFixedIndex = 79

// ErrIndexOutOfRange is returned for indices above MaxFixedIndex.
var ErrIndexOutOfRange = errors.New("fibonacci: index exceeds fixed-point range")
