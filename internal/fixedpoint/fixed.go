// Package fixedpoint implements the integer encoding of numbers used by the
// expression evaluator: a signed 64-bit value scaled by One, with no native
// fractional arithmetic.
package fixedpoint

import (
	"fmt"
	"strconv"
)

// FracBits is the number of fractional bits in a Fixed.
const FracBits = 4

// One is the Fixed encoding of the integer 1 (the scale factor).
const One Fixed = 1 << FracBits

// Fixed is a fixed-point number with FracBits fractional bits.
type Fixed int64

// FromInt encodes an integer. Values outside [MinInt, MaxInt] wrap.
func FromInt(n int64) Fixed { return Fixed(n << FracBits) }

// Largest and smallest integers FromInt encodes exactly.
const (
	MaxInt = int64(^uint64(0)>>1) >> FracBits
	MinInt = -MaxInt - 1
)

// Int returns the integer part, truncating toward negative infinity.
func (f Fixed) Int() int64 { return int64(f) >> FracBits }

// Frac returns the raw fractional bits.
func (f Fixed) Frac() int64 { return int64(f) & (int64(One) - 1) }

// IsInt reports whether f has no fractional part.
func (f Fixed) IsInt() bool { return f.Frac() == 0 }

// Mul multiplies and rescales by One. Overflow of the raw product is the
// caller's responsibility.
func (f Fixed) Mul(g Fixed) Fixed { return f * g / One }

// Raw returns the encoded integer.
func (f Fixed) Raw() int64 { return int64(f) }

// Float64 decodes f for display.
func (f Fixed) Float64() float64 { return float64(f) / float64(One) }

// String formats f as a decimal number.
func (f Fixed) String() string {
	if f.IsInt() {
		return strconv.FormatInt(f.Int(), 10)
	}
	return strconv.FormatFloat(f.Float64(), 'f', -1, 64)
}

// Parse decodes a decimal literal such as "10" or "2.5". Fractions are
// truncated to FracBits of precision.
func Parse(s string) (Fixed, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > MaxInt || n < MinInt {
			return 0, fmt.Errorf("fixedpoint: %s out of range", s)
		}
		return FromInt(n), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("fixedpoint: parse %q: %w", s, err)
	}
	if v > float64(MaxInt) || v < float64(MinInt) {
		return 0, fmt.Errorf("fixedpoint: %s out of range", s)
	}
	return Fixed(v * float64(One)), nil
}
