// Package fibonacci evaluates Fibonacci numbers in the evaluator's
// fixed-point format.
//
// FixedFib uses fast doubling over the bits of the index, O(log k)
// fixed-point multiplications:
//
//	F(2n)   = F(n) * (2*F(n+1) - F(n))
//	F(2n+1) = F(n)² + F(n+1)²
//
// NaiveFixed walks the linear recurrence and serves as the reference the
// fast path is checked against.
package fibonacci
