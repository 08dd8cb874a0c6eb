package substitute

import (
	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/fixedpoint"
)

// NoOp is an instrumentation hook: it only records that it ran.
type NoOp struct {
	base
}

// NewNoOp returns the no-op substitute.
func NewNoOp(opts ...Option) *NoOp {
	return &NoOp{base: newBase("nop", opts)}
}

// Call ignores its arguments and returns 0.
func (n *NoOp) Call(f *expr.Func, _ expr.Args, _ any) (fixedpoint.Fixed, error) {
	n.fired(f)
	n.observe(nil)
	return 0, nil
}

// Cleanup does nothing.
func (n *NoOp) Cleanup(*expr.Func, any) {}
