// Package calc is the host object patched by calcpatch: the calculator's
// user functions as they exist before any patch is applied.
package calc

import (
	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/fibonacci"
	"github.com/agbru/calcpatch/internal/fixedpoint"
	"github.com/agbru/calcpatch/internal/intercept"
	"github.com/agbru/calcpatch/internal/patch"
)

// Functions returns the original user functions of the calc object.
func Functions() []*expr.Func {
	return []*expr.Func{
		{Name: patch.TargetNop, Call: nop, Cleanup: noCleanup},
		{Name: patch.TargetFib, Call: fib, Cleanup: noCleanup},
	}
}

// Register adds the calc object to t.
func Register(t *intercept.Table) error {
	return t.Register(patch.CalcObject, Functions()...)
}

func nop(*expr.Func, expr.Args, any) (fixedpoint.Fixed, error) { return 0, nil }

func noCleanup(*expr.Func, any) {}

// fib is the unpatched evaluator: the linear recurrence.
func fib(_ *expr.Func, args expr.Args, _ any) (fixedpoint.Fixed, error) {
	if len(args) == 0 || args[0].Kind != expr.Const {
		return -1, apperrors.ValidationError{Field: "args[0]", Message: "fib expects one constant argument"}
	}
	n := args[0].Value.Int()
	if n < 0 {
		return -1, apperrors.ValidationError{Field: "args[0]", Message: "argument is negative"}
	}
	v, err := fibonacci.NaiveFixed(uint64(n))
	if err != nil {
		return -1, apperrors.ValidationError{Field: "args[0]", Message: err.Error()}
	}
	return v, nil
}
