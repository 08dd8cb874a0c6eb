package substitute

import (
	"errors"

	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/fibonacci"
	"github.com/agbru/calcpatch/internal/fixedpoint"
	"github.com/agbru/calcpatch/internal/logging"
)

// Fib evaluates fib(k) with fixed-point fast doubling.
type Fib struct {
	base
}

// NewFib returns the Fibonacci substitute.
func NewFib(opts ...Option) *Fib {
	return &Fib{base: newBase("fib", opts)}
}

// Call expects a constant first argument and returns F(k) in fixed-point
// form, k being the integer part of the argument.
func (s *Fib) Call(f *expr.Func, args expr.Args, _ any) (fixedpoint.Fixed, error) {
	s.fired(f)

	k, err := s.index(args)
	if err != nil {
		var fields []logging.Field
		if len(args) > 0 && args[0].Kind == expr.Const {
			fields = append(fields, logging.Int64("arg", args[0].Value.Int()))
		}
		return s.fail(err, fields...)
	}
	v, err := fibonacci.FixedFib(k)
	if err != nil {
		return s.fail(apperrors.ValidationError{Field: "args[0]", Message: err.Error()}, logging.Uint64("k", k))
	}
	s.observe(nil)
	return v, nil
}

func (s *Fib) fail(err error, fields ...logging.Field) (fixedpoint.Fixed, error) {
	s.log.Error("fib: invalid argument", err, append(fields, logging.String("substitute", s.name))...)
	s.observe(err)
	return Failed, err
}

// Cleanup does nothing; Fib keeps no per-call resources.
func (s *Fib) Cleanup(*expr.Func, any) {}

func (s *Fib) index(args expr.Args) (uint64, error) {
	if len(args) == 0 {
		return 0, apperrors.ValidationError{Field: "args", Message: "expression has no argument"}
	}
	arg := args[0]
	if arg.Kind != expr.Const {
		return 0, apperrors.ValidationError{Field: "args[0]", Message: "argument is not a constant value"}
	}
	n := arg.Value.Int()
	if n < 0 {
		return 0, apperrors.ValidationError{Field: "args[0]", Message: "argument is negative"}
	}
	return uint64(n), nil
}

// IsValidation reports whether err came from argument validation.
func IsValidation(err error) bool {
	var v apperrors.ValidationError
	return errors.As(err, &v)
}
