// Package substitute implements the replacement functions installed in
// place of patched targets. Every call logs one audit line proving the
// redirection is live.
package substitute

import (
	"fmt"

	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/fixedpoint"
	"github.com/agbru/calcpatch/internal/logging"
)

// Failed is the value returned by a call that reports an error.
const Failed fixedpoint.Fixed = -1

// Substitute is a call/cleanup pair installed in place of a target.
type Substitute interface {
	// Name is the short name used in the audit line.
	Name() string
	// Call runs the substitute. It returns Failed and a non-nil error on
	// invalid input.
	Call(f *expr.Func, args expr.Args, c any) (fixedpoint.Fixed, error)
	// Cleanup is paired 1:1 with calls and runs once on teardown.
	Cleanup(f *expr.Func, c any)
}

// Recorder receives the outcome of every substitute call.
type Recorder interface {
	ObserveCall(substitute string, err error)
}

// Option configures a substitute.
type Option func(*base)

// WithLogger sets the logger receiving audit and validation lines.
func WithLogger(l logging.Logger) Option {
	return func(b *base) { b.log = l }
}

// WithRecorder reports call outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(b *base) { b.rec = r }
}

type base struct {
	name string
	log  logging.Logger
	rec  Recorder
}

func newBase(name string, opts []Option) base {
	b := base{name: name, log: logging.Nop()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) Name() string { return b.name }

// fired writes the audit line for one call.
func (b *base) fired(f *expr.Func) {
	fields := []logging.Field{logging.String("substitute", b.name)}
	if f != nil {
		fields = append(fields, logging.String("target", f.Name))
	}
	b.log.Info(fmt.Sprintf("function %s is now patched", b.name), fields...)
}

func (b *base) observe(err error) {
	if b.rec != nil {
		b.rec.ObserveCall(b.name, err)
	}
}

// Func adapts a substitute to the evaluator's function value for target.
func Func(target string, s Substitute) *expr.Func {
	return &expr.Func{Name: target, Call: s.Call, Cleanup: s.Cleanup}
}
