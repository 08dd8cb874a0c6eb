// Package expr holds the call interface shared by the expression evaluator
// and the functions it invokes. The evaluator owns argument vectors and
// per-call context; callees read them and never retain them past the call.
package expr

import (
	"fmt"

	"github.com/agbru/calcpatch/internal/fixedpoint"
)

// Kind tags an argument node.
type Kind int

const (
	// Const is a numeric literal.
	Const Kind = iota
	// Call is any other sub-expression (a nested call, a variable, ...).
	Call
)

func (k Kind) String() string {
	switch k {
	case Const:
		return "const"
	case Call:
		return "call"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is one argument of a call.
type Node struct {
	Kind Kind
	// Value is set for Const nodes.
	Value fixedpoint.Fixed
	// Name is the callee or variable name for non-constant nodes.
	Name string
}

// Num returns a constant node.
func Num(v fixedpoint.Fixed) Node { return Node{Kind: Const, Value: v} }

// Int returns a constant node holding the integer n.
func Int(n int64) Node { return Num(fixedpoint.FromInt(n)) }

// Ref returns a non-constant node referring to name.
func Ref(name string) Node { return Node{Kind: Call, Name: name} }

// Args is the ordered argument vector of a call.
type Args []Node

// CallFunc is the call entry point of a function.
type CallFunc func(f *Func, args Args, c any) (fixedpoint.Fixed, error)

// CleanupFunc releases whatever a previous call left in c.
type CleanupFunc func(f *Func, c any)

// Func identifies a callable function: its name and its entry points.
type Func struct {
	Name    string
	Call    CallFunc
	Cleanup CleanupFunc
}
