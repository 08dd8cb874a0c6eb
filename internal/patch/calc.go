package patch

import "github.com/agbru/calcpatch/internal/substitute"

// Names of the host object and targets patched by CalcSet.
const (
	CalcObject    = "calc"
	TargetNop     = "user_func_nop"
	TargetFib     = "user_func_fib"
	CleanupSuffix = "_cleanup"
)

// CalcSet returns the shipped patch table: the calc object's nop and fib
// user functions, each with its paired cleanup.
func CalcSet(nop, fib substitute.Substitute) *Set {
	return NewSet(Object{
		Name: CalcObject,
		Entries: []Entry{
			Replace(TargetNop, nop),
			Replace(TargetFib, fib),
		},
	})
}
