package calc

import (
	"testing"

	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/fixedpoint"
	"github.com/agbru/calcpatch/internal/intercept"
	"github.com/agbru/calcpatch/internal/patch"
)

func TestOriginalFunctions(t *testing.T) {
	tbl := intercept.NewTable(nil)
	if err := Register(tbl); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	tests := []struct {
		name    string
		target  string
		args    expr.Args
		want    fixedpoint.Fixed
		wantErr bool
	}{
		{"nop", patch.TargetNop, expr.Args{expr.Ref("x")}, 0, false},
		{"fib(10)", patch.TargetFib, expr.Args{expr.Int(10)}, fixedpoint.FromInt(55), false},
		{"fib(0)", patch.TargetFib, expr.Args{expr.Int(0)}, 0, false},
		{"fib without args", patch.TargetFib, nil, -1, true},
		{"fib of sub-expression", patch.TargetFib, expr.Args{expr.Ref("n")}, -1, true},
		{"fib negative", patch.TargetFib, expr.Args{expr.Int(-5)}, -1, true},
		{"fib out of range", patch.TargetFib, expr.Args{expr.Int(500)}, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tbl.Call(patch.CalcObject, tt.target, tt.args, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Call() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Call() = %d, want %d", got, tt.want)
			}
			if err := tbl.Cleanup(patch.CalcObject, tt.target, nil); err != nil {
				t.Errorf("Cleanup() error: %v", err)
			}
		})
	}
}
