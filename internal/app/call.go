package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/calcpatch/internal/cli"
	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/fixedpoint"
	"github.com/agbru/calcpatch/internal/logging"
	"github.com/agbru/calcpatch/internal/patch"
)

// ErrInconsistent is returned when concurrent invocations of one target
// disagree.
var ErrInconsistent = errors.New("concurrent calls returned different results")

// ResolveTarget maps a short name ("fib", "nop") or a full target name to
// the target registered on the calc object.
func ResolveTarget(name string) (string, error) {
	switch name {
	case "fib", patch.TargetFib:
		return patch.TargetFib, nil
	case "nop", patch.TargetNop:
		return patch.TargetNop, nil
	}
	return "", apperrors.NewConfigError("unknown target %q (want fib or nop)", name)
}

// ParseArgs turns command line arguments into call arguments. Numbers
// become constants; anything else becomes a reference to a function.
func ParseArgs(args []string) expr.Args {
	out := make(expr.Args, 0, len(args))
	for _, a := range args {
		if v, err := fixedpoint.Parse(a); err == nil {
			out = append(out, expr.Num(v))
			continue
		}
		out = append(out, expr.Ref(a))
	}
	return out
}

// Call enables the patch (unless Config.Unpatched), invokes target
// Config.Concurrency times concurrently, checks that every invocation
// agrees, prints the result and disables the patch. Each invocation runs
// the target's cleanup once, with the context its call received.
func (a *Application) Call(ctx context.Context, target string, args []string) int {
	name, err := ResolveTarget(target)
	if err != nil {
		cli.DisplayError(a.ErrWriter, err)
		return apperrors.ExitCode(err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancel()

	if !a.Config.Unpatched {
		if code := a.Manager.Init(ctx); code != apperrors.ExitSuccess {
			cli.DisplayError(a.ErrWriter, fmt.Errorf("patch not enabled (exit code %d)", code))
			return code
		}
		defer a.Manager.Exit(context.Background())
	}

	res, err := a.invoke(ctx, name, args)
	if err != nil {
		cli.DisplayError(a.ErrWriter, err)
		return apperrors.ExitCode(err)
	}

	if a.Config.Quiet {
		fmt.Fprintln(a.Out, cli.FormatQuietResult(res))
	} else {
		cli.DisplayCallResult(a.Out, res)
	}
	if err := cli.WriteResultToFile(res, a.Config.OutputFile); err != nil {
		cli.DisplayError(a.ErrWriter, err)
		return apperrors.ExitErrorGeneric
	}
	if res.Err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

type outcome struct {
	value fixedpoint.Fixed
	err   error
}

// frame is the per-invocation context handed to a function's call and then
// to its cleanup.
type frame struct {
	seq int
}

func (a *Application) invoke(ctx context.Context, target string, rawArgs []string) (cli.CallResult, error) {
	n := a.Config.Concurrency
	if n < 1 {
		n = 1
	}
	args := ParseArgs(rawArgs)
	results := make([]outcome, n)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fr := &frame{seq: i}
			v, err := a.Table.Call(patch.CalcObject, target, args, fr)
			if cerr := a.Table.Cleanup(patch.CalcObject, target, fr); err == nil {
				err = cerr
			}
			results[i] = outcome{value: v, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cli.CallResult{}, err
	}
	elapsed := time.Since(start)
	a.Logger.Debug("calls finished", logging.String("target", target), logging.Int("calls", n),
		logging.Float64("seconds", elapsed.Seconds()))

	first := results[0]
	for i, r := range results[1:] {
		if r.value != first.value || (r.err == nil) != (first.err == nil) {
			return cli.CallResult{}, fmt.Errorf("%w: call 0 = %s, call %d = %s", ErrInconsistent, first.value, i+1, r.value)
		}
	}

	return cli.CallResult{
		Target:   patch.CalcObject + "/" + target,
		Args:     rawArgs,
		Value:    first.value,
		Err:      first.err,
		Calls:    n,
		Patched:  a.Table.Patched(patch.CalcObject, target),
		Duration: elapsed,
	}, nil
}

// Describe writes the patch table as YAML.
func (a *Application) Describe() int {
	if err := a.Set.WriteYAML(a.Out); err != nil {
		cli.DisplayError(a.ErrWriter, err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}
