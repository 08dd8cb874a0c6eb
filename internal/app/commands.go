package app

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/agbru/calcpatch/internal/cli"
	"github.com/agbru/calcpatch/internal/config"
	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/ui"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// exitError carries an exit code out of a cobra RunE.
type exitError struct{ code int }

func (e exitError) Error() string { return "exit" }

func codeErr(code int) error {
	if code == apperrors.ExitSuccess {
		return nil
	}
	return exitError{code: code}
}

// NewRootCommand builds the calcpatch command tree. Commands write results
// to out and diagnostics to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	cfg := config.Default()

	root := &cobra.Command{
		Use:           "calcpatch",
		Short:         "Live-patch the calculator's user functions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	cfg.AddFlags(root.PersistentFlags())

	// build resolves the configuration of cmd and builds the application.
	build := func(cmd *cobra.Command) (*Application, error) {
		if err := cfg.Resolve(cmd.Flags()); err != nil {
			return nil, err
		}
		ui.InitTheme(cfg.NoColor)
		return New(cfg, out, errOut)
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Enable the patch and keep it live until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			return codeErr(a.Run(cmd.Context()))
		},
	}

	call := &cobra.Command{
		Use:       "call [flags] <target> [args...]",
		Short:     "Invoke a target through the dispatch table",
		Long:      "Invoke fib or nop with the patch enabled, or the original with --unpatched. Numeric arguments are constants; any other argument is a function reference. Flags go before the target.",
		Example:   "  calcpatch call fib 10\n  calcpatch call -j 8 fib 40\n  calcpatch call --unpatched fib 12",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{"fib", "nop"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			return codeErr(a.Call(cmd.Context(), args[0], args[1:]))
		},
	}
	cfg.AddCallFlags(call.Flags())
	// Negative numbers are arguments, not flags.
	call.Flags().SetInterspersed(false)

	describe := &cobra.Command{
		Use:   "describe",
		Short: "Print the patch table as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			return codeErr(a.Describe())
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ui.InitTheme(cfg.NoColor)
			cli.DisplayVersion(cmd.OutOrStdout(), cli.BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
		},
	}

	root.AddCommand(run, call, describe, version)
	return root
}

// Execute runs the command line with args and returns the exit code.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return apperrors.ExitSuccess
	}
	if e, ok := err.(exitError); ok {
		return e.code
	}
	cli.DisplayError(errOut, err)
	if code := apperrors.ExitCode(err); code != apperrors.ExitErrorGeneric {
		return code
	}
	// Cobra reports usage problems as plain errors.
	return apperrors.ExitErrorConfig
}
