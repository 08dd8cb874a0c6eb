// # Naming Conventions
//
//   - Display* functions write styled output to an [io.Writer].
//   - Format* functions return a string without performing I/O.
//   - Write* functions write to the filesystem.

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agbru/calcpatch/internal/fixedpoint"
	"github.com/agbru/calcpatch/internal/ui"
)

// CallResult is the outcome of invoking one target through the dispatch
// table, possibly several times concurrently.
type CallResult struct {
	// Target is the fully qualified target, e.g. calc/user_func_fib.
	Target string
	// Args is the textual argument list as given on the command line.
	Args []string
	// Value is the value every invocation agreed on.
	Value fixedpoint.Fixed
	// Err is the error reported by the call, if any.
	Err error
	// Calls is the number of concurrent invocations.
	Calls int
	// Patched reports whether the replacement was live during the calls.
	Patched bool
	// Duration is the wall time of all invocations.
	Duration time.Duration
}

// FormatValue renders a fixed-point value with its raw encoding.
func FormatValue(v fixedpoint.Fixed) string {
	return fmt.Sprintf("%s (raw %d)", v, v.Raw())
}

// FormatQuietResult returns only the decoded value.
func FormatQuietResult(res CallResult) string {
	return res.Value.String()
}

// DisplayCallResult writes a call result.
func DisplayCallResult(out io.Writer, res CallResult) {
	th := ui.GetCurrentTheme()
	mode := th.Warning.Render("original")
	if res.Patched {
		mode = th.Success.Render("patched")
	}
	fmt.Fprintf(out, "%s %s(%s) [%s]\n", th.Title.Render("call"), res.Target, strings.Join(res.Args, ", "), mode)
	fmt.Fprintf(out, "  %s %s\n", th.Key.Render("value:"), th.Value.Render(FormatValue(res.Value)))
	if res.Err != nil {
		fmt.Fprintf(out, "  %s %s\n", th.Key.Render("error:"), th.Error.Render(res.Err.Error()))
	}
	fmt.Fprintf(out, "  %s %d in %s\n", th.Key.Render("calls:"), res.Calls, th.Dim.Render(FormatDuration(res.Duration)))
}

// DisplayStatus writes one line describing the patch state.
func DisplayStatus(out io.Writer, state, strategy string, entries int) {
	th := ui.GetCurrentTheme()
	style := th.Warning
	if state == "active" {
		style = th.Success
	}
	fmt.Fprintf(out, "%s %s %s %s %s %d\n",
		th.Title.Render("patch"), style.Render(state),
		th.Key.Render("strategy:"), strategy,
		th.Key.Render("entries:"), entries)
}

// DisplayError writes err in the error style.
func DisplayError(out io.Writer, err error) {
	th := ui.GetCurrentTheme()
	fmt.Fprintf(out, "%s %v\n", th.Error.Render("Error:"), err)
}

// FormatDuration rounds d for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return d.String()
	case d < time.Millisecond:
		return d.Round(time.Microsecond / 10).String()
	default:
		return d.Round(time.Microsecond).String()
	}
}

// WriteResultToFile writes res to path, creating parent directories.
func WriteResultToFile(res CallResult, path string) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "# calcpatch call result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Patched: %t\n", res.Patched)
	fmt.Fprintf(file, "# Calls: %d\n", res.Calls)
	fmt.Fprintf(file, "# Duration: %s\n", res.Duration)
	if res.Err != nil {
		fmt.Fprintf(file, "# Error: %v\n", res.Err)
	}
	fmt.Fprintf(file, "\n%s(%s) = %s\n", res.Target, strings.Join(res.Args, ", "), FormatValue(res.Value))
	return file.Close()
}
