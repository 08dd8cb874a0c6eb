package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/calcpatch/internal/ui"
)

// BuildInfo identifies a calcpatch binary. The fields are set at link time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// DisplayVersion writes the build information.
func DisplayVersion(out io.Writer, info BuildInfo) {
	th := ui.GetCurrentTheme()
	fmt.Fprintf(out, "%s %s\n", th.Title.Render("calcpatch"), info.Version)
	fmt.Fprintf(out, "%s %s\n", th.Key.Render("Git commit:"), info.Commit)
	fmt.Fprintf(out, "%s %s\n", th.Key.Render("Build date:"), info.BuildDate)
	fmt.Fprintf(out, "%s %s %s/%s\n", th.Key.Render("Go version:"), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
