package lifecycle

import "fmt"

// State is the lifecycle state of a patch set.
type State int32

const (
	// Uninstalled: nothing is installed; calls reach the originals.
	Uninstalled State = iota
	// Installed: replacements are prepared but not live. Enable passes
	// through it without publishing it.
	Installed
	// Active: calls reach the substitutes.
	Active
	// Disabled: the set was active and has been torn down.
	Disabled
)

func (s State) String() string {
	switch s {
	case Uninstalled:
		return "uninstalled"
	case Installed:
		return "installed"
	case Active:
		return "active"
	case Disabled:
		return "disabled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
