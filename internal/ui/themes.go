package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a set of lipgloss styles for each category of output.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Title is used for headings and command banners.
	Title lipgloss.Style
	// Key is used for labels in key/value listings.
	Key lipgloss.Style
	// Value is used for computed values.
	Value lipgloss.Style
	// Success marks completed operations.
	Success lipgloss.Style
	// Warning marks no-op teardowns and other non-critical conditions.
	Warning lipgloss.Style
	// Error marks failures.
	Error lipgloss.Style
	// Dim is used for secondary details.
	Dim lipgloss.Style
}

func newTheme(name string, primary, secondary, success, warning, failure lipgloss.TerminalColor) Theme {
	return Theme{
		Name:    name,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(primary),
		Key:     lipgloss.NewStyle().Foreground(secondary),
		Value:   lipgloss.NewStyle().Bold(true).Foreground(primary),
		Success: lipgloss.NewStyle().Foreground(success),
		Warning: lipgloss.NewStyle().Foreground(warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(failure),
		Dim:     lipgloss.NewStyle().Foreground(secondary),
	}
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = newTheme("dark",
		lipgloss.Color("39"),  // bright blue
		lipgloss.Color("245"), // grey
		lipgloss.Color("82"),  // bright green
		lipgloss.Color("220"), // yellow
		lipgloss.Color("196"), // red
	)

	// LightTheme uses darker colors for light backgrounds.
	LightTheme = newTheme("light",
		lipgloss.Color("27"),
		lipgloss.Color("240"),
		lipgloss.Color("28"),
		lipgloss.Color("130"),
		lipgloss.Color("124"),
	)

	// NoColorTheme disables all styling.
	// Used when NO_COLOR is set or --no-color is given.
	NoColorTheme = Theme{
		Name:    "none",
		Title:   lipgloss.NewStyle(),
		Key:     lipgloss.NewStyle(),
		Value:   lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
	}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates a theme by name: "dark", "light" or "none". Unknown
// names select the dark theme.
func SetTheme(name string) {
	switch name {
	case "light":
		SetCurrentTheme(LightTheme)
	case "none":
		SetCurrentTheme(NoColorTheme)
	default:
		SetCurrentTheme(DarkTheme)
	}
}

// InitTheme selects the startup theme. Colors are disabled when noColor is
// true or the NO_COLOR environment variable is set (https://no-color.org/).
func InitTheme(noColor bool) {
	if noColor {
		SetCurrentTheme(NoColorTheme)
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetCurrentTheme(DarkTheme)
}
