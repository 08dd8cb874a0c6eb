// Package ui provides the color theme of the calcpatch command line. Themes
// are lipgloss styles; NoColorTheme renders plain text.
package ui
