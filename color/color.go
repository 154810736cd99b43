// Package color names the colors the CLI output is drawn with.
package color

import "github.com/charmbracelet/lipgloss"

// New initializes a lipgloss.Color from a string value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// Standard ANSI 8-color palette.
var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
	White  = New("7")
	Black  = New("8")
)

// Roles. Commands use these rather than raw palette entries.
var (
	Accent  = New("205")
	Success = Green
	Failure = Red
	Muted   = New("#808080")
	Link    = Blue
)

// Swatch returns the color of a hex value found in a theme document, or
// Muted when the value is not a color lipgloss understands.
func Swatch(hex string) lipgloss.Color {
	if len(hex) == 9 {
		hex = hex[:7]
	}
	if len(hex) != 4 && len(hex) != 7 || hex[0] != '#' {
		return Muted
	}
	return New(hex)
}
