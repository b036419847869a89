package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "#39FF14" // Neon green
	ColorError   lipgloss.Color = "#FF0055" // Hot red-pink
	ColorWarning lipgloss.Color = "#FFAA00" // Electric amber
	ColorInfo    lipgloss.Color = "#00FFFF" // Neon cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "#FFFFFF" // White
	ColorSecondary lipgloss.Color = "#B4B4D0" // Lavender
	ColorMuted     lipgloss.Color = "#6B6B8D" // Purple-gray
)

// Accent colors for branding
const (
	ColorNeonPink    lipgloss.Color = "#FF2E97"
	ColorGlassBorder lipgloss.Color = "#3D3D5C"
)

// Color modes accepted by output.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

func SuccessStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorSuccess) }
func ErrorStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorError) }
func WarningStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorWarning) }
func InfoStyle() lipgloss.Style    { return lipgloss.NewStyle().Foreground(ColorInfo) }
func MutedStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorMuted) }

// DisableColors switches lipgloss to monochrome output (--no-color).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ForceColors renders colors even when stdout isn't a terminal (output.color: always).
func ForceColors() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

// UseColor decides whether output to f should be colored. noColor (--no-color)
// and NO_COLOR always win; otherwise mode picks, with auto meaning f is a terminal.
func UseColor(mode string, noColor bool, f *os.File) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// ConfigureColors applies UseColor to the global lipgloss renderer.
func ConfigureColors(mode string, noColor bool, f *os.File) bool {
	on := UseColor(mode, noColor, f)
	switch {
	case !on:
		DisableColors()
	case mode == ColorAlways:
		ForceColors()
	}
	return on
}

// PrintWarning prints a warning line to stderr.
func PrintWarning(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle().Render(SymbolWarning), msg)
}
