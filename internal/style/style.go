// Package style provides terminal styling for human-readable CLI output.
package style

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	colorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	Success = lipgloss.NewStyle().Foreground(colorPass).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	Error   = lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	Info    = lipgloss.NewStyle().Foreground(colorAccent)
	Dim     = lipgloss.NewStyle().Foreground(colorMuted)
	Bold    = lipgloss.NewStyle().Bold(true)
)

func init() {
	if ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.TrueColor)
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// ShouldUseColor reports whether stdout is a terminal and NO_COLOR is unset.
func ShouldUseColor() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Confidence renders an edge confidence in its semantic color.
func Confidence(value string) string {
	switch value {
	case "high":
		return Success.Render(value)
	case "medium":
		return Info.Render(value)
	case "low":
		return Warning.Render(value)
	default:
		return value
	}
}

// Fprintok writes a line prefixed with a check mark.
func Fprintok(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", Success.Render("✓"), fmt.Sprintf(format, args...))
}

// Fprintwarn writes a line prefixed with a warning sign.
func Fprintwarn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", Warning.Render("⚠"), fmt.Sprintf(format, args...))
}

// Fprintfail writes a line prefixed with a cross.
func Fprintfail(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", Error.Render("✗"), fmt.Sprintf(format, args...))
}
