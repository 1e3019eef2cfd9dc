package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Styles for terminal output
var (
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

var colorEnabled = false

// setupColor enables styling when out is a terminal, unless --no-color or
// $NO_COLOR say otherwise
func setupColor(out io.Writer) {
	colorEnabled = false
	if !noColor && os.Getenv("NO_COLOR") == "" {
		if f, ok := out.(*os.File); ok {
			colorEnabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}

	if colorEnabled {
		pterm.EnableColor()
	} else {
		pterm.DisableColor()
	}
}

// paint styles s line by line so command output keeps its exact shape
func paint(style lipgloss.Style, s string) string {
	if !colorEnabled || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
