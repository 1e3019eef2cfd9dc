package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const logoRaw = `
█▀█ █▀▀ █▀█ █▀█ █▀▀ █   █▀▀ █▀▀ ▀█▀
█▀▄ ██▄ █▀▀ █▄█ █▀  █▄▄ ██▄ ██▄  █
`

var (
	gradientStart = "#ffb000" // amber
	gradientEnd   = "#00c2ff" // sky
)

// logo renders the banner with a horizontal gradient, or plain when color
// is off
func logo() string {
	raw := strings.Trim(logoRaw, "\n")
	if !colorEnabled {
		return raw + "\n"
	}
	lines := strings.Split(raw, "\n")

	maxWidth := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > maxWidth {
			maxWidth = n
		}
	}

	startColor, _ := colorful.Hex(gradientStart)
	endColor, _ := colorful.Hex(gradientEnd)

	var result strings.Builder
	for _, line := range lines {
		for i, char := range []rune(line) {
			if char == ' ' {
				result.WriteRune(char)
				continue
			}
			c := startColor.BlendLuv(endColor, float64(i)/float64(maxWidth))
			result.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(char)))
		}
		result.WriteString("\n")
	}
	return result.String()
}
