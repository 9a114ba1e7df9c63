// Package styles contains the shared styles for the terminal output.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

type RenderFunc func(string ...string) string

const (
	Check = "✓"
	Cross = "✘"
	Arrow = "→"
	Dot   = "•"
)

const (
	ColorSuccess = "#22c55e"
	ColorError   = "#d75f6b"
	ColorSubtle  = "#a3a3a3"
	ColorAccent  = "#7aa2f7"
	ColorPath    = "#bb9af7"
)

var (
	Bold      = lipgloss.NewStyle().Bold(true).Render
	Padding   = lipgloss.NewStyle().PaddingLeft(1).Render
	Underline = lipgloss.NewStyle().Underline(true).Render

	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render
	Subtle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSubtle)).Render
	Accent  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)).Bold(true).Render
	Path    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPath)).Render
)

// ErrorBox creates a bordered error box with title and message
func ErrorBox(title, message string) string {
	return box(ColorError, title, message)
}

// InfoBox is ErrorBox in the accent color, used for help text.
func InfoBox(title, message string) string {
	return box(ColorAccent, title, message)
}

func box(color, title, message string) string {
	edge := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	subtle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSubtle))

	lines := []string{
		edge.Render("╭ " + title),
		edge.Render("│") + " " + subtle.Render(message),
		edge.Render("╵"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
