package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorIris  = lipgloss.Color("#5D3FD3")
	colorSlate = lipgloss.Color("#667085")

	queuedStyle = lipgloss.NewStyle().
			Foreground(colorSlate)

	runningStyle = lipgloss.NewStyle().
			Foreground(colorIris).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	skippedStyle = lipgloss.NewStyle().
			Foreground(colorSlate).
			Faint(true)

	logStyle = lipgloss.NewStyle().
			Foreground(colorSlate).
			PaddingLeft(4)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorIris).
			Italic(true)
)
