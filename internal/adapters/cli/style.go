package cli

import "github.com/charmbracelet/lipgloss"

var (
	styleSuccess = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	styleWarning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	styleDim = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	styleLabel = lipgloss.NewStyle().
			Bold(true).
			Width(10)

	successPrefix = styleSuccess.Render("✓")
	warningPrefix = styleWarning.Render("⚠")
	errorPrefix   = styleError.Render("✗")
)
