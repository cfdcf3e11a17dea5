package monitor

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#EA580C")
	secondaryColor = lipgloss.Color("#06B6D4")
	successColor   = lipgloss.Color("#22C55E")
	warningColor   = lipgloss.Color("#EAB308")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	textColor      = lipgloss.Color("#F9FAFB")

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)

	tabActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 2)

	tabInactive = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	cardBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	jobCardBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)

	statValue = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	statLabel = lipgloss.NewStyle().
			Foreground(mutedColor)

	statusSuccess = lipgloss.NewStyle().Foreground(successColor)
	statusError   = lipgloss.NewStyle().Foreground(errorColor)
	statusPending = lipgloss.NewStyle().Foreground(warningColor)

	tableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	notificationStyle = lipgloss.NewStyle().
				Foreground(successColor).
				Padding(0, 1)
)

// statusStyle colors a run status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return statusSuccess
	case "failed":
		return statusError
	}
	return statusPending
}
