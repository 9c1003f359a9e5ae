package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/cleanbot/internal/models"
)

// cardWidth is the inner width of a dashboard card, padding included.
const cardWidth = 38

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1).
			Width(cardWidth)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(fgColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	bigNumberStyle = lipgloss.NewStyle().
			Bold(true)
)

func statusColor(s models.RobotStatus) lipgloss.Color {
	switch s {
	case models.StatusCleaning:
		return successColor
	case models.StatusReturning:
		return warningColor
	case models.StatusCharging:
		return primaryColor
	case models.StatusOffline:
		return errorColor
	default:
		return mutedColor
	}
}

func batteryColor(percentage int) lipgloss.Color {
	switch models.BandFor(percentage) {
	case models.BatteryLow:
		return errorColor
	case models.BatteryMedium:
		return warningColor
	default:
		return successColor
	}
}

func severityColor(s models.Severity) lipgloss.Color {
	switch s {
	case models.SeveritySuccess:
		return successColor
	case models.SeverityWarning:
		return warningColor
	default:
		return cyanColor
	}
}
