package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/cleanbot/internal/models"
)

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	connected := lipgloss.NewStyle().Foreground(successColor).Render("● CONNECTED")
	if !a.snap.Status.Connected() {
		connected = lipgloss.NewStyle().Foreground(errorColor).Render("○ DISCONNECTED")
	}
	header := titleStyle.Render("🤖 Clean Bot Control Dashboard") + "  " + connected
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 40)) + "\n")

	switch a.mode {
	case "log":
		b.WriteString(a.renderEventLog())
	default:
		b.WriteString(a.renderDashboard())
	}

	// Toast
	b.WriteString("\n")
	b.WriteString(a.renderToast())

	// Message bar
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	}
	b.WriteString("\n")

	if a.input.Focused() {
		b.WriteString(inputBoxStyle.Render(a.input.View()))
		if a.suggestions.IsVisible() {
			b.WriteString("\n")
			b.WriteString(a.suggestions.Render(a.width))
		}
		b.WriteString("\n")
	}

	b.WriteString(a.help.View(keys) + "\n")

	status := fmt.Sprintf(" %s | %s | battery %d%% | progress %d%%",
		a.snap.Status.Label(), a.snap.Location, a.snap.Battery, models.ClampPercent(a.snap.Progress))
	b.WriteString(statusBarStyle.Width(max(a.width, 40)).Render(status))

	return b.String()
}

func (a *App) renderDashboard() string {
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		a.renderControl(),
		a.renderStatusCard(),
		a.renderBattery(),
		a.renderProgress(),
	)
	if a.width > 0 && a.width < lipgloss.Width(row) {
		row = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, a.renderControl(), a.renderStatusCard()),
			lipgloss.JoinHorizontal(lipgloss.Top, a.renderBattery(), a.renderProgress()),
		)
	}
	return row + "\n" + a.renderQuickStats()
}

func (a *App) renderControl() string {
	var b strings.Builder
	b.WriteString(cardTitleStyle.Render("Robot Control") + "\n\n")

	var icon, label, hint string
	labelColor := primaryColor
	switch {
	case a.snap.Phase == models.PhaseDeploying:
		icon = a.spinner.View()
		label = "Deploying..."
		hint = "Initializing systems..."
	case a.isDeployed():
		icon = "■"
		label = "Stop Robot"
		hint = "Enter to stop the cleaning cycle"
		labelColor = errorColor
	default:
		icon = "▶"
		label = "Deploy Robot"
		hint = "Enter to start autonomous cleaning"
	}

	style := lipgloss.NewStyle().Bold(true).Foreground(labelColor)
	if a.controlDisabled() {
		style = style.Faint(true)
		hint = "Unavailable while " + strings.ToLower(a.snap.Status.Label())
	}
	b.WriteString(style.Render(icon+"  "+label) + "\n")
	b.WriteString(helpStyle.Render(hint) + "\n\n")

	last := "Never"
	if !a.lastDeployed.IsZero() {
		last = a.lastDeployed.Local().Format("Mon 15:04")
		if a.now().Local().Format("2006-01-02") == a.lastDeployed.Local().Format("2006-01-02") {
			last = "Today, " + a.lastDeployed.Local().Format("3:04 PM")
		}
	}
	b.WriteString(mutedStyle.Render("Last deployed ") + last)

	return cardStyle.Render(b.String())
}

func (a *App) renderStatusCard() string {
	var b strings.Builder
	b.WriteString(cardTitleStyle.Render("Robot Status") + "\n\n")

	color := statusColor(a.snap.Status)
	badge := lipgloss.NewStyle().Foreground(color).Bold(true).Render(a.snap.Status.Label())
	dot := "○"
	if a.snap.Status.Animated() {
		dot = lipgloss.NewStyle().Foreground(color).Render("●")
	}
	b.WriteString(dot + " " + badge + "\n")
	b.WriteString(mutedStyle.Render("📍 ") + a.snap.Location + "\n\n")

	link := lipgloss.NewStyle().Foreground(successColor).Render("Connected")
	if !a.snap.Status.Connected() {
		link = lipgloss.NewStyle().Foreground(errorColor).Render("Disconnected")
	}
	b.WriteString(mutedStyle.Render("Link ") + link)

	return cardStyle.Render(b.String())
}

func (a *App) renderBattery() string {
	var b strings.Builder
	charging := a.snap.Status == models.StatusCharging

	title := cardTitleStyle.Render("Battery")
	if charging {
		title += "  " + lipgloss.NewStyle().Foreground(primaryColor).Render("⚡ Charging")
	}
	b.WriteString(title + "\n\n")

	color := batteryColor(a.snap.Battery)
	b.WriteString(bigNumberStyle.Foreground(color).Render(fmt.Sprintf("%d%%", a.snap.Battery)) + "\n")

	a.batteryBar.FullColor = string(color)
	b.WriteString(a.batteryBar.ViewAs(float64(a.snap.Battery)/100) + "\n")

	if charging {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("~%d min to full", models.MinutesToFull(a.snap.Battery))))
	} else {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("~%d min remaining", models.RemainingMinutes(a.snap.Battery))))
	}

	return cardStyle.Render(b.String())
}

func (a *App) renderProgress() string {
	var b strings.Builder
	progress := models.ClampPercent(a.snap.Progress)
	active := a.snap.Status == models.StatusCleaning

	title := cardTitleStyle.Render("Cleaning Progress")
	if progress == 100 {
		title += "  " + lipgloss.NewStyle().Foreground(successColor).Render("✓ Complete")
	}
	b.WriteString(title + "\n\n")

	numberColor := fgColor
	if active {
		numberColor = primaryColor
	}
	b.WriteString(bigNumberStyle.Foreground(numberColor).Render(fmt.Sprintf("%d%%", progress)))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d / %d m² cleaned",
		models.CleanedArea(progress, models.DefaultTotalArea), models.DefaultTotalArea)) + "\n")
	b.WriteString(a.cleaningBar.ViewAs(float64(progress)/100) + "\n")

	if active {
		b.WriteString(mutedStyle.Render("Estimated time remaining ") +
			lipgloss.NewStyle().Foreground(primaryColor).Render(fmt.Sprintf("~%d min", models.CleaningETA(progress))))
	} else {
		b.WriteString(mutedStyle.Render("Session status ") + models.SessionLabel(progress))
	}

	return cardStyle.Render(b.String())
}

func (a *App) renderQuickStats() string {
	if a.stats == nil {
		return ""
	}
	s := a.stats
	area := s.ProgressCleaned * models.DefaultTotalArea / 100

	cell := func(value, label string, color lipgloss.Color) string {
		return lipgloss.NewStyle().Width(18).Align(lipgloss.Center).Render(
			bigNumberStyle.Foreground(color).Render(value) + "\n" + mutedStyle.Render(label))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		cell(fmt.Sprintf("%d", s.TotalRuns), "Total Runs", primaryColor),
		cell(fmt.Sprintf("%d", s.CompletedRuns), "Completed", successColor),
		cell(fmt.Sprintf("%d", s.LowBatteryRuns), "Low Battery", warningColor),
		cell(fmt.Sprintf("%d m²", area), "Cleaned", fgColor),
	)
	return cardStyle.Width(76).Render(cardTitleStyle.Render("Quick Stats") + "\n" + row)
}

func (a *App) renderToast() string {
	if a.lastNote == nil {
		return ""
	}
	n := a.lastNote
	return lipgloss.NewStyle().Foreground(severityColor(n.Severity)).Render("» " + n.Message)
}

func (a *App) renderEventLog() string {
	var b strings.Builder
	b.WriteString("\n  " + cardTitleStyle.Render("📜 Event Log") + "\n")
	b.WriteString("  " + strings.Repeat("─", 50) + "\n")

	if a.journal == nil {
		b.WriteString("  " + mutedStyle.Render("Session journal not available") + "\n")
		return b.String()
	}
	if len(a.events) == 0 {
		b.WriteString("  " + mutedStyle.Render("No events yet. Press d to deploy.") + "\n")
		return b.String()
	}

	limit := len(a.events)
	if a.height > 0 && a.height-12 < limit {
		limit = max(a.height-12, 1)
	}
	for _, e := range a.events[:limit] {
		ts := mutedStyle.Render(e.Time.Local().Format("15:04:05"))
		sev := lipgloss.NewStyle().Foreground(severityColor(e.Severity)).Render(fmt.Sprintf("%-8s", e.Severity))
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n", ts, sev, e.Message))
	}
	b.WriteString("\n  " + helpStyle.Render("Press Esc or l to go back") + "\n")
	return b.String()
}
