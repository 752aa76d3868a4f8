package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.result != "" {
		return ""
	}

	var content string
	switch m.state {
	case StateAsk:
		content = m.viewAsk()
	case StateConfirmRelapse:
		content = m.viewConfirmRelapse()
	}

	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) viewAsk() string {
	banner := calmStyle
	if m.flash {
		banner = flashStyle
	}

	lines := []string{
		banner.Render("Daily check-in"),
		"",
		titleStyle.Render("Did you stay sober today?"),
		"",
		fmt.Sprintf("Day %d  ·  check-in streak %d  ·  best %d", m.status.DaysSober, m.status.Streak, m.status.BestRun),
		"",
	}
	if m.refused {
		lines = append(lines, warningStyle.Render("This prompt stays open until you answer."), "")
	}
	lines = append(lines, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m Model) viewConfirmRelapse() string {
	return lipgloss.JoinVertical(lipgloss.Center,
		dangerStyle.Render("Relapse"),
		"",
		m.form.View(),
		"",
		mutedStyle.Render("esc to go back"),
	)
}
