package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/soberlit/internal/escalation"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case pulseMsg:
		m.flash = bool(msg)
		return m, waitForPulse(m.hooks.Pulses)
	}

	if m.state == StateConfirmRelapse {
		return m.updateRelapse(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Dismiss):
			m.refused = true
		case key.Matches(msg, m.keys.Sober):
			m.result = escalation.ResolutionSober
			return m, tea.Quit
		case key.Matches(msg, m.keys.Relapse):
			m.refused = false
			return m, m.openRelapseDialog()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m Model) updateRelapse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Dismiss) {
		return m, m.finishRelapse(false)
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.finishRelapse(m.relapseForm.Confirmed)
	case huh.StateAborted:
		return m, m.finishRelapse(false)
	}
	return m, cmd
}
