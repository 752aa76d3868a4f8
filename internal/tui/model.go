// Package tui is the blocking daily check-in screen. It holds the terminal until the
// user answers and offers no way to dismiss it otherwise.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/soberlit/internal/escalation"
)

type SessionState int

const (
	StateAsk SessionState = iota
	StateConfirmRelapse
)

// Status is what the prompt shows about the current run.
type Status struct {
	DaysSober uint32
	Streak    uint32
	BestRun   uint32
}

type RelapseFormModel struct {
	Confirmed bool
}

type pulseMsg bool

type Model struct {
	keys        KeyMap
	help        help.Model
	state       SessionState
	form        *huh.Form
	relapseForm *RelapseFormModel
	status      Status
	hooks       escalation.PromptHooks
	flash       bool
	refused     bool
	result      escalation.Resolution
	width       int
	height      int
}

func NewModel(status Status, hooks escalation.PromptHooks) Model {
	return Model{
		keys:   DefaultKeyMap(),
		help:   help.New(),
		state:  StateAsk,
		status: status,
		hooks:  hooks,
	}
}

func (m Model) Init() tea.Cmd {
	return waitForPulse(m.hooks.Pulses)
}

// Result is the user's answer, empty until they give one.
func (m Model) Result() escalation.Resolution {
	return m.result
}

func waitForPulse(pulses <-chan bool) tea.Cmd {
	if pulses == nil {
		return nil
	}
	return func() tea.Msg {
		on, ok := <-pulses
		if !ok {
			return nil
		}
		return pulseMsg(on)
	}
}

func NewRelapseForm(fm *RelapseFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reset your sober counter?").
				Description("Your best check-in streak is kept.").
				Affirmative("Reset").
				Negative("Go back").
				Value(&fm.Confirmed),
		),
	).WithTheme(huh.ThemeDracula())
}

func (m *Model) openRelapseDialog() tea.Cmd {
	m.relapseForm = &RelapseFormModel{}
	m.form = NewRelapseForm(m.relapseForm)
	m.state = StateConfirmRelapse
	m.notifyDialog(true)
	return m.form.Init()
}

// finishRelapse closes the dialog; a confirmed relapse ends the prompt.
func (m *Model) finishRelapse(confirmed bool) tea.Cmd {
	m.form = nil
	m.relapseForm = nil
	if confirmed {
		m.result = escalation.ResolutionRelapse
		return tea.Quit
	}
	m.state = StateAsk
	m.notifyDialog(false)
	return nil
}

func (m *Model) notifyDialog(open bool) {
	if m.hooks.RelapseDialog != nil {
		m.hooks.RelapseDialog(open)
	}
}
