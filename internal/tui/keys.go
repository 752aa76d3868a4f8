package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Sober   key.Binding
	Relapse key.Binding
	Help    key.Binding
	// Dismiss is matched only to refuse it
	Dismiss key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Sober, k.Relapse, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Sober, k.Relapse},
		{k.Help},
	}
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Sober: key.NewBinding(
			key.WithKeys("y", "s", "enter"),
			key.WithHelp("y", "yes, I stayed sober"),
		),
		Relapse: key.NewBinding(
			key.WithKeys("n", "r"),
			key.WithHelp("n", "I relapsed"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c", "ctrl+d"),
		),
	}
}
