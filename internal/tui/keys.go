package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev   key.Binding
	Next   key.Binding
	Start  key.Binding
	Back   key.Binding
	Replay key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "easier"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "harder"),
		),
		Start: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "start"),
		),
		Back: key.NewBinding(
			key.WithKeys("enter", "esc"),
			key.WithHelp("enter", "back"),
		),
		Replay: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "replay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) idleHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Start, k.Quit}
}

func (k keyMap) runningHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a-z/click", "tap drop")),
		k.Quit,
	}
}

func (k keyMap) endedHelp() []key.Binding {
	return []key.Binding{k.Back, k.Replay, k.Quit}
}
