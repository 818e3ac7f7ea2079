package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	create    key.Binding
	favorite  key.Binding
	cycle     key.Binding
	favorites key.Binding
	plans     key.Binding
	submit    key.Binding
	focus     key.Binding
	mediaType key.Binding
	back      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		create:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		favorite:  key.NewBinding(key.WithKeys("f", " "), key.WithHelp("f", "favorite")),
		cycle:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "type filter")),
		favorites: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "favorites only")),
		plans:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "plans")),
		submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "generate")),
		focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "prompt/file")),
		mediaType: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "image/video")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.favorite},
		{k.create, k.cycle, k.favorites, k.plans},
		{k.submit, k.focus, k.mediaType, k.back},
		{k.quit},
	}
}
