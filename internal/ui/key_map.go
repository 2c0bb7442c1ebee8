package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	enter      key.Binding
	back       key.Binding
	yes        key.Binding
	no         key.Binding
	toggle     key.Binding
	pane       key.Binding
	prevField  key.Binding
	targetType key.Binding
	execute    key.Binding
	add        key.Binding
	edit       key.Binding
	remove     key.Binding
	ping       key.Binding
	menu       key.Binding
	save       key.Binding
	refresh    key.Binding
	playbooks  key.Binding
	nodes      key.Binding
	groups     key.Binding
	executions key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:         key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		pane:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		prevField:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous")),
		targetType: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "nodes/groups")),
		execute:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "execute")),
		add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		remove:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		ping:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "ping selected")),
		menu:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu")),
		save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		playbooks:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "playbooks")),
		nodes:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "nodes")),
		groups:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "groups")),
		executions: key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "executions")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.toggle, k.pane, k.targetType, k.execute},
		{k.add, k.edit, k.remove, k.ping, k.menu},
		{k.playbooks, k.nodes, k.groups, k.executions},
		{k.refresh, k.help, k.quit},
	}
}

// sectionHelp returns the bindings shown in the footer for section s.
func (k keyMap) sectionHelp(s Section) []key.Binding {
	switch s {
	case PlaybooksSection:
		return []key.Binding{k.toggle, k.pane, k.targetType, k.execute, k.enter, k.help, k.quit}
	case NodesSection:
		return []key.Binding{k.add, k.edit, k.remove, k.toggle, k.ping, k.menu, k.help, k.quit}
	case GroupsSection:
		return []key.Binding{k.add, k.edit, k.remove, k.menu, k.help, k.quit}
	default:
		return []key.Binding{k.enter, k.refresh, k.help, k.quit}
	}
}
