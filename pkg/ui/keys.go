package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Parent      key.Binding
	Child       key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Toggle      key.Binding
	Insert      key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Copy        key.Binding
	Help        key.Binding
	Close       key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous node")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next node")),
	Parent:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "parent")),
	Child:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "first child")),
	Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "root")),
	Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last node")),
	Toggle:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "expand or collapse")),
	Insert:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add child")),
	ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
	CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
	Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy node id")),
	Help:        key.NewBinding(key.WithKeys("?", "f1"), key.WithHelp("?", "help")),
	Close:       key.NewBinding(key.WithKeys("esc")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// bindings lists the documented bindings in help order.
func (k keyMap) bindings() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Parent, k.Child, k.Top, k.Bottom,
		k.Toggle, k.Insert, k.ExpandAll, k.CollapseAll,
		k.Copy, k.Help, k.Quit,
	}
}
