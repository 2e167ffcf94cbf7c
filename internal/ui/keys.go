// Package ui provides the terminal dashboard for focusflow.
package ui

import "github.com/charmbracelet/bubbles/key"

func bind(helpKey, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpKey, desc))
}

// GlobalKeyMap defines keys available throughout the application.
type GlobalKeyMap struct {
	Quit     key.Binding
	Help     key.Binding
	NextPane key.Binding
	Pane1    key.Binding
	Pane2    key.Binding
	Pane3    key.Binding
	Refresh  key.Binding
}

// DefaultGlobalKeyMap returns the default global key bindings.
func DefaultGlobalKeyMap() GlobalKeyMap {
	return GlobalKeyMap{
		Quit:     bind("q", "quit", "q", "ctrl+c"),
		Help:     bind("?", "help", "?"),
		NextPane: bind("tab", "next pane", "tab"),
		Pane1:    bind("1", "habits", "1"),
		Pane2:    bind("2", "timer", "2"),
		Pane3:    bind("3", "progress", "3"),
		Refresh:  bind("ctrl+r", "reload", "ctrl+r"),
	}
}

// HabitKeyMap defines keys for the habits pane.
type HabitKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Add      key.Binding
	Template key.Binding
	Delete   key.Binding
}

// DefaultHabitKeyMap returns the default habit key bindings.
func DefaultHabitKeyMap() HabitKeyMap {
	return HabitKeyMap{
		Up:       bind("k/↑", "up", "k", "up"),
		Down:     bind("j/↓", "down", "j", "down"),
		Toggle:   bind("space", "log", " ", "enter"),
		Add:      bind("a", "add", "a"),
		Template: bind("t", "template", "t"),
		Delete:   bind("x", "delete", "x"),
	}
}

// TimerKeyMap defines keys for the focus timer pane.
type TimerKeyMap struct {
	Toggle      key.Binding
	Reset       key.Binding
	SkipBreak   key.Binding
	BreakLength key.Binding
	BreakToggle key.Binding
	Longer      key.Binding
	Shorter     key.Binding
}

// DefaultTimerKeyMap returns the default timer key bindings.
func DefaultTimerKeyMap() TimerKeyMap {
	return TimerKeyMap{
		Toggle:      bind("space", "start/pause", " ", "enter"),
		Reset:       bind("r", "reset", "r"),
		SkipBreak:   bind("s", "skip break", "s"),
		BreakLength: bind("b", "break length", "b"),
		BreakToggle: bind("B", "breaks on/off", "B"),
		Longer:      bind("+", "+5 min", "+", "="),
		Shorter:     bind("-", "-5 min", "-"),
	}
}

// InputKeyMap defines keys used while a text input or picker is open.
type InputKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
	Next    key.Binding
	Prev    key.Binding
}

// DefaultInputKeyMap returns the default input mode key bindings.
func DefaultInputKeyMap() InputKeyMap {
	return InputKeyMap{
		Confirm: bind("enter", "save", "enter"),
		Cancel:  bind("esc", "cancel", "esc"),
		Next:    bind("tab", "next", "tab", "down"),
		Prev:    bind("shift+tab", "previous", "shift+tab", "up"),
	}
}

// ConfirmKeyMap defines keys for the delete confirmation dialog.
type ConfirmKeyMap struct {
	Yes key.Binding
	No  key.Binding
}

// DefaultConfirmKeyMap returns the default confirmation key bindings.
func DefaultConfirmKeyMap() ConfirmKeyMap {
	return ConfirmKeyMap{
		Yes: bind("y", "confirm", "y", "enter"),
		No:  bind("n", "cancel", "n", "esc"),
	}
}
