// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Up navigates up in a list.
	Up key.Binding

	// Down navigates down in a list.
	Down key.Binding

	// Select confirms a selection.
	Select key.Binding

	// NextField moves focus to the next form field.
	NextField key.Binding

	// Submit sends the current form.
	Submit key.Binding

	// NewCollection opens the create collection prompt.
	NewCollection key.Binding

	// Upload opens the upload form for the selected collection.
	Upload key.Binding

	// Refresh reloads the current view's data.
	Refresh key.Binding

	// Job opens the job created by the last submission.
	Job key.Binding

	// SignOut ends the session.
	SignOut key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		NewCollection: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new collection"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Job: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "view job"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "sign out"),
		),
	}
}

// SignInHelp returns keybindings for the sign-in form.
func (k *KeyMap) SignInHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Select}
}

// CollectionsHelp returns keybindings for the collections list.
func (k *KeyMap) CollectionsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Upload, k.NewCollection, k.Refresh, k.SignOut, k.Quit}
}

// UploadHelp returns keybindings for the upload form.
func (k *KeyMap) UploadHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Submit, k.Job, k.Back}
}

// JobHelp returns keybindings for the job view.
func (k *KeyMap) JobHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Back}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
