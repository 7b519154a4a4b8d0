// Package status renders the one-line bar at the bottom of the TUI.
package status

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
)

// State is the outcome shown on the left of the bar.
type State string

const (
	StateReady   State = "ready"
	StateBusy    State = "busy"
	StateSuccess State = "success"
	StateError   State = "error"
)

const defaultWidth = 80

// Bar shows the last outcome and the key hints for the current view.
type Bar struct {
	styles   *styles.Styles
	help     help.Model
	bindings []key.Binding
	state    State
	message  string
	width    int
}

// NewBar returns a bar in the ready state. A nil s uses the default styles.
func NewBar(s *styles.Styles) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	h := help.New()
	h.ShortSeparator = " · "
	h.Styles.ShortKey = s.Label
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{styles: s, help: h, state: StateReady, width: defaultWidth}
}

// View renders the bar at its current width. Hints are dropped before the
// outcome when space runs out.
func (b *Bar) View() string {
	left := b.outcome()
	b.help.Width = max(b.width-lipgloss.Width(left)-2, 0)
	right := b.help.ShortHelpView(b.bindings)

	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) outcome() string {
	switch b.state {
	case StateBusy:
		return b.styles.Muted.Render(orDefault(b.message, "Working..."))
	case StateSuccess:
		return b.styles.Success.Render(b.message)
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	default:
		return b.styles.Muted.Render("Ready")
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// SetBindings replaces the key hints.
func (b *Bar) SetBindings(bindings []key.Binding) {
	b.bindings = bindings
}

// SetState shows message with the given outcome.
func (b *Bar) SetState(state State, message string) {
	b.state, b.message = state, message
}

// SetError shows err, or clears the bar when err is nil.
func (b *Bar) SetError(err error) {
	if err == nil {
		b.Clear()
		return
	}
	b.SetState(StateError, err.Error())
}

// Clear returns the bar to the ready state.
func (b *Bar) Clear() {
	b.SetState(StateReady, "")
}

func (b *Bar) State() State { return b.state }

func (b *Bar) Message() string { return b.message }

func (b *Bar) SetWidth(width int) { b.width = width }
