// Package signin provides the sign-in view for the TUI.
package signin

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// errMissingCredentials is shown when either field is blank.
var errMissingCredentials = errors.New("email and password are required")

const (
	fieldEmail = iota
	fieldPassword
)

// View is the email and password sign-in form.
type View struct {
	styles  *styles.Styles
	session driving.SessionHolder
	ctx     context.Context

	fields []*input.Field
	focus  int
	busy   bool
	err    error
	width  int
	height int
}

// NewView creates a new sign-in view.
func NewView(s *styles.Styles, session driving.SessionHolder) *View {
	return &View{
		styles:  s,
		session: session,
		ctx:     context.Background(),
		fields: []*input.Field{
			input.NewField(s, "Email", "you@example.com"),
			input.NewPasswordField(s, "Password"),
		},
	}
}

// SetContext sets the context used for sign-in calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init resets the form and focuses the email field.
func (v *View) Init() tea.Cmd {
	v.busy = false
	v.err = nil
	v.fields[fieldPassword].Reset()
	return v.setFocus(fieldEmail)
}

// Update handles messages for the sign-in view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SignInCompleted:
		v.busy = false
		v.err = msg.Err
		v.fields[fieldPassword].Reset()
		if msg.Err != nil {
			return v, v.setFocus(fieldPassword)
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

// handleKeyMsg handles key presses. Input is ignored while a sign-in is in flight.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.busy {
		return v, nil
	}

	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		return v, v.setFocus((v.focus + 1) % len(v.fields))
	case "enter":
		if v.focus == fieldEmail {
			return v, v.setFocus(fieldPassword)
		}
		return v, v.submit()
	}

	var cmd tea.Cmd
	v.fields[v.focus], cmd = v.fields[v.focus].Update(msg)
	return v, cmd
}

// submit returns a command that signs in with the entered credentials.
func (v *View) submit() tea.Cmd {
	email := strings.TrimSpace(v.fields[fieldEmail].Value())
	password := v.fields[fieldPassword].Value()
	if email == "" || password == "" {
		v.err = errMissingCredentials
		return nil
	}

	v.busy = true
	v.err = nil
	ctx, session := v.ctx, v.session
	return func() tea.Msg {
		return messages.SignInCompleted{Err: session.SignIn(ctx, email, password)}
	}
}

func (v *View) setFocus(index int) tea.Cmd {
	v.focus = index
	for i, f := range v.fields {
		if i != index {
			f.Blur()
		}
	}
	return v.fields[index].Focus()
}

// View renders the sign-in form.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sign in"))
	b.WriteString("\n\n")

	for _, f := range v.fields {
		b.WriteString(f.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.busy:
		b.WriteString(v.styles.Muted.Render("Signing in..."))
		b.WriteString("\n\n")
	case v.err != nil:
		// Identity provider messages are shown verbatim.
		b.WriteString(v.styles.Error.Render(v.err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(v.styles.Help.Render("[tab] next field  [enter] sign in  [ctrl+c] quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	for _, f := range v.fields {
		f.SetWidth(width / 2)
	}
}

// Email returns the entered email.
func (v *View) Email() string {
	return v.fields[fieldEmail].Value()
}

// Focus returns the index of the focused field.
func (v *View) Focus() int {
	return v.focus
}

// Busy reports whether a sign-in is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
