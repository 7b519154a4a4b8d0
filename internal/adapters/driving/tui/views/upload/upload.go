// Package upload provides the document upload view for the TUI.
package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

var errNoCollection = errors.New("no collection selected")

const (
	focusTitle = iota
	focusContent
)

// View submits a titled document into one collection.
type View struct {
	styles    *styles.Styles
	documents driving.DocumentService
	ctx       context.Context

	collection *domain.Collection
	title      *input.Field
	content    textarea.Model
	focus      int
	busy       bool
	submission *domain.Submission
	err        error
	width      int
	height     int
}

// NewView creates a new upload view.
func NewView(s *styles.Styles, documents driving.DocumentService) *View {
	content := textarea.New()
	content.Placeholder = "Document text..."
	content.ShowLineNumbers = false
	content.CharLimit = 0
	content.SetWidth(60)
	content.SetHeight(8)

	return &View{
		styles:    s,
		documents: documents,
		ctx:       context.Background(),
		title:     input.NewField(s, "Title", "Notes"),
		content:   content,
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetCollection chooses the target collection and clears the form.
func (v *View) SetCollection(c domain.Collection) {
	v.collection = &c
	v.submission = nil
	v.err = nil
	v.busy = false
	v.title.Reset()
	v.content.Reset()
}

// Init focuses the title field.
func (v *View) Init() tea.Cmd {
	return v.setFocus(focusTitle)
}

// Update handles messages for the upload view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentSubmitted:
		v.busy = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.submission = msg.Submission
		v.title.Reset()
		v.content.Reset()
		return v, v.setFocus(focusTitle)

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

// handleKeyMsg handles key presses. Input is ignored while a submission is in flight.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.busy {
		return v, nil
	}

	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{Route: domain.RouteCollections}
		}
	case "tab", "shift+tab":
		return v, v.setFocus((v.focus + 1) % 2)
	case "ctrl+s":
		return v, v.submit()
	case "ctrl+t":
		if v.submission == nil {
			return v, nil
		}
		jobID := v.submission.Job.ID
		return v, func() tea.Msg { return messages.JobSelected{JobID: jobID} }
	case "enter":
		if v.focus == focusTitle {
			return v, v.setFocus(focusContent)
		}
	}

	var cmd tea.Cmd
	if v.focus == focusTitle {
		v.title, cmd = v.title.Update(msg)
	} else {
		v.content, cmd = v.content.Update(msg)
	}
	return v, cmd
}

// submit returns a command that submits the form. Field validation is left
// to the document service so both surfaces report the same errors.
func (v *View) submit() tea.Cmd {
	if v.collection == nil {
		v.err = errNoCollection
		return nil
	}

	v.busy = true
	v.err = nil
	ctx, documents, collectionID := v.ctx, v.documents, v.collection.ID
	in := domain.DocumentInput{Title: v.title.Value(), Content: v.content.Value()}
	return func() tea.Msg {
		sub, err := documents.Submit(ctx, collectionID, in)
		return messages.DocumentSubmitted{Submission: sub, Err: err}
	}
}

func (v *View) setFocus(focus int) tea.Cmd {
	v.focus = focus
	if focus == focusTitle {
		v.content.Blur()
		return v.title.Focus()
	}
	v.title.Blur()
	return v.content.Focus()
}

// View renders the upload form.
func (v *View) View() string {
	var b strings.Builder

	name := "(no collection)"
	if v.collection != nil {
		name = v.collection.Name
		if name == "" {
			name = v.collection.ID
		}
	}
	b.WriteString(v.styles.Title.Render("Upload to " + name))
	b.WriteString("\n\n")

	b.WriteString(v.title.View())
	b.WriteString("\n\n")
	b.WriteString(v.styles.Label.Render("Content"))
	b.WriteString("\n")
	b.WriteString(v.content.View())
	b.WriteString("\n\n")

	switch {
	case v.busy:
		b.WriteString(v.styles.Muted.Render("Submitting..."))
		b.WriteString("\n\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	case v.submission != nil:
		b.WriteString(v.styles.Success.Render(fmt.Sprintf("Created doc %s, job %s",
			v.submission.Document.ID, v.submission.Job.ID)))
		b.WriteString("\n\n")
	}

	b.WriteString(v.renderHelp())
	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	if v.submission != nil {
		return v.styles.Help.Render("[tab] next field  [ctrl+s] submit  [ctrl+t] view job  [esc] back")
	}
	return v.styles.Help.Render("[tab] next field  [ctrl+s] submit  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.title.SetWidth(width - 4)

	contentWidth := width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}
	v.content.SetWidth(contentWidth)

	contentHeight := height - 16
	if contentHeight < 3 {
		contentHeight = 3
	}
	v.content.SetHeight(contentHeight)
}

// Collection returns the target collection, or nil.
func (v *View) Collection() *domain.Collection {
	return v.collection
}

// Submission returns the last successful submission, or nil.
func (v *View) Submission() *domain.Submission {
	return v.submission
}

// Busy reports whether a submission is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
