// Package collections provides the collections view for the TUI.
package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

var errBlankName = errors.New("collection name must not be blank")

// View lists the user's collections and creates new ones.
type View struct {
	styles  *styles.Styles
	service driving.CollectionService
	ctx     context.Context

	list      *list.CollectionList
	nameField *input.Field
	creating  bool
	loading   bool
	// selectID is selected once the next load completes.
	selectID string
	notice   string
	err      error
	width    int
	height   int
}

// NewView creates a new collections view.
func NewView(s *styles.Styles, service driving.CollectionService) *View {
	return &View{
		styles:    s,
		service:   service,
		ctx:       context.Background(),
		list:      list.NewCollectionList(s),
		nameField: input.NewField(s, "Name", "Product docs"),
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init initialises the view and loads collections.
func (v *View) Init() tea.Cmd {
	v.creating = false
	v.notice = ""
	return v.load()
}

// load returns a command that lists collections.
func (v *View) load() tea.Cmd {
	v.loading = true
	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		collections, err := service.List(ctx)
		return messages.CollectionsLoaded{Collections: collections, Err: err}
	}
}

// create returns a command that creates a collection from the name field.
func (v *View) create() tea.Cmd {
	name := v.nameField.Value()
	if strings.TrimSpace(name) == "" {
		v.err = errBlankName
		return nil
	}

	v.err = nil
	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		created, err := service.Create(ctx, name)
		return messages.CollectionCreated{Collection: created, Err: err}
	}
}

// Update handles messages for the collections view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.creating {
			return v.handleCreateKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.CollectionsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.list.SetCollections(msg.Collections)
		if v.selectID != "" {
			v.list.Select(v.selectID)
			v.selectID = ""
		}
		return v, nil

	case messages.CollectionCreated:
		if msg.Err != nil {
			if errors.Is(msg.Err, domain.ErrInvalidInput) {
				v.err = errBlankName
			} else {
				v.err = msg.Err
			}
			return v, nil
		}
		v.creating = false
		v.nameField.Reset()
		v.nameField.Blur()
		if msg.Collection != nil {
			v.notice = fmt.Sprintf("Created collection %s", msg.Collection.Name)
			v.selectID = msg.Collection.ID
		} else {
			v.notice = "Collection created."
		}
		return v, v.load()
	}

	return v, nil
}

// handleKeyMsg handles key presses on the list.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k", "down", "j":
		v.list.Update(msg)
	case "enter", "u":
		if c := v.list.SelectedCollection(); c != nil {
			collection := *c
			return v, func() tea.Msg {
				return messages.CollectionSelected{Collection: collection}
			}
		}
	case "n":
		v.creating = true
		v.notice = ""
		v.err = nil
		return v, v.nameField.Focus()
	case "r":
		v.notice = ""
		return v, v.load()
	case "ctrl+o":
		return v, func() tea.Msg { return messages.SignOutRequested{} }
	case "q":
		return v, func() tea.Msg { return messages.Quit{} }
	}

	return v, nil
}

// handleCreateKey handles key presses while the name prompt is open.
func (v *View) handleCreateKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.creating = false
		v.err = nil
		v.nameField.Reset()
		v.nameField.Blur()
		return v, nil
	case "enter":
		return v, v.create()
	}

	var cmd tea.Cmd
	v.nameField, cmd = v.nameField.Update(msg)
	return v, cmd
}

// View renders the collections view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Collections"))
	b.WriteString("\n\n")

	if v.loading && v.list.Count() == 0 {
		b.WriteString(v.styles.Muted.Render("Loading collections..."))
	} else {
		b.WriteString(v.list.View())
	}
	b.WriteString("\n\n")

	if v.creating {
		b.WriteString(v.nameField.View())
		b.WriteString("\n\n")
	}

	if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}
	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	b.WriteString(v.renderHelp())
	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	if v.creating {
		return v.styles.Help.Render("[enter] create  [esc] cancel")
	}
	return v.styles.Help.Render("[u] upload  [n] new  [r] reload  [ctrl+o] sign out  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	// Title, prompt and footer take about ten lines.
	v.list.SetDimensions(width, height-10)
	v.nameField.SetWidth(width / 2)
}

// Collections returns the loaded collections.
func (v *View) Collections() []domain.Collection {
	return v.list.Collections()
}

// Selected returns the selected collection, or nil.
func (v *View) Selected() *domain.Collection {
	return v.list.SelectedCollection()
}

// Creating reports whether the name prompt is open.
func (v *View) Creating() bool {
	return v.creating
}

// Loading reports whether a list call is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Notice returns the last success message.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
