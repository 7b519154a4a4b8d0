// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

const dateLayout = "2006-01-02"

// CollectionList displays collections in a navigable list, in the order the
// backend returned them.
type CollectionList struct {
	collections []domain.Collection
	selected    int
	styles      *styles.Styles
	width       int
	height      int
}

// NewCollectionList creates a new collection list component.
func NewCollectionList(s *styles.Styles) *CollectionList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &CollectionList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *CollectionList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *CollectionList) Update(msg tea.Msg) (*CollectionList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *CollectionList) View() string {
	if len(l.collections) == 0 {
		return l.styles.Muted.Render("No collections yet. Press n to create one.")
	}

	// One line per collection plus the header.
	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}

	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.collections) {
		end = len(l.collections)
	}

	lines := make([]string, 0, end-start+2)
	lines = append(lines, l.styles.Label.Render(fmt.Sprintf("Collections (%d)", len(l.collections))), "")
	for i := start; i < end; i++ {
		lines = append(lines, l.renderCollection(i, &l.collections[i]))
	}
	return strings.Join(lines, "\n")
}

// renderCollection formats a single row: name, creation date and id.
func (l *CollectionList) renderCollection(index int, c *domain.Collection) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := c.Name
	if name == "" {
		name = "(unnamed)"
	}

	maxNameLen := l.width - 40
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	created := ""
	if !c.CreatedAt.IsZero() {
		created = c.CreatedAt.Local().Format(dateLayout)
	}

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %-10s  %s", indicator, maxNameLen, name, created, c.ID))
	}
	return l.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxNameLen, name)) +
		l.styles.Muted.Render(fmt.Sprintf("%-10s  %s", created, c.ID))
}

// SetCollections replaces the list and keeps the selection in range.
func (l *CollectionList) SetCollections(collections []domain.Collection) {
	l.collections = collections
	if l.selected >= len(collections) {
		l.selected = len(collections) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// Collections returns the current collections.
func (l *CollectionList) Collections() []domain.Collection {
	return l.collections
}

// Selected returns the index of the selected collection.
func (l *CollectionList) Selected() int {
	return l.selected
}

// Select moves the selection to the collection with the given id.
// It reports whether the id was found.
func (l *CollectionList) Select(id string) bool {
	for i := range l.collections {
		if l.collections[i].ID == id {
			l.selected = i
			return true
		}
	}
	return false
}

// SelectedCollection returns the currently selected collection, or nil if none.
func (l *CollectionList) SelectedCollection() *domain.Collection {
	if len(l.collections) == 0 || l.selected < 0 || l.selected >= len(l.collections) {
		return nil
	}
	return &l.collections[l.selected]
}

// MoveUp moves selection up.
func (l *CollectionList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *CollectionList) MoveDown() {
	if l.selected < len(l.collections)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *CollectionList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of collections.
func (l *CollectionList) Count() int {
	return len(l.collections)
}
