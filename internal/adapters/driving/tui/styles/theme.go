// Package styles holds the lipgloss palette and styles shared by TUI views.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette maps colour roles to terminal colours. Each role adapts to light
// and dark terminal backgrounds.
type Palette struct {
	Accent    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Dim       lipgloss.AdaptiveColor
	Good      lipgloss.AdaptiveColor
	Caution   lipgloss.AdaptiveColor
	Bad       lipgloss.AdaptiveColor
	Frame     lipgloss.AdaptiveColor
	Chrome    lipgloss.AdaptiveColor
}

// DefaultPalette is the palette used unless a view is given another.
func DefaultPalette() Palette {
	return Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"},
		Highlight: lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"},
		Text:      lipgloss.AdaptiveColor{Light: "#111827", Dark: "#E5E7EB"},
		Dim:       lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Good:      lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"},
		Caution:   lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#FACC15"},
		Bad:       lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
		Frame:     lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"},
		Chrome:    lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#111827"},
	}
}

// Styles are the rendered styles views draw with.
type Styles struct {
	palette Palette

	Header       lipgloss.Style
	Title        lipgloss.Style
	Label        lipgloss.Style
	Normal       lipgloss.Style
	Muted        lipgloss.Style
	Selected     lipgloss.Style
	Error        lipgloss.Style
	Success      lipgloss.Style
	Warning      lipgloss.Style
	InputField   lipgloss.Style
	FocusedField lipgloss.Style
	StatusBar    lipgloss.Style
	Help         lipgloss.Style
}

// New derives every style from p.
func New(p Palette) *Styles {
	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	bar := lipgloss.NewStyle().Background(p.Chrome).Padding(0, 1)
	field := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Frame).
		Padding(0, 1)

	return &Styles{
		palette:      p,
		Header:       bar.Bold(true).Foreground(p.Text),
		Title:        fg(p.Accent).Bold(true),
		Label:        fg(p.Highlight).Bold(true),
		Normal:       fg(p.Text),
		Muted:        fg(p.Dim),
		Selected:     fg(p.Chrome).Background(p.Accent).Bold(true),
		Error:        fg(p.Bad),
		Success:      fg(p.Good),
		Warning:      fg(p.Caution),
		InputField:   field,
		FocusedField: field.BorderForeground(p.Accent),
		StatusBar:    bar.Foreground(p.Dim),
		Help:         fg(p.Dim).Italic(true),
	}
}

// DefaultStyles returns New(DefaultPalette()).
func DefaultStyles() *Styles {
	return New(DefaultPalette())
}

// Palette returns the colours the styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// JobStatus picks the style for a job status line: failed jobs render as
// errors, finished ones as success, anything still moving as a warning.
func (s *Styles) JobStatus(failed bool, progress int) lipgloss.Style {
	switch {
	case failed:
		return s.Error
	case progress >= 100:
		return s.Success
	default:
		return s.Warning
	}
}
