// Package job provides the ingestion job view for the TUI.
package job

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

var errNoJobService = errors.New("job tracking is not available")

const (
	barWidth   = 30
	timeLayout = "2006-01-02 15:04:05"
)

// View shows one ingestion job. It is refreshed on demand, never polled.
type View struct {
	styles *styles.Styles
	jobs   driving.JobService
	ctx    context.Context

	jobID   string
	job     *domain.Job
	loading bool
	err     error
	width   int
	height  int
}

// NewView creates a new job view. jobs may be nil.
func NewView(s *styles.Styles, jobs driving.JobService) *View {
	return &View{
		styles: s,
		jobs:   jobs,
		ctx:    context.Background(),
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetJob chooses the job to show and drops the previous one.
func (v *View) SetJob(jobID string) {
	v.jobID = jobID
	v.job = nil
	v.err = nil
}

// Init loads the job.
func (v *View) Init() tea.Cmd {
	return v.load()
}

// load returns a command that reads the job.
func (v *View) load() tea.Cmd {
	if v.jobs == nil {
		v.err = errNoJobService
		return nil
	}
	if v.jobID == "" {
		return nil
	}

	v.loading = true
	ctx, jobs, id := v.ctx, v.jobs, v.jobID
	return func() tea.Msg {
		job, err := jobs.Get(ctx, id)
		return messages.JobLoaded{Job: job, Err: err}
	}
}

// Update handles messages for the job view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case messages.JobLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.job = msg.Job
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return v, v.load()
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{Route: domain.RouteUpload}
			}
		case "q":
			return v, func() tea.Msg { return messages.Quit{} }
		}
	}

	return v, nil
}

// View renders the job.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Job " + v.jobID))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	case v.job == nil:
		b.WriteString(v.styles.Muted.Render("Loading job..."))
		b.WriteString("\n\n")
	default:
		b.WriteString(v.renderJob())
		b.WriteString("\n")
	}

	b.WriteString(v.styles.Help.Render("[r] refresh  [esc] back  [q] quit"))
	return b.String()
}

// renderJob renders the job fields.
func (v *View) renderJob() string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(v.styles.Label.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Document", v.job.DocumentID)
	row("Status", v.styles.JobStatus(v.job.Failed(), v.job.Progress).Render(v.job.Status))
	row("Progress", progressBar(v.job.Progress))
	if v.job.Failed() {
		row("Error", v.styles.Error.Render(*v.job.Error))
	}
	if !v.job.UpdatedAt.IsZero() {
		row("Updated", v.job.UpdatedAt.Local().Format(timeLayout))
	}
	return b.String()
}

// progressBar renders a fixed-width bar for a 0-100 percentage.
func progressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "] " +
		fmt.Sprintf("%d%%", percent)
}

// Job returns the last loaded job, or nil.
func (v *View) Job() *domain.Job {
	return v.job
}

// Loading reports whether a read is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
