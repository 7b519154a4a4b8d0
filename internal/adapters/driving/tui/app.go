package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/collections"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/job"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/signin"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/views/upload"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// maxRedirects bounds guard redirect chains. A consistent guard needs one hop.
const maxRedirects = 3

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
//
// The app owns navigation: every view switch and every session transition
// asks the guard whether the requested route may be shown.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for service calls.
	ctx context.Context

	styles  *styles.Styles
	keymap  *keymap.KeyMap
	status  *status.Bar
	spinner spinner.Model

	signInView      *signin.View
	collectionsView *collections.View
	uploadView      *upload.View
	jobView         *job.View

	// sessions delivers holder transitions, starting with the current state.
	sessions    <-chan domain.SessionState
	unsubscribe func()
	closeOnce   sync.Once

	// session is the last state seen on the subscription.
	session domain.SessionState

	// requested is the route the user asked for; current is the one shown.
	requested domain.Route
	current   domain.Route
	entered   bool

	// pending is set while the guard cannot decide yet.
	pending bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application and subscribes it to the session
// holder. Call Close when the program exits.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	sessions, unsubscribe := ports.Session.Subscribe()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = s.Muted

	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		keymap:          keymap.DefaultKeyMap(),
		status:          status.NewBar(s),
		spinner:         spin,
		signInView:      signin.NewView(s, ports.Session),
		collectionsView: collections.NewView(s, ports.Collections),
		uploadView:      upload.NewView(s, ports.Documents),
		jobView:         job.NewView(s, ports.Jobs),
		sessions:        sessions,
		unsubscribe:     unsubscribe,
		session:         domain.Loading(),
		requested:       domain.RouteCollections,
		current:         domain.RouteSignIn,
		pending:         true,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.signInView.SetContext(ctx)
	a.collectionsView.SetContext(ctx)
	a.uploadView.SetContext(ctx)
	a.jobView.SetContext(ctx)
	return a
}

// Close stops the session subscription. Safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(a.unsubscribe)
}

// Init implements tea.Model.
// The first session message decides the initial view.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("ragdesk"),
		a.waitForSession(),
		a.spinner.Tick,
	)
}

// waitForSession returns a command that blocks for the next session state.
func (a *App) waitForSession() tea.Cmd {
	sessions := a.sessions
	return func() tea.Msg {
		state, ok := <-sessions
		if !ok {
			return messages.SessionClosed{}
		}
		return messages.SessionChanged{State: state}
	}
}

// navigate asks the guard for route and shows the outcome.
func (a *App) navigate(route domain.Route) tea.Cmd {
	for range maxRedirects {
		a.requested = route
		decision := a.ports.Guard.CanEnter(a.session, route)
		logger.Debug("tui: %s -> %s (session %s)", route, decision.Outcome, a.session.Status)

		switch decision.Outcome {
		case domain.OutcomePending:
			a.pending = true
			return a.spinner.Tick
		case domain.OutcomeRedirect:
			route = decision.Target
			continue
		case domain.OutcomeAllow:
			a.pending = false
			return a.enter(route)
		}
	}
	logger.Warn("tui: guard redirect loop at %s", route)
	return nil
}

// enter shows route. A view is initialised only when it becomes current, so
// a token refresh does not reset the form the user is typing in.
func (a *App) enter(route domain.Route) tea.Cmd {
	if a.entered && route == a.current {
		return nil
	}
	a.current = route
	a.entered = true
	a.status.Clear()

	switch route {
	case domain.RouteSignIn:
		a.status.SetBindings(a.keymap.SignInHelp())
		return a.signInView.Init()
	case domain.RouteCollections:
		a.status.SetBindings(a.keymap.CollectionsHelp())
		return a.collectionsView.Init()
	case domain.RouteUpload:
		a.status.SetBindings(a.keymap.UploadHelp())
		return a.uploadView.Init()
	case domain.RouteJob:
		a.status.SetBindings(a.keymap.JobHelp())
		return a.jobView.Init()
	case domain.RouteDocument:
		// Documents are reached through their job in the TUI.
	}
	return nil
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.pending {
			return a, nil
		}
		return a, a.forward(msg)

	case messages.SessionChanged:
		a.session = msg.State
		cmd = a.navigate(a.requested)
		return a, tea.Batch(cmd, a.waitForSession())

	case messages.SessionClosed:
		return a, tea.Quit

	case messages.ViewChanged:
		return a, a.navigate(msg.Route)

	case messages.CollectionSelected:
		a.uploadView.SetCollection(msg.Collection)
		return a, a.navigate(domain.RouteUpload)

	case messages.JobSelected:
		a.jobView.SetJob(msg.JobID)
		// Re-enter so the job view reloads even when already current.
		a.entered = false
		return a, a.navigate(domain.RouteJob)

	case messages.SignInCompleted:
		if msg.Err == nil {
			a.status.SetState(status.StateSuccess, "Signed in.")
		}
		a.signInView, cmd = a.signInView.Update(msg)
		return a, cmd

	case messages.SignOutRequested:
		a.status.SetState(status.StateBusy, "Signing out...")
		ctx, session := a.ctx, a.ports.Session
		return a, func() tea.Msg {
			return messages.SignOutCompleted{Err: session.SignOut(ctx)}
		}

	case messages.SignOutCompleted:
		if msg.Err != nil {
			a.status.SetState(status.StateError,
				"signed out locally; the identity provider could not revoke the session: "+msg.Err.Error())
			return a, nil
		}
		a.status.SetState(status.StateSuccess, "Signed out.")
		return a, nil

	case messages.ErrorOccurred:
		a.status.SetError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit

	case spinner.TickMsg:
		if !a.pending {
			return a, nil
		}
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, a.forward(msg)
}

// forward passes msg to the current view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.current {
	case domain.RouteSignIn:
		a.signInView, cmd = a.signInView.Update(msg)
	case domain.RouteCollections:
		a.collectionsView, cmd = a.collectionsView.Update(msg)
	case domain.RouteUpload:
		a.uploadView, cmd = a.uploadView.Update(msg)
	case domain.RouteJob:
		a.jobView, cmd = a.jobView.Update(msg)
	case domain.RouteDocument:
	}
	return cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch {
	case a.pending:
		body = a.spinner.View() + " Loading..."
	case a.current == domain.RouteSignIn:
		body = a.signInView.View()
	case a.current == domain.RouteCollections:
		body = a.collectionsView.View()
	case a.current == domain.RouteUpload:
		body = a.uploadView.View()
	case a.current == domain.RouteJob:
		body = a.jobView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		"",
		body,
		"",
		a.status.View(),
	)
}

// renderHeader renders the app name and who is signed in.
func (a *App) renderHeader() string {
	who := "not signed in"
	switch {
	case a.session.IsPresent():
		who = a.session.Principal.Email
		if who == "" {
			who = a.session.Principal.ID
		}
	case a.session.Status == domain.StatusLoading:
		who = "..."
	}

	left := "ragdesk"
	padding := a.width - lipgloss.Width(left) - lipgloss.Width(who) - 2
	if padding < 1 {
		padding = 1
	}
	return a.styles.Header.Width(a.width).Render(left + strings.Repeat(" ", padding) + who)
}

// CurrentRoute returns the route being shown.
func (a *App) CurrentRoute() domain.Route {
	return a.current
}

// RequestedRoute returns the route the user last asked for.
func (a *App) RequestedRoute() domain.Route {
	return a.requested
}

// Pending reports whether the guard is waiting for the session to load.
func (a *App) Pending() bool {
	return a.pending
}

// Session returns the last observed session state.
func (a *App) Session() domain.SessionState {
	return a.session
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions for the app and its views.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.status.SetWidth(width)

	// Header, status bar and spacing.
	viewHeight := height - 4
	a.signInView.SetDimensions(width, viewHeight)
	a.collectionsView.SetDimensions(width, viewHeight)
	a.uploadView.SetDimensions(width, viewHeight)
	a.jobView.Update(tea.WindowSizeMsg{Width: width, Height: viewHeight})
}
