// Package cli provides the ragdesk command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Command annotations read by the root pre-run hook.
const (
	// annotationRoute names the route a command renders. The guard runs on it.
	annotationRoute = "ragdesk.route"

	// annotationSession marks commands that need a resolved session but
	// are not guarded (logout, whoami, status).
	annotationSession = "ragdesk.session"
)

// Services injected by the composition root.
var (
	sessionHolder     driving.SessionHolder
	collectionService driving.CollectionService
	documentService   driving.DocumentService
	jobService        driving.JobService
	healthService     driving.HealthService
	settingsService   driving.SettingsService
	guard             driving.Guard
	sessionWatcher    driven.SessionWatcher
)

// Services bundles everything the commands depend on.
type Services struct {
	Session     driving.SessionHolder
	Collections driving.CollectionService
	Documents   driving.DocumentService
	Jobs        driving.JobService
	Health      driving.HealthService
	Settings    driving.SettingsService
	Guard       driving.Guard

	// Watcher reports session changes made by other processes.
	// Optional; long-running commands (tui, mcp serve) follow it.
	Watcher driven.SessionWatcher
}

// Options are the global flags the bootstrap needs.
type Options struct {
	// Ephemeral keeps config and session in memory only.
	Ephemeral bool
}

// BootstrapFunc builds the services once global flags are parsed.
// The returned cleanup runs after the command finishes.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap BootstrapFunc
	cleanup   func()

	// sessionInitErr is the last Init failure; unguarded commands report it.
	sessionInitErr error
)

// Global flags.
var (
	verbose   bool
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "ragdesk",
	Short: "Terminal client for the ragdesk ingestion backend",
	Long: `ragdesk signs you in to a document-ingestion backend and lets you manage
collections, submit documents and inspect ingestion jobs.

Run 'ragdesk login' first, then 'ragdesk collection list'.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  persistentPreRun,
	PersistentPostRunE: persistentPostRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"Keep config and session in memory only")
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices injects services directly. Nil fields leave the
// corresponding service unconfigured.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	sessionHolder = s.Session
	collectionService = s.Collections
	documentService = s.Documents
	jobService = s.Jobs
	healthService = s.Health
	settingsService = s.Settings
	guard = s.Guard
	sessionWatcher = s.Watcher
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func persistentPreRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap != nil && sessionHolder == nil && settingsService == nil {
		services, done, err := bootstrap(commandContext(cmd), Options{Ephemeral: ephemeral})
		if err != nil {
			return err
		}
		SetServices(services)
		cleanup = done
	}

	route, guarded := cmd.Annotations[annotationRoute]
	_, needsSession := cmd.Annotations[annotationSession]
	if !guarded && !needsSession {
		return nil
	}
	if sessionHolder == nil {
		return errors.New("identity provider not configured: see 'ragdesk config keys'")
	}

	sessionInitErr = sessionHolder.Init(commandContext(cmd))
	if sessionInitErr != nil {
		logger.Debug("session init: %v", sessionInitErr)
	}
	if !guarded {
		return nil
	}
	return enforceRoute(domain.Route(route), sessionInitErr)
}

// enforceRoute asks the guard whether the command's route may run.
func enforceRoute(route domain.Route, initErr error) error {
	g := guard
	if g == nil {
		return errors.New("route guard not configured")
	}

	state := sessionHolder.Current()
	decision := g.CanEnter(state, route)
	logger.Debug("guard: %s on %s -> %s", route, state.Status, decision.Outcome)

	switch decision.Outcome {
	case domain.OutcomeAllow:
		return nil
	case domain.OutcomeRedirect:
		if decision.Target == domain.RouteSignIn {
			return fmt.Errorf("%w: run 'ragdesk login'", domain.ErrNotSignedIn)
		}
		return fmt.Errorf("already signed in as %s: run 'ragdesk logout' first", displayName(state.Principal))
	default:
		if initErr != nil {
			return fmt.Errorf("resolving session: %w", initErr)
		}
		return errors.New("session is still loading")
	}
}

func persistentPostRun(_ *cobra.Command, _ []string) error {
	Shutdown()
	return nil
}

// Shutdown releases what the bootstrap acquired. It is safe to call more
// than once; the post-run hook does not fire when a command fails.
func Shutdown() {
	if cleanup != nil {
		done := cleanup
		cleanup = nil
		done()
	}
}

// commandContext returns the command's context, or Background when
// the command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// routed returns annotations that guard a command with route.
func routed(route domain.Route) map[string]string {
	return map[string]string{annotationRoute: string(route)}
}

// withSession returns annotations for commands needing a resolved session.
func withSession() map[string]string {
	return map[string]string{annotationSession: "true"}
}

func displayName(p domain.Principal) string {
	if p.Email != "" {
		return p.Email
	}
	if p.ID != "" {
		return p.ID
	}
	return "unknown user"
}
