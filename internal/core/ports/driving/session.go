package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// OAuthFlowState holds the state for a browser login in progress.
// Used by driving adapters (TUI/CLI) to track the authorization code flow.
type OAuthFlowState struct {
	// AuthURL is the URL to open in the browser for user authorization.
	AuthURL string

	// CodeVerifier is the PKCE code verifier for token exchange.
	CodeVerifier string

	// State is the OAuth state parameter for CSRF protection.
	State string

	// RedirectURI is the local callback URL for the OAuth flow.
	RedirectURI string
}

// SessionHolder owns the signed-in principal and its token.
//
// It is constructed once and injected into every consumer. State changes
// are observed through Subscribe; Current is always a consistent snapshot.
type SessionHolder interface {
	driven.TokenProvider

	// Init resolves the persisted session. Until it returns, Current is Loading.
	Init(ctx context.Context) error

	// Current returns the current state snapshot.
	Current() domain.SessionState

	// Subscribe returns a channel receiving every state transition in order,
	// and a function that cancels the subscription.
	Subscribe() (<-chan domain.SessionState, func())

	// SignIn authenticates with email and password.
	SignIn(ctx context.Context, email, password string) error

	// SignUp registers a new user and signs in if the provider issues a session.
	SignUp(ctx context.Context, email, password string) (domain.SignUpResult, error)

	// BeginAuthorization prepares a browser login redirecting to redirectURI.
	// Returns domain.ErrNotSupported if the provider has no browser login.
	BeginAuthorization(redirectURI string) (*OAuthFlowState, error)

	// CompleteAuthorization exchanges the callback code for a session.
	CompleteAuthorization(ctx context.Context, flow *OAuthFlowState, code string) error

	// SignOut ends the session. Afterwards Current is always Absent.
	SignOut(ctx context.Context) error

	// Reload re-reads the persisted session.
	Reload(ctx context.Context) error

	// Watch reloads on every change reported by watcher until ctx is done.
	Watch(ctx context.Context, watcher driven.SessionWatcher) error

	// Teardown closes all subscriptions.
	Teardown()
}
