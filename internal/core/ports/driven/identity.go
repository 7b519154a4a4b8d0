package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// IdentityProvider is the external identity service that issues sessions.
//
// Failures the provider reports (bad credentials, duplicate email) are
// returned as *domain.IdentityError with the provider's message verbatim.
// Failures to reach the provider wrap domain.ErrIdentityUnavailable.
type IdentityProvider interface {
	// Name identifies the provider in persisted sessions and logs.
	Name() string

	// SignIn exchanges an email and password for a session.
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)

	// SignUp registers a new user. It returns a nil session when the
	// provider requires email confirmation before signing in.
	SignUp(ctx context.Context, email, password string) (*domain.Session, error)

	// Refresh exchanges a refresh token for a new session.
	// A rejected refresh token is reported as domain.ErrSessionExpired.
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)

	// SignOut invalidates the session with the provider.
	SignOut(ctx context.Context, session *domain.Session) error
}

// CodeExchanger is implemented by identity providers that support the
// authorization code flow with PKCE (browser login).
type CodeExchanger interface {
	// AuthorizationURL returns the URL the user's browser should open.
	AuthorizationURL(state, codeChallenge, redirectURI string) string

	// ExchangeCode trades an authorization code for a session.
	ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.Session, error)
}
