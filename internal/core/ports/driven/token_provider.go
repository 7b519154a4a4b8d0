package driven

import "context"

// TokenProvider lends the current access token for a single backend call.
// Implementations refresh an expired token transparently.
//
// The session holder is the only implementation in production; resource
// services depend on this narrow view so they never see the session itself.
type TokenProvider interface {
	// Token returns a valid access token.
	// Returns domain.ErrNotSignedIn when no session exists.
	Token(ctx context.Context) (string, error)
}
