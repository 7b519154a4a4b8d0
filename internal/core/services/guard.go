package services

import (
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure Guard implements the interface.
var _ driving.Guard = Guard{}

// Guard decides route access from session state alone.
// It holds no state and performs no I/O.
type Guard struct{}

// NewGuard creates a route guard.
func NewGuard() Guard {
	return Guard{}
}

// CanEnter returns Pending while the session is loading, redirects
// protected routes to sign-in when signed out, and redirects sign-in
// to collections when already signed in.
func (Guard) CanEnter(state domain.SessionState, route domain.Route) domain.Decision {
	switch state.Status {
	case domain.StatusLoading:
		return domain.Pending()
	case domain.StatusPresent:
		if route == domain.RouteSignIn {
			return domain.DenyRedirect(domain.RouteCollections)
		}
		return domain.Allow()
	default:
		if route.Protected() {
			return domain.DenyRedirect(domain.RouteSignIn)
		}
		return domain.Allow()
	}
}
