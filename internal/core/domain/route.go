package domain

// Route identifies a screen (TUI) or command group (CLI).
type Route string

const (
	// RouteSignIn is the public sign-in screen.
	RouteSignIn Route = "signin"
	// RouteCollections lists and creates collections.
	RouteCollections Route = "collections"
	// RouteUpload submits documents into a collection.
	RouteUpload Route = "upload"
	// RouteDocument reads a single document.
	RouteDocument Route = "document"
	// RouteJob reads a single ingestion job.
	RouteJob Route = "job"
)

// Protected reports whether the route requires a signed-in principal.
func (r Route) Protected() bool {
	return r != RouteSignIn
}

// Outcome is the verdict of a guard check.
type Outcome int

const (
	// OutcomeAllow renders the route.
	OutcomeAllow Outcome = iota
	// OutcomeRedirect sends the user to Decision.Target instead.
	OutcomeRedirect
	// OutcomePending renders a loading placeholder until the session resolves.
	OutcomePending
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeRedirect:
		return "redirect"
	case OutcomePending:
		return "pending"
	default:
		return "unknown"
	}
}

// Decision is the result of asking whether a route may be entered.
type Decision struct {
	Outcome Outcome
	// Target is set only for OutcomeRedirect.
	Target Route
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Outcome: OutcomeAllow}
}

// DenyRedirect returns a decision redirecting to target.
func DenyRedirect(target Route) Decision {
	return Decision{Outcome: OutcomeRedirect, Target: target}
}

// Pending returns the undecided decision used while the session is loading.
func Pending() Decision {
	return Decision{Outcome: OutcomePending}
}

// Allowed reports whether the route may be rendered.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}
