// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// SessionChanged carries a session transition from the holder subscription.
type SessionChanged struct {
	State domain.SessionState
}

// SessionClosed is sent once the holder subscription channel closes.
type SessionClosed struct{}

// ViewChanged requests navigation to a route. The app runs the guard
// before the route is shown.
type ViewChanged struct {
	Route domain.Route
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SignInCompleted carries the outcome of a password sign-in.
// Success is observed through SessionChanged; Err is shown verbatim.
type SignInCompleted struct {
	Err error
}

// SignOutRequested asks the app to end the session.
type SignOutRequested struct{}

// SignOutCompleted carries the outcome of a sign-out. The local session is
// cleared even when Err is set.
type SignOutCompleted struct {
	Err error
}

// CollectionsLoaded carries the list of collections from the service.
type CollectionsLoaded struct {
	Collections []domain.Collection
	Err         error
}

// CollectionCreated signals a create call returned. Collection is nil when
// the backend answered with no content.
type CollectionCreated struct {
	Collection *domain.Collection
	Err        error
}

// CollectionSelected opens the upload view for a collection.
type CollectionSelected struct {
	Collection domain.Collection
}

// DocumentSubmitted carries the outcome of a document submission.
type DocumentSubmitted struct {
	Submission *domain.Submission
	Err        error
}

// JobSelected opens the job view for an ingestion job.
type JobSelected struct {
	JobID string
}

// JobLoaded carries a fresh read of an ingestion job.
type JobLoaded struct {
	Job *domain.Job
	Err error
}
