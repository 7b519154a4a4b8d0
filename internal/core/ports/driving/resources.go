package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// CollectionService manages the signed-in user's collections.
type CollectionService interface {
	// List returns collections in the order the backend returns them.
	List(ctx context.Context) ([]domain.Collection, error)

	// Create creates a collection. The result is nil when the backend
	// returns no content. Callers re-list to observe it.
	Create(ctx context.Context, name string) (*domain.Collection, error)
}

// DocumentService submits and reads documents.
type DocumentService interface {
	// Submit creates a document in a collection and queues its ingestion.
	Submit(ctx context.Context, collectionID string, input domain.DocumentInput) (*domain.Submission, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)
}

// JobService reads ingestion jobs.
type JobService interface {
	// Get retrieves a job by ID. It is a single read; nothing polls.
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

// HealthService probes the backend without authentication.
type HealthService interface {
	Check(ctx context.Context) (*domain.HealthStatus, error)
}

// Guard decides whether a route may be entered for a session state.
type Guard interface {
	CanEnter(state domain.SessionState, route domain.Route) domain.Decision
}
