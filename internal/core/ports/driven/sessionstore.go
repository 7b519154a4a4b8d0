package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// SessionStore persists the current session between runs.
// At most one session is stored at a time.
type SessionStore interface {
	// Load returns the stored session, or nil with no error if none exists.
	Load(ctx context.Context) (*domain.Session, error)

	// Save stores the session, replacing any existing one.
	Save(ctx context.Context, session *domain.Session) error

	// Delete removes the stored session. Deleting when none exists is not an error.
	Delete(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// SessionWatcher reports that the persisted session may have been changed
// by another process.
type SessionWatcher interface {
	// Changes returns a channel that receives a value after each change.
	// It is closed when the watcher stops.
	Changes() <-chan struct{}

	// Close stops watching.
	Close() error
}
