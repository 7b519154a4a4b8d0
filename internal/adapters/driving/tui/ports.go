// Package tui provides an interactive terminal user interface for ragdesk.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Session is the shared session holder. The app subscribes to it and
	// re-runs the guard on every transition.
	Session driving.SessionHolder

	// Guard decides which view may be shown for the current session.
	Guard driving.Guard

	// Collections lists and creates collections.
	Collections driving.CollectionService

	// Documents submits documents into a collection.
	Documents driving.DocumentService

	// Jobs reads ingestion jobs. Optional; the job view is disabled without it.
	Jobs driving.JobService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Session == nil {
		return ErrMissingSessionHolder
	}
	if p.Guard == nil {
		return ErrMissingGuard
	}
	if p.Collections == nil {
		return ErrMissingCollectionService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
