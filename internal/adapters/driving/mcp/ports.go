package mcp

import (
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Session reports who the tools act as. Optional.
	Session driving.SessionHolder

	// Collections lists and creates collections.
	Collections driving.CollectionService

	// Documents submits and reads documents.
	Documents driving.DocumentService

	// Jobs reads ingestion jobs. Optional.
	Jobs driving.JobService

	// Health probes the backend. Optional.
	Health driving.HealthService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Collections == nil {
		return ErrMissingCollectionService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
