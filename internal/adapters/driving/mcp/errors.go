// Package mcp provides an MCP (Model Context Protocol) server adapter for ragdesk.
// It lets AI assistants manage collections, submit documents and read
// ingestion jobs as the signed-in user.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// ErrMissingCollectionService is returned when the collection service is not provided.
var ErrMissingCollectionService = errors.New("mcp: collection service is required")

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("mcp: document service is required")

// errServiceUnavailable is returned by handlers whose optional port is unset.
var errServiceUnavailable = errors.New("not available in this server")

// toolError adds a next step to errors an assistant cannot fix on its own.
func toolError(err error) error {
	if errors.Is(err, domain.ErrNotSignedIn) || errors.Is(err, domain.ErrSessionExpired) {
		return fmt.Errorf("%w: the user must sign in with 'ragdesk login'", err)
	}
	return err
}
