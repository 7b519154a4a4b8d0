package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for ragdesk resources.
	uriScheme = "ragdesk://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "The signed-in user's collections",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "session",
		Name:        "session",
		Description: "Who the tools act as",
		MIMEType:    "application/json",
	}, s.handleSessionResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "Metadata and status of a submitted document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)

	if s.ports.Jobs != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "jobs/{jobId}",
			Name:        "job",
			Description: "State of an ingestion job",
			MIMEType:    "application/json",
		}, s.handleJobResource)
	}
}

// handleCollectionsResource lists the signed-in user's collections.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	collections, err := s.ports.Collections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", toolError(err))
	}

	infos := make([]CollectionOutput, len(collections))
	for i := range collections {
		infos[i] = collectionOutput(&collections[i])
	}
	return jsonResource(req.Params.URI, infos)
}

// handleSessionResource reports the session state without exposing the token.
func (s *Server) handleSessionResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type sessionInfo struct {
		Status string `json:"status"`
		UserID string `json:"user_id,omitempty"`
		Email  string `json:"email,omitempty"`
	}

	info := sessionInfo{Status: domain.StatusAbsent.String()}
	if s.ports.Session != nil {
		state := s.ports.Session.Current()
		info.Status = state.Status.String()
		if state.IsPresent() {
			info.UserID = state.Principal.ID
			info.Email = state.Principal.Email
		}
	}
	return jsonResource(req.Params.URI, info)
}

// handleDocumentResource returns one document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract documentId from URI: ragdesk://documents/{documentId}
	docID := extractID(req.Params.URI, "documents/")
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, doc, err := s.handleGetDocument(ctx, nil, GetDocumentInput{DocumentID: docID})
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return jsonResource(req.Params.URI, doc)
}

// handleJobResource returns one ingestion job.
func (s *Server) handleJobResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract jobId from URI: ragdesk://jobs/{jobId}
	jobID := extractID(req.Params.URI, "jobs/")
	if jobID == "" || s.ports.Jobs == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, job, err := s.handleGetJob(ctx, nil, GetJobInput{JobID: jobID})
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return jsonResource(req.Params.URI, job)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractID extracts the single path segment after kind from a URI like
// ragdesk://documents/{documentId}.
func extractID(uri, kind string) string {
	prefix := uriScheme + kind

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
