package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// ListCollectionsInput is the input schema for the list_collections tool.
type ListCollectionsInput struct{}

// ListCollectionsOutput is the output schema for the list_collections tool.
type ListCollectionsOutput struct {
	Collections []CollectionOutput `json:"collections"`
	Count       int                `json:"count"`
}

// CollectionOutput represents a single collection.
type CollectionOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateCollectionInput is the input schema for the create_collection tool.
type CreateCollectionInput struct {
	Name string `json:"name" jsonschema:"display name of the new collection"`
}

// CreateCollectionOutput is the output schema for the create_collection tool.
// Collection is nil when the backend created it without returning it.
type CreateCollectionOutput struct {
	Created    bool              `json:"created"`
	Collection *CollectionOutput `json:"collection,omitempty"`
}

// SubmitDocumentInput is the input schema for the submit_document tool.
type SubmitDocumentInput struct {
	CollectionID string `json:"collection_id" jsonschema:"id of the collection to ingest into"`
	Title        string `json:"title" jsonschema:"document title"`
	Content      string `json:"content" jsonschema:"document text"`
}

// SubmitDocumentOutput is the output schema for the submit_document tool.
type SubmitDocumentOutput struct {
	DocumentID string `json:"document_id"`
	JobID      string `json:"job_id"`
	JobStatus  string `json:"job_status,omitempty"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"id returned by submit_document"`
}

// DocumentOutput is the output schema for the get_document tool.
type DocumentOutput struct {
	ID           string `json:"id"`
	CollectionID string `json:"collection_id,omitempty"`
	Title        string `json:"title,omitempty"`
	Status       string `json:"status,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// GetJobInput is the input schema for the get_job tool.
type GetJobInput struct {
	JobID string `json:"job_id" jsonschema:"id returned by submit_document"`
}

// JobOutput is the output schema for the get_job tool.
type JobOutput struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Progress   int    `json:"progress"`
	Error      string `json:"error,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// HealthInput is the input schema for the backend_health tool.
type HealthInput struct{}

// HealthOutput is the output schema for the backend_health tool.
type HealthOutput struct {
	Status string `json:"status"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List the signed-in user's document collections",
	}, s.handleListCollections)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_collection",
		Description: "Create a document collection",
	}, s.handleCreateCollection)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "submit_document",
		Description: "Submit a document into a collection and queue its ingestion",
	}, s.handleSubmitDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Read a submitted document's metadata and status",
	}, s.handleGetDocument)

	if s.ports.Jobs != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_job",
			Description: "Read the current state of an ingestion job",
		}, s.handleGetJob)
	}

	if s.ports.Health != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "backend_health",
			Description: "Check that the ingestion backend is reachable (no sign-in needed)",
		}, s.handleHealth)
	}
}

func (s *Server) handleListCollections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListCollectionsInput,
) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	collections, err := s.ports.Collections.List(ctx)
	if err != nil {
		return nil, ListCollectionsOutput{}, toolError(err)
	}

	output := ListCollectionsOutput{
		Collections: make([]CollectionOutput, len(collections)),
		Count:       len(collections),
	}
	for i := range collections {
		output.Collections[i] = collectionOutput(&collections[i])
	}
	return nil, output, nil
}

func (s *Server) handleCreateCollection(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateCollectionInput,
) (*mcp.CallToolResult, CreateCollectionOutput, error) {
	created, err := s.ports.Collections.Create(ctx, input.Name)
	if err != nil {
		return nil, CreateCollectionOutput{}, toolError(err)
	}

	output := CreateCollectionOutput{Created: true}
	if created != nil {
		c := collectionOutput(created)
		output.Collection = &c
	}
	return nil, output, nil
}

func (s *Server) handleSubmitDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubmitDocumentInput,
) (*mcp.CallToolResult, SubmitDocumentOutput, error) {
	sub, err := s.ports.Documents.Submit(ctx, input.CollectionID, domain.DocumentInput{
		Title:   input.Title,
		Content: input.Content,
	})
	if err != nil {
		return nil, SubmitDocumentOutput{}, toolError(err)
	}

	return nil, SubmitDocumentOutput{
		DocumentID: sub.Document.ID,
		JobID:      sub.Job.ID,
		JobStatus:  sub.Job.Status,
	}, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	doc, err := s.ports.Documents.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, DocumentOutput{}, toolError(err)
	}

	return nil, DocumentOutput{
		ID:           doc.ID,
		CollectionID: doc.CollectionID,
		Title:        doc.Title,
		Status:       doc.Status,
		CreatedAt:    formatTime(doc.CreatedAt),
	}, nil
}

func (s *Server) handleGetJob(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetJobInput,
) (*mcp.CallToolResult, JobOutput, error) {
	if s.ports.Jobs == nil {
		return nil, JobOutput{}, fmt.Errorf("get_job: %w", errServiceUnavailable)
	}

	job, err := s.ports.Jobs.Get(ctx, input.JobID)
	if err != nil {
		return nil, JobOutput{}, toolError(err)
	}

	output := JobOutput{
		ID:         job.ID,
		DocumentID: job.DocumentID,
		Status:     job.Status,
		Progress:   job.Progress,
		UpdatedAt:  formatTime(job.UpdatedAt),
	}
	if job.Failed() {
		output.Error = *job.Error
	}
	return nil, output, nil
}

func (s *Server) handleHealth(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ HealthInput,
) (*mcp.CallToolResult, HealthOutput, error) {
	if s.ports.Health == nil {
		return nil, HealthOutput{}, fmt.Errorf("backend_health: %w", errServiceUnavailable)
	}

	health, err := s.ports.Health.Check(ctx)
	if err != nil {
		return nil, HealthOutput{}, err
	}
	return nil, HealthOutput{Status: health.Status}, nil
}

func collectionOutput(c *domain.Collection) CollectionOutput {
	return CollectionOutput{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

// formatTime renders t as RFC 3339, or empty when unset.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
